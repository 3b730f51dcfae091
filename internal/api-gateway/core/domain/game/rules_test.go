package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
	"github.com/jcmexdev/nested-tictactoe/internal/pkg/serviceerror"
)

func TestCreate(t *testing.T) {
	t.Run("open game waits for players", func(t *testing.T) {
		g := Create("alice", entity.GameSettings{CreatorSymbol: entity.SymbolX})

		assert.Equal(t, "alice", g.XPlayerID)
		assert.Empty(t, g.OPlayerID)
		assert.Equal(t, entity.StatusWaitingForPlayers, g.Status)
		assert.Equal(t, entity.WinnerNone, g.Winner)
		assert.Equal(t, "alice", g.CreatorID)
	})

	t.Run("opponent starts the game", func(t *testing.T) {
		g := Create("alice", entity.GameSettings{IsPrivate: true, OpponentID: "bob", CreatorSymbol: entity.SymbolO})

		assert.Equal(t, "alice", g.OPlayerID)
		assert.Equal(t, "bob", g.XPlayerID)
		assert.Equal(t, entity.StatusInProgress, g.Status)
	})

	t.Run("random symbol when unset", func(t *testing.T) {
		g := Create("alice", entity.GameSettings{})

		assert.Contains(t, []entity.Symbol{entity.SymbolX, entity.SymbolO}, g.CreatorSymbol)
		assert.True(t, g.HasPlayer("alice"))
	})
}

func TestPlayerJoins(t *testing.T) {
	open := Create("alice", entity.GameSettings{CreatorSymbol: entity.SymbolX})

	joined, err := PlayerJoins("bob", open)
	require.NoError(t, err)
	assert.Equal(t, "bob", joined.OPlayerID)
	assert.Equal(t, entity.StatusInProgress, joined.Status)
	assert.Equal(t, entity.StatusWaitingForPlayers, open.Status, "input is not modified")

	_, err = PlayerJoins("carol", joined)
	assert.ErrorIs(t, err, ErrNotWaitingForPlayers)

	_, err = PlayerJoins("alice", open)
	assert.ErrorIs(t, err, ErrAlreadyInGame)

	full := open
	full.OPlayerID = "dave"
	_, err = PlayerJoins("carol", full)
	assert.ErrorIs(t, err, ErrGameFull)
}

func TestPlayerQuits(t *testing.T) {
	g := Create("alice", entity.GameSettings{OpponentID: "bob", CreatorSymbol: entity.SymbolO})

	quit, err := PlayerQuits("alice", g)
	require.NoError(t, err)
	assert.Equal(t, entity.WinnerX, quit.Winner)
	assert.Equal(t, entity.StatusFinished, quit.Status)

	quit, err = PlayerQuits("bob", g)
	require.NoError(t, err)
	assert.Equal(t, entity.WinnerO, quit.Winner)

	_, err = PlayerQuits("carol", g)
	assert.ErrorIs(t, err, ErrNotInGame)

	_, err = PlayerQuits("alice", quit)
	assert.ErrorIs(t, err, ErrQuitFinished)

	waiting := Create("alice", entity.GameSettings{CreatorSymbol: entity.SymbolX})
	_, err = PlayerQuits("", waiting)
	assert.ErrorIs(t, err, ErrNotInGame, "an empty seat is not a player")
}

func TestRuleErrorsClassify(t *testing.T) {
	cases := map[error]int{
		ErrNotWaitingForPlayers: 400,
		ErrAlreadyInGame:        400,
		ErrGameFull:             409,
		ErrQuitFinished:         400,
		ErrNotInGame:            403,
	}
	for err, code := range cases {
		se := serviceerror.From(err)
		assert.Equal(t, code, se.Code, err.Error())
		assert.Equal(t, err.Error(), se.Message)
	}
}
