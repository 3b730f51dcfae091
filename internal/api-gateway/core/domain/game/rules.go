// Package game holds the lobby rules of nested tic-tac-toe: creating a game,
// joining it and quitting it. Board and move rules live elsewhere.
package game

import (
	"errors"
	"math/rand/v2"

	"github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"
)

var (
	ErrNotWaitingForPlayers = errors.New("Cannot join game not waiting for players state")
	ErrAlreadyInGame        = errors.New("Player already in game")
	ErrGameFull             = errors.New("Game already has 2 players")
	ErrQuitFinished         = errors.New("Cannot quit game in finished state")
	ErrNotInGame            = errors.New("Player is not part of the game")
)

// RandomSymbol picks X or O with equal probability.
func RandomSymbol() entity.Symbol {
	if rand.IntN(2) == 0 {
		return entity.SymbolX
	}
	return entity.SymbolO
}

// Create builds a new game for creatorID. When settings name an opponent the
// game starts right away, otherwise it waits for a second player.
func Create(creatorID string, settings entity.GameSettings) entity.Game {
	if settings.CreatorSymbol != entity.SymbolX && settings.CreatorSymbol != entity.SymbolO {
		settings.CreatorSymbol = RandomSymbol()
	}

	g := entity.Game{
		CreatorID:    creatorID,
		Winner:       entity.WinnerNone,
		Status:       entity.StatusWaitingForPlayers,
		GameSettings: settings,
	}

	if settings.CreatorSymbol == entity.SymbolO {
		g.OPlayerID = creatorID
		g.XPlayerID = settings.OpponentID
	} else {
		g.XPlayerID = creatorID
		g.OPlayerID = settings.OpponentID
	}

	if settings.OpponentID != "" {
		g.Status = entity.StatusInProgress
	}
	return g
}

// PlayerJoins returns a copy of g with playerID seated in the first free slot.
func PlayerJoins(playerID string, g entity.Game) (entity.Game, error) {
	if g.Status != entity.StatusWaitingForPlayers {
		return g, ErrNotWaitingForPlayers
	}
	if g.HasPlayer(playerID) {
		return g, ErrAlreadyInGame
	}

	switch {
	case g.OPlayerID == "":
		g.OPlayerID = playerID
	case g.XPlayerID == "":
		g.XPlayerID = playerID
	default:
		return g, ErrGameFull
	}

	g.Status = entity.StatusInProgress
	return g, nil
}

// PlayerQuits returns a copy of g, finished, with the other symbol as winner.
func PlayerQuits(playerID string, g entity.Game) (entity.Game, error) {
	if g.Status == entity.StatusFinished {
		return g, ErrQuitFinished
	}

	switch {
	case playerID != "" && playerID == g.OPlayerID:
		g.Winner = entity.WinnerX
	case playerID != "" && playerID == g.XPlayerID:
		g.Winner = entity.WinnerO
	default:
		return g, ErrNotInGame
	}

	g.Status = entity.StatusFinished
	return g, nil
}
