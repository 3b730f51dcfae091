package entity

type Symbol string

const (
	SymbolX     Symbol = "X"
	SymbolO     Symbol = "O"
	SymbolEmpty Symbol = "EMPTY"
)

type Winner string

const (
	WinnerX    Winner = "X"
	WinnerO    Winner = "O"
	WinnerDraw Winner = "DRAW"
	WinnerNone Winner = "NONE"
)

type Status string

const (
	StatusWaitingForPlayers Status = "WAITING_FOR_PLAYERS"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusFinished          Status = "FINISHED"
)

// GameSettings are chosen by the player creating a game. A private game
// can only be seen by the creator and OpponentID.
type GameSettings struct {
	IsPrivate     bool   `json:"isPrivate"`
	OpponentID    string `json:"opponentId,omitempty"`
	CreatorSymbol Symbol `json:"creatorSymbol,omitempty"`
}

type Game struct {
	ID        string `json:"id,omitempty"`
	CreatorID string `json:"creatorId"`
	OPlayerID string `json:"oPlayerId"`
	XPlayerID string `json:"xPlayerId"`
	Winner    Winner `json:"winner"`
	Status    Status `json:"status"`

	GameSettings
}

// HasPlayer reports whether userID plays either symbol.
func (g Game) HasPlayer(userID string) bool {
	return userID != "" && (g.OPlayerID == userID || g.XPlayerID == userID)
}

// GameFilter narrows ListGames.
type GameFilter string

const (
	// GameFilterOpen lists games waiting for a second player.
	GameFilterOpen GameFilter = "open"
	// GameFilterMine lists games the caller plays in.
	GameFilterMine GameFilter = "mine"
)

type GameList struct {
	Games       []Game `json:"games"`
	QueryCursor string `json:"queryCursor"`
}
