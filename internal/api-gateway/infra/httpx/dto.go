package httpx

import "github.com/jcmexdev/nested-tictactoe/internal/api-gateway/core/domain/entity"

type SignUpRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,e164"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r SignUpRequest) credentials() entity.Credentials {
	return entity.Credentials{Name: r.Name, Email: r.Email, Phone: r.Phone, Password: r.Password}
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type DeleteAccountQuery struct {
	UserID string `json:"userId" validate:"required"`
}

type GetUsersQuery struct {
	Name string `json:"name" validate:"required,max=32"`
}

type CreateGameRequest struct {
	IsPrivate     bool   `json:"isPrivate"`
	OpponentID    string `json:"opponentId" validate:"required_if=IsPrivate true"`
	CreatorSymbol string `json:"creatorSymbol" validate:"omitempty,oneof=X O"`
}

func (r CreateGameRequest) settings() entity.GameSettings {
	return entity.GameSettings{
		IsPrivate:     r.IsPrivate,
		OpponentID:    r.OpponentID,
		CreatorSymbol: entity.Symbol(r.CreatorSymbol),
	}
}

type ListGamesQuery struct {
	Filter string `json:"filter" validate:"omitempty,oneof=open mine"`
	Limit  int    `json:"limit" validate:"gte=0,lte=100"`
	Cursor string `json:"cursor"`
}
