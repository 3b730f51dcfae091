package entity

import "time"

type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password,omitempty"`
}

// User is an account held by the identity store.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserPublicData is the document other players can search for.
type UserPublicData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ELO      int    `json:"ELO"`
}

const DefaultELO = 1000

type Session struct {
	ID     string    `json:"id"`
	UserID string    `json:"userId"`
	Secret string    `json:"-"`
	Expire time.Time `json:"expire"`
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.Expire)
}
