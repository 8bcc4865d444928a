package model

import "time"

type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Activated    bool      `json:"activated"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the user shape returned to API clients. The password hash
// never leaves the server.
type Profile struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Activated bool   `json:"activated"`
}

func (u User) Profile() Profile {
	return Profile{Username: u.Username, Email: u.Email, Activated: u.Activated}
}
