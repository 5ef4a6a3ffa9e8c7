package model

// User is an account record. There are no account routes yet; the store
// keeps users alongside audio files so a future auth layer has a home.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// InsertUser carries the fields required to create a User record.
type InsertUser struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
