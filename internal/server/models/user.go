package models

// User is an account. ID is chosen by the client at signup and never changes.
type User struct {
	ID           string `json:"id"`
	PasswordHash string `json:"-"`
}
