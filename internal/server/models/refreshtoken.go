package models

// RefreshToken is the persisted value of a refresh token, kept so it can be
// revoked on logout and reused on signin.
type RefreshToken struct {
	ID     int64
	UserID string
	Token  string
}
