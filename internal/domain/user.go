package domain

import "time"

// User is an account holder. Usernames are unique and compared exactly
// as stored (no case folding). Accounts are never edited or deleted.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
