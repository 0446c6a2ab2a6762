// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is the opaque output of the hashing collaborator (bcrypt).
// The `json:"-"` tag keeps it out of every API response, even if a handler
// serializes the whole struct by mistake.
//
// WHY int64 IDs?
// Keys are assigned by SQLite's INTEGER PRIMARY KEY AUTOINCREMENT. Deck and
// card ids travel through URLs as plain numbers, and a malformed number is a
// distinct validation error at the boundary.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
