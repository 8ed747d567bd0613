// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server. Handlers return User structs directly
// in register/login responses, so the safety net lives on the type itself:
// encoding/json skips any field tagged "-", no matter which handler serializes it.
//
// WHY LastLoginAt *time.Time?
// The column is NULL until the user's first login. A pointer distinguishes
// "never logged in" (nil) from a real timestamp, and marshals to JSON null.
type User struct {
	ID           string     `json:"id"          db:"id"`
	Username     string     `json:"username"    db:"username"`
	Email        string     `json:"email"       db:"email"`
	PasswordHash string     `json:"-"           db:"password_hash"`
	CreatedAt    time.Time  `json:"createdAt"   db:"created_at"`
	LastLoginAt  *time.Time `json:"lastLoginAt" db:"last_login_at"`
}
