package models

import "time"

// Principal is the single administrative identity.
type Principal struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
