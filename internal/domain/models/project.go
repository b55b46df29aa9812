package models

import (
	"time"
)

// Project is the metadata row shown on the project list.
// The autosave path never mutates it.
type Project struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IsOwnedBy reports whether userID owns the project.
func (p *Project) IsOwnedBy(userID string) bool {
	return p.OwnerID == userID
}
