// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered forum account. Registration is invite-gated:
// InviteCode records the code string the account was created with.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	InviteCode   string    `gorm:"size:8;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Posts    []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
	Comments []Comment `gorm:"foreignKey:UserID" json:"-"`
}
