package models

import (
	"time"
)

// InviteCode is a single-use token gating registration. A code transitions
// is_used false→true exactly once; there is no un-use path and codes are
// never deleted.
type InviteCode struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Code         string     `gorm:"uniqueIndex;size:8;not null" json:"code"`
	IsUsed       bool       `gorm:"not null;default:false" json:"is_used"`
	UsedByUserID *uint      `json:"used_by_user_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`

	UsedBy *User `gorm:"foreignKey:UsedByUserID" json:"-"`
}
