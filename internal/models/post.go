package models

import (
	"time"
)

// Post is a forum post. LikesCount and CommentsCount are denormalized
// aggregates maintained in the same transaction as the rows they count,
// so the likes-first feed sort stays a plain ORDER BY.
type Post struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"size:200;not null" json:"title"`
	Content       string `gorm:"type:text;not null" json:"content"`
	UserID        uint   `gorm:"not null;index" json:"user_id"`
	User          User   `gorm:"foreignKey:UserID" json:"user"`
	LikesCount    int    `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int    `gorm:"not null;default:0" json:"comments_count"`
	// LikedByUser indicates whether the requesting user liked this post (computed)
	LikedByUser bool      `gorm:"-:migration;->" json:"liked_by_user"`
	CreatedAt   time.Time `json:"created_at"`

	Comments []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Likes    []PostLike `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}
