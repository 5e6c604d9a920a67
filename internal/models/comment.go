package models

import (
	"time"
)

// Comment is a comment on a post. LikesCount mirrors the live CommentLike
// rows the same way Post.LikesCount mirrors PostLike rows.
type Comment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Content    string `gorm:"type:text;not null" json:"content"`
	PostID     uint   `gorm:"not null;index" json:"post_id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	User       User   `gorm:"foreignKey:UserID" json:"user"`
	LikesCount int    `gorm:"not null;default:0" json:"likes_count"`
	// LikedByUser indicates whether the requesting user liked this comment (computed)
	LikedByUser bool      `gorm:"-:migration;->" json:"liked_by_user"`
	CreatedAt   time.Time `json:"created_at"`

	Likes []CommentLike `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
}
