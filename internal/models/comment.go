// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Comment represents a comment on a post. It is owned by both a user and a
// post; deleting either one removes the comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
