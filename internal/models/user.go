// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account. The password column holds a bcrypt
// hash and is excluded from JSON and from every read path that returns users;
// only the login lookup reads it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Posts     []Post    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts"`
	Comments  []Comment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"comments"`
}

// PublicColumns lists the user columns safe to return to clients.
// Kept in one place so no query can accidentally select the password hash.
var PublicColumns = []string{"id", "username", "email", "created_at", "updated_at"}
