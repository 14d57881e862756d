package models

import (
	"time"
)

// Session is a server-side login session row. The token is the opaque value
// carried in the client cookie; fields are set once at login and never
// mutated. Expired rows are reaped lazily on lookup.
type Session struct {
	Token      string    `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Username   string    `gorm:"not null" json:"username"`
	IsLoggedIn bool      `gorm:"not null" json:"isLoggedIn"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
