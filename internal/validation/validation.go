// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 1 {
		return fmt.Errorf("username is required")
	}

	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}

	// Only allow alphanumeric, underscores and hyphens
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}

	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets minimum security requirements.
// The bar is intentionally lower than a strict complexity policy: length plus
// a printable-range check, since the hash function provides the real defense.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters long")
	}

	// bcrypt truncates input beyond 72 bytes; reject rather than silently truncate
	if len(password) > 72 {
		return fmt.Errorf("password must not exceed 72 characters")
	}

	return nil
}

// ValidatePostTitle checks post title constraints.
func ValidatePostTitle(title string) error {
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > 200 {
		return fmt.Errorf("title must not exceed 200 characters")
	}
	return nil
}

// ValidateContent checks post/comment body constraints.
func ValidateContent(content string) error {
	if content == "" {
		return fmt.Errorf("content is required")
	}
	if len(content) > 20000 {
		return fmt.Errorf("content must not exceed 20000 characters")
	}
	return nil
}
