package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with underscore", "alice_b", false},
		{"valid with hyphen", "alice-b", false},
		{"valid with digits", "alice99", false},
		{"valid single character", "a", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 31), true},
		{"bare underscore", "_", true},
		{"invalid characters", "alice!", true},
		{"spaces", "alice b", true},
		{"leading underscore", "_alice", true},
		{"trailing hyphen", "alice-", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "a@x.com", false},
		{"valid with plus", "a+tag@x.co.uk", false},
		{"missing at", "ax.com", true},
		{"missing domain", "a@", true},
		{"missing tld", "a@x", true},
		{"too long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "longenough", false},
		{"minimum length", "secret", false},
		{"too short", "12345", true},
		{"at bcrypt limit", strings.Repeat("x", 72), false},
		{"over bcrypt limit", strings.Repeat("x", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePostFields(t *testing.T) {
	assert.NoError(t, ValidatePostTitle("A reasonable title"))
	assert.Error(t, ValidatePostTitle(""))
	assert.Error(t, ValidatePostTitle(strings.Repeat("t", 201)))

	assert.NoError(t, ValidateContent("body"))
	assert.Error(t, ValidateContent(""))
	assert.Error(t, ValidateContent(strings.Repeat("c", 20001)))
}
