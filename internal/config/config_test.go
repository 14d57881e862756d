package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Port:            "3001",
		Env:             "test",
		DBDriver:        "sqlite",
		SQLitePath:      "techblog.db",
		DBPassword:      "password",
		SessionTTLHours: 24,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid test config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"zero session TTL", func(c *Config) { c.SessionTTLHours = 0 }, true},
		{"negative session TTL", func(c *Config) { c.SessionTTLHours = -1 }, true},
		{"postgres driver", func(c *Config) { c.DBDriver = "postgres" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		driver      string
		dbPassword  string
		expectError bool
	}{
		{"production with sqlite", "production", "sqlite", "s3cure-pass", true},
		{"prod with sqlite", "prod", "sqlite", "s3cure-pass", true},
		{"production with default password", "production", "postgres", "password", true},
		{"production with empty password", "production", "postgres", "", true},
		{"production with strong password", "production", "postgres", "s3cure-pass", false},
		{"development with sqlite", "development", "sqlite", "password", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBDriver = tt.driver
			c.DBPassword = tt.dbPassword

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
