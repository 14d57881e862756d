package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"techblog/internal/models"

	"gorm.io/gorm"
)

// ErrSessionNotFound is returned by Destroy when no row matches the token.
var ErrSessionNotFound = errors.New("session not found")

// session tokens are 32 random bytes, hex encoded
const sessionTokenBytes = 32

// SessionRepository persists login sessions in the relational store so they
// survive process restarts. Rows are created on login, never mutated, and
// destroyed on logout or lazily when found expired.
type SessionRepository interface {
	Create(ctx context.Context, userID uint, username string) (*models.Session, error)
	Lookup(ctx context.Context, token string) (*models.Session, error)
	Destroy(ctx context.Context, token string) error
}

type sessionRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSessionRepository returns a SessionRepository with the given session lifetime.
func NewSessionRepository(db *gorm.DB, ttl time.Duration) SessionRepository {
	return &sessionRepository{db: db, ttl: ttl}
}

// Create persists a new session and returns it. A persistence failure is
// returned as-is; the caller must treat it as a server fault rather than
// proceeding as logged in.
func (r *sessionRepository) Create(ctx context.Context, userID uint, username string) (*models.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	session := &models.Session{
		Token:      token,
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		ExpiresAt:  time.Now().Add(r.ttl),
	}

	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return session, nil
}

// Lookup resolves a token to its session. Returns (nil, nil) when the token
// is unknown; an expired row is deleted and reported the same way.
func (r *sessionRepository) Lookup(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}

	if time.Now().After(session.ExpiresAt) {
		// Lazy reaping; failure to delete does not resurrect the session.
		_ = r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
		return nil, nil
	}

	return &session, nil
}

// Destroy deletes the session row. ErrSessionNotFound reports that no active
// session existed for the token.
func (r *sessionRepository) Destroy(ctx context.Context, token string) error {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
