package server

import (
	"context"
	"time"

	"techblog/internal/middleware"
	"techblog/internal/models"

	"github.com/gofiber/fiber/v2"
)

// sessionCookieName is the cookie carrying the opaque session token.
const sessionCookieName = "session_token"

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// currentSession resolves the request's session cookie to a live session.
// Returns (nil, nil) when no cookie is present or the token is unknown or
// expired; the session is not re-validated against the users table.
func (s *Server) currentSession(c *fiber.Ctx) (*models.Session, error) {
	token := c.Cookies(sessionCookieName)
	if token == "" {
		return nil, nil
	}
	return s.sessions.Lookup(c.Context(), token)
}

// SessionRequired returns middleware that rejects requests without an active
// session. On success the session's user ID and username are stored in locals
// and the user ID is synced into the request context for logging.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := s.currentSession(c)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if session == nil || !session.IsLoggedIn {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}

		c.Locals("userID", session.UserID)
		c.Locals("username", session.Username)

		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, session.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}
