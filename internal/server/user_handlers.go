package server

import (
	"context"
	"errors"
	"time"

	"techblog/internal/auth"
	"techblog/internal/models"
	"techblog/internal/repository"
	"techblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetUsers handles GET /api/users. Without an explicit limit the whole
// collection is returned; limit/offset page it when given.
func (s *Server) GetUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
				"error": "Request timeout",
			})
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(users)
}

// CreateUser handles POST /api/users. The password is hashed by the
// repository before persisting; registration does not log the user in.
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}

	// Storage faults, duplicate email included, surface as a generic server
	// error; the account routes do not distinguish them.
	if err := s.userRepo.Create(c.Context(), user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"message": "Successfully created new User!"})
}

// Login handles POST /api/users/login. Unknown email and wrong password
// produce identical responses so accounts cannot be enumerated.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Incorrect email/password",
		})
	}

	if !auth.CheckPassword(req.Password, user.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Incorrect email/password",
		})
	}

	// The session is only persisted after verification succeeds; a save
	// failure is a server error, not a logged-in user.
	session, err := s.sessions.Create(c.Context(), user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	s.setSessionCookie(c, session.Token, session.ExpiresAt)

	return c.JSON(fiber.Map{"message": "You are now logged in."})
}

// Logout handles POST /api/users/logout. 204 when an active session was
// destroyed, 404 when none existed. Both responses have empty bodies.
func (s *Server) Logout(c *fiber.Ctx) error {
	session, err := s.currentSession(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if session == nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if err := s.sessions.Destroy(c.Context(), session.Token); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	s.clearSessionCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUser handles GET /api/users/:id, returning the user with their posts
// and comments. The password is excluded at the query level.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByIDWithAssociations(c.Context(), id)
	if err != nil {
		if isNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Unable to find user by that id",
			})
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(user)
}

// UpdateUser handles PUT /api/users/:id with partial fields. A password in
// the payload is re-hashed by the repository. Zero rows affected is the
// not-found condition.
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	fields := map[string]any{}
	if req.Username != nil {
		if vErr := validation.ValidateUsername(*req.Username); vErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(vErr.Error()))
		}
		fields["username"] = *req.Username
	}
	if req.Email != nil {
		if vErr := validation.ValidateEmail(*req.Email); vErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(vErr.Error()))
		}
		fields["email"] = *req.Email
	}
	if req.Password != nil {
		if vErr := validation.ValidatePassword(*req.Password); vErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(vErr.Error()))
		}
		fields["password"] = *req.Password
	}

	if len(fields) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No updatable fields provided"))
	}

	updated, err := s.userRepo.Update(c.Context(), id, fields)
	if err != nil {
		return models.RespondWithError(c, errStatus(err), err)
	}
	if updated == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Unable to find user by that id",
		})
	}

	return c.JSON(fiber.Map{"updated": updated})
}

// DeleteUser handles DELETE /api/users/:id. The delete cascades to the
// user's posts and comments, and to other users' comments on those posts.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	deleted, err := s.userRepo.Delete(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if deleted == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Unable to find user by that id",
		})
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}
