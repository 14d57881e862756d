package server

import (
	"techblog/internal/models"
	"techblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:id/comments (public)
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	// Resolve the post first so a missing post is a 404, not an empty list.
	if _, err := s.postRepo.GetByID(c.Context(), postID); err != nil {
		return models.RespondWithError(c, errStatus(err), err)
	}

	comments, err := s.commentRepo.ListByPost(c.Context(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments (session required)
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	postID, err := s.parseID(c)
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if vErr := validation.ValidateContent(req.Content); vErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(vErr.Error()))
	}

	// The owning post must exist at creation time.
	if _, pErr := s.postRepo.GetByID(c.Context(), postID); pErr != nil {
		return models.RespondWithError(c, errStatus(pErr), pErr)
	}

	comment := &models.Comment{
		Content: req.Content,
		UserID:  userID,
		PostID:  postID,
	}

	if cErr := s.commentRepo.Create(c.Context(), comment); cErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, cErr)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}
