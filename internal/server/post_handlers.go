package server

import (
	"techblog/internal/models"
	"techblog/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts (public)
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.postRepo.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id (public), returning the post with its
// comments and their authors.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByIDWithComments(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, errStatus(err), err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /api/posts (session required)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidatePostTitle(req.Title); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateContent(req.Content); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	post := &models.Post{
		Title:   req.Title,
		Content: req.Content,
		UserID:  userID,
	}

	if err := s.postRepo.Create(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id (owner only)
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, errStatus(err), err)
	}
	if post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only edit your own posts"))
	}

	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	fields := map[string]any{}
	if req.Title != nil {
		if vErr := validation.ValidatePostTitle(*req.Title); vErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(vErr.Error()))
		}
		fields["title"] = *req.Title
	}
	if req.Content != nil {
		if vErr := validation.ValidateContent(*req.Content); vErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(vErr.Error()))
		}
		fields["content"] = *req.Content
	}

	if len(fields) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No updatable fields provided"))
	}

	updated, err := s.postRepo.Update(c.Context(), id, fields)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if updated == 0 {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", id))
	}

	return c.JSON(fiber.Map{"updated": updated})
}

// DeletePost handles DELETE /api/posts/:id (owner only). Comments on the
// post are removed in the same transaction.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c)
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, errStatus(err), err)
	}
	if post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewUnauthorizedError("You can only delete your own posts"))
	}

	deleted, err := s.postRepo.Delete(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if deleted == 0 {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", id))
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}
