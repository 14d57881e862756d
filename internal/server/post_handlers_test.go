package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"techblog/internal/config"
	"techblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// withSession installs middleware that fakes an authenticated request.
func withSession(app *fiber.App, userID uint, username string) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("username", username)
		return c.Next()
	})
}

func TestGetPosts(t *testing.T) {
	mockPosts := new(MockPostRepository)
	mockPosts.On("List", mock.Anything, 20, 0).Return([]models.Post{
		{ID: 2, Title: "newer", UserID: 1, User: &models.User{ID: 1, Username: "alice"}},
		{ID: 1, Title: "older", UserID: 1, User: &models.User{ID: 1, Username: "alice"}},
	}, nil)

	s := &Server{config: &config.Config{}, postRepo: mockPosts}
	app := fiber.New()
	app.Get("/api/posts", s.GetPosts)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"title":"newer"`)
	assert.NotContains(t, string(raw), "password")
}

func TestGetPost(t *testing.T) {
	tests := []struct {
		name           string
		idParam        string
		mockSetup      func(repo *MockPostRepository)
		expectedStatus int
	}{
		{
			name:    "Success with comments",
			idParam: "1",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByIDWithComments", mock.Anything, uint(1)).Return(&models.Post{
					ID:     1,
					Title:  "Thread",
					UserID: 1,
					Comments: []models.Comment{
						{ID: 1, PostID: 1, UserID: 2, Content: "hi"},
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid ID",
			idParam:        "zero",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:    "Not found",
			idParam: "99",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByIDWithComments", mock.Anything, uint(99)).
					Return(nil, models.NewNotFoundError("Post", 99))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPosts := new(MockPostRepository)
			if tt.mockSetup != nil {
				tt.mockSetup(mockPosts)
			}
			s := &Server{config: &config.Config{}, postRepo: mockPosts}
			app := fiber.New()
			app.Get("/api/posts/:id", s.GetPost)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/"+tt.idParam, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			_ = resp.Body.Close()
		})
	}
}

func TestCreatePost(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPosts := new(MockPostRepository)
		mockPosts.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
			return p.Title == "Hello" && p.UserID == 7
		})).Return(nil)

		s := &Server{config: &config.Config{}, postRepo: mockPosts}
		app := fiber.New()
		withSession(app, 7, "alice")
		app.Post("/api/posts", s.CreatePost)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts",
			fiber.Map{"title": "Hello", "content": "First post"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
		mockPosts.AssertExpectations(t)
	})

	t.Run("Validation failure", func(t *testing.T) {
		mockPosts := new(MockPostRepository)
		s := &Server{config: &config.Config{}, postRepo: mockPosts}
		app := fiber.New()
		withSession(app, 7, "alice")
		app.Post("/api/posts", s.CreatePost)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts",
			fiber.Map{"title": "", "content": "body"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		_ = resp.Body.Close()
		mockPosts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Rejected without a session", func(t *testing.T) {
		mockSessions := new(MockSessionRepository)
		s := &Server{config: &config.Config{}, sessions: mockSessions}
		app := fiber.New()
		app.Post("/api/posts", s.SessionRequired(), s.CreatePost)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts",
			fiber.Map{"title": "Hello", "content": "body"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestUpdatePost_OwnerOnly(t *testing.T) {
	existing := &models.Post{ID: 1, Title: "Thread", UserID: 7}

	t.Run("Owner can update", func(t *testing.T) {
		mockPosts := new(MockPostRepository)
		mockPosts.On("GetByID", mock.Anything, uint(1)).Return(existing, nil)
		mockPosts.On("Update", mock.Anything, uint(1), map[string]any{"title": "Renamed"}).
			Return(int64(1), nil)

		s := &Server{config: &config.Config{}, postRepo: mockPosts}
		app := fiber.New()
		withSession(app, 7, "alice")
		app.Put("/api/posts/:id", s.UpdatePost)

		resp, err := app.Test(jsonRequest(http.MethodPut, "/api/posts/1",
			fiber.Map{"title": "Renamed"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
		mockPosts.AssertExpectations(t)
	})

	t.Run("Someone else gets 403", func(t *testing.T) {
		mockPosts := new(MockPostRepository)
		mockPosts.On("GetByID", mock.Anything, uint(1)).Return(existing, nil)

		s := &Server{config: &config.Config{}, postRepo: mockPosts}
		app := fiber.New()
		withSession(app, 8, "mallory")
		app.Put("/api/posts/:id", s.UpdatePost)

		resp, err := app.Test(jsonRequest(http.MethodPut, "/api/posts/1",
			fiber.Map{"title": "Hijacked"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
		mockPosts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	existing := &models.Post{ID: 1, Title: "Thread", UserID: 7}

	t.Run("Owner can delete", func(t *testing.T) {
		mockPosts := new(MockPostRepository)
		mockPosts.On("GetByID", mock.Anything, uint(1)).Return(existing, nil)
		mockPosts.On("Delete", mock.Anything, uint(1)).Return(int64(1), nil)

		s := &Server{config: &config.Config{}, postRepo: mockPosts}
		app := fiber.New()
		withSession(app, 7, "alice")
		app.Delete("/api/posts/:id", s.DeletePost)

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
		mockPosts.AssertExpectations(t)
	})

	t.Run("Someone else gets 403", func(t *testing.T) {
		mockPosts := new(MockPostRepository)
		mockPosts.On("GetByID", mock.Anything, uint(1)).Return(existing, nil)

		s := &Server{config: &config.Config{}, postRepo: mockPosts}
		app := fiber.New()
		withSession(app, 8, "mallory")
		app.Delete("/api/posts/:id", s.DeletePost)

		resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/posts/1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
		mockPosts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestSessionRequired(t *testing.T) {
	okHandler := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"userID":   c.Locals("userID"),
			"username": c.Locals("username"),
		})
	}

	t.Run("Valid session passes through", func(t *testing.T) {
		mockSessions := new(MockSessionRepository)
		mockSessions.On("Lookup", mock.Anything, "tok123").Return(&models.Session{
			Token:      "tok123",
			UserID:     7,
			Username:   "alice",
			IsLoggedIn: true,
			ExpiresAt:  time.Now().Add(time.Hour),
		}, nil)

		s := &Server{config: &config.Config{}, sessions: mockSessions}
		app := fiber.New()
		app.Get("/protected", s.SessionRequired(), okHandler)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "tok123"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(7), body["userID"])
		assert.Equal(t, "alice", body["username"])
	})

	t.Run("Missing cookie is 401", func(t *testing.T) {
		mockSessions := new(MockSessionRepository)
		s := &Server{config: &config.Config{}, sessions: mockSessions}
		app := fiber.New()
		app.Get("/protected", s.SessionRequired(), okHandler)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Unknown token is 401", func(t *testing.T) {
		mockSessions := new(MockSessionRepository)
		mockSessions.On("Lookup", mock.Anything, "stale").Return(nil, nil)

		s := &Server{config: &config.Config{}, sessions: mockSessions}
		app := fiber.New()
		app.Get("/protected", s.SessionRequired(), okHandler)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "stale"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("Store fault is 500", func(t *testing.T) {
		mockSessions := new(MockSessionRepository)
		mockSessions.On("Lookup", mock.Anything, "tok123").
			Return(nil, models.NewInternalError(assert.AnError))

		s := &Server{config: &config.Config{}, sessions: mockSessions}
		app := fiber.New()
		app.Get("/protected", s.SessionRequired(), okHandler)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: "tok123"})

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		_ = resp.Body.Close()
	})
}
