// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"techblog/internal/auth"
	"techblog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password assigned to every seeded user.
const DefaultPassword = "Bl0gging!demo"

// Seeder creates demo users, posts and comments.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all rows in dependency order.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{
		&models.Session{},
		&models.Comment{},
		&models.Post{},
		&models.User{},
	} {
		if err := s.db.Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
	}
	return nil
}

// SeedUsers creates n users with the shared demo password.
func (s *Seeder) SeedUsers(n int) ([]models.User, error) {
	hashed, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		user := models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Password: hashed,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// SeedPosts creates n posts spread across the given users with a realistic
// created_at spread over the last maxDays days.
func (s *Seeder) SeedPosts(users []models.User, n, maxDays int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to own posts")
	}
	if maxDays <= 0 {
		maxDays = 90
	}

	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		owner := users[s.rng.Intn(len(users))]
		post := models.Post{
			Title:     gofakeit.Sentence(5),
			Content:   gofakeit.Paragraph(1, 3, 5, "\n"),
			UserID:    owner.ID,
			CreatedAt: s.timeWithin(maxDays),
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedComments creates n comments spread across users and posts.
func (s *Seeder) SeedComments(users []models.User, posts []models.Post, n int) error {
	if len(users) == 0 || len(posts) == 0 {
		return fmt.Errorf("no users or posts to comment on")
	}

	for i := 0; i < n; i++ {
		author := users[s.rng.Intn(len(users))]
		post := posts[s.rng.Intn(len(posts))]
		comment := models.Comment{
			Content:   gofakeit.Sentence(12),
			UserID:    author.ID,
			PostID:    post.ID,
			CreatedAt: post.CreatedAt.Add(time.Duration(1+s.rng.Intn(72)) * time.Hour),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) timeWithin(maxDays int) time.Time {
	daysBack := s.rng.Intn(maxDays)
	hoursBack := s.rng.Intn(24)
	minsBack := s.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}
