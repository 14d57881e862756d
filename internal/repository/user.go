// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"techblog/internal/auth"
	"techblog/internal/cache"
	"techblog/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
//
// Password hashing happens inside Create and Update, not in the handlers:
// any path that sets the password field goes through bcrypt before the row
// is written.
type UserRepository interface {
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	GetByIDWithAssociations(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uint, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// List returns users with the password column never selected. A limit of
// zero or less means no limit, so the collection can be enumerated whole.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	q := r.db.WithContext(ctx).
		Select(models.PublicColumns).
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Create hashes the user's plaintext password and persists the row.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	hashed, err := auth.HashPassword(user.Password)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = hashed

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByIDWithAssociations loads a user together with their posts and
// comments, cache-aside under the user key. The password column is never
// selected, so it never reaches the cache either. The preloads select only
// the columns the profile exposes; user_id stays in the select because GORM
// maps preloaded rows by foreign key.
func (r *userRepository) GetByIDWithAssociations(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).
			Select(models.PublicColumns).
			Preload("Posts", func(db *gorm.DB) *gorm.DB {
				return db.Select("id", "title", "content", "created_at", "user_id").
					Order("created_at DESC")
			}).
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Select("id", "content", "created_at", "user_id").
					Order("created_at DESC")
			}).
			First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}

		// The associations serialize as arrays even when empty.
		if user.Posts == nil {
			user.Posts = []models.Post{}
		}
		if user.Comments == nil {
			user.Comments = []models.Comment{}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail reads the full row including the password hash; it exists for
// credential verification only. Returns (nil, nil) when no user matches so
// the caller cannot distinguish this from a wrong password by error shape.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// Update applies a partial field map and returns the number of rows affected.
// Zero rows means the user does not exist. A password in the map is re-hashed
// before the write.
func (r *userRepository) Update(ctx context.Context, id uint, fields map[string]any) (int64, error) {
	if raw, ok := fields["password"]; ok {
		plain, isString := raw.(string)
		if !isString {
			return 0, models.NewValidationError("password must be a string")
		}
		hashed, err := auth.HashPassword(plain)
		if err != nil {
			return 0, models.NewInternalError(err)
		}
		fields["password"] = hashed
	}

	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}

	cache.InvalidateUser(ctx, id)
	return res.RowsAffected, nil
}

// Delete removes a user and everything they own in one transaction: comments
// on the user's posts (including other users' comments), the user's own
// comments, the user's posts, then the user row. The declared FK constraints
// cascade on postgres as well; doing it explicitly keeps sqlite identical.
//
// Cached documents touched by the cascade are invalidated afterwards: the
// user's own profile, each removed post, every post the user had commented
// on, and the profiles of users whose comments lived on the removed posts.
func (r *userRepository) Delete(ctx context.Context, id uint) (int64, error) {
	var (
		affected         int64
		ownedPostIDs     []uint
		commentedPostIDs []uint
		affectedUserIDs  []uint
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("user_id = ?", id).
			Pluck("id", &ownedPostIDs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).
			Where("user_id = ?", id).
			Distinct().Pluck("post_id", &commentedPostIDs).Error; err != nil {
			return err
		}
		if len(ownedPostIDs) > 0 {
			if err := tx.Model(&models.Comment{}).
				Where("post_id IN ?", ownedPostIDs).
				Distinct().Pluck("user_id", &affectedUserIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", ownedPostIDs).
				Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, id)
	for _, postID := range ownedPostIDs {
		cache.InvalidatePost(ctx, postID)
	}
	for _, postID := range commentedPostIDs {
		cache.InvalidatePost(ctx, postID)
	}
	for _, userID := range affectedUserIDs {
		cache.InvalidateUser(ctx, userID)
	}
	return affected, nil
}

// IsUniqueConstraintError checks if a DB error is a unique constraint violation.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; sqlite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
