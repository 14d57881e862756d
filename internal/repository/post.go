package repository

import (
	"context"
	"errors"

	"techblog/internal/cache"
	"techblog/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDWithComments(ctx context.Context, id uint) (*models.Post, error)
	Update(ctx context.Context, id uint, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id uint) (int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create persists the post and invalidates the owner's cached profile, which
// lists their posts.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, post.UserID)
	return nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select(models.PublicColumns)
		}).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// GetByID is the uncached single-row read used for existence and ownership
// checks before writes; going to the store keeps those checks current.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// GetByIDWithComments loads the post page document, cache-aside under the
// post key.
func (r *postRepository) GetByIDWithComments(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post

	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		if err := r.db.WithContext(ctx).
			Preload("User", func(db *gorm.DB) *gorm.DB {
				return db.Select(models.PublicColumns)
			}).
			Preload("Comments", func(db *gorm.DB) *gorm.DB {
				return db.Order("created_at ASC")
			}).
			Preload("Comments.User", func(db *gorm.DB) *gorm.DB {
				return db.Select(models.PublicColumns)
			}).
			First(&post, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}

		if post.Comments == nil {
			post.Comments = []models.Comment{}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update applies a partial field map. Both the cached post page and the
// owner's cached profile carry the edited fields, so both are invalidated.
func (r *postRepository) Update(ctx context.Context, id uint, fields map[string]any) (int64, error) {
	var ownerID uint
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Pluck("user_id", &ownerID).Error; err != nil {
		return 0, models.NewInternalError(err)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}

	cache.InvalidatePost(ctx, id)
	if ownerID != 0 {
		cache.InvalidateUser(ctx, ownerID)
	}
	return res.RowsAffected, nil
}

// Delete removes the post and its comments in one transaction, then
// invalidates the post page, the owner's profile, and the profiles of the
// users whose comments were removed with the post.
func (r *postRepository) Delete(ctx context.Context, id uint) (int64, error) {
	var (
		affected         int64
		ownerID          uint
		commenterUserIDs []uint
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("id = ?", id).
			Pluck("user_id", &ownerID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ?", id).
			Distinct().Pluck("user_id", &commenterUserIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, id)
	if ownerID != 0 {
		cache.InvalidateUser(ctx, ownerID)
	}
	for _, userID := range commenterUserIDs {
		cache.InvalidateUser(ctx, userID)
	}
	return affected, nil
}
