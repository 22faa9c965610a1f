package repository

import (
	"context"

	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean no restriction.
type PostFilter struct {
	AuthorIDs []uuid.UUID
	// OnlyAuthors restricts the listing to AuthorIDs even when the slice is empty.
	OnlyAuthors bool
	UserID      *uuid.UUID
	Hashtag     string
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error)
	FindAll(ctx context.Context, filter PostFilter, offset, limit int) ([]*entity.Post, int64, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Post, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	ImageURLsByUserID(ctx context.Context, userID uuid.UUID) ([]string, error)
	IDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, post *entity.Post) error
	// Delete removes the post with its comments, likes, hashtag links and notifications.
	Delete(ctx context.Context, id uuid.UUID) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	return database.Conn(ctx, r.db).Omit("Hashtags").Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	var post entity.Post
	if err := database.Conn(ctx, r.db).
		Preload("User").
		Preload("User.Profile").
		Preload("Hashtags").
		Where("id = ?", id).
		First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindAll(ctx context.Context, filter PostFilter, offset, limit int) ([]*entity.Post, int64, error) {
	var posts []*entity.Post
	var total int64

	query := database.Conn(ctx, r.db).Model(&entity.Post{})

	if filter.OnlyAuthors || len(filter.AuthorIDs) > 0 {
		if len(filter.AuthorIDs) == 0 {
			return []*entity.Post{}, 0, nil
		}
		query = query.Where("posts.user_id IN ?", filter.AuthorIDs)
	}
	if filter.UserID != nil {
		query = query.Where("posts.user_id = ?", *filter.UserID)
	}
	if filter.Hashtag != "" {
		query = query.
			Joins("JOIN post_hashtags ON post_hashtags.post_id = posts.id").
			Joins("JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id").
			Where("hashtags.name = ?", filter.Hashtag)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("User").
		Preload("User.Profile").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Post, error) {
	if len(ids) == 0 {
		return []*entity.Post{}, nil
	}

	var posts []*entity.Post
	if err := database.Conn(ctx, r.db).
		Preload("User").
		Preload("User.Profile").
		Where("id IN ?", ids).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	// keep the order of ids
	byID := make(map[uuid.UUID]*entity.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*entity.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *postRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *postRepository) ImageURLsByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var urls []string
	err := database.Conn(ctx, r.db).Model(&entity.Post{}).Where("user_id = ?", userID).Pluck("image_url", &urls).Error
	return urls, err
}

func (r *postRepository) IDsByUserID(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := database.Conn(ctx, r.db).Model(&entity.Post{}).Where("user_id = ?", userID).Pluck("id", &ids).Error
	return ids, err
}

func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	return database.Conn(ctx, r.db).
		Model(&entity.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			"image_url":   post.ImageURL,
			"description": post.Description,
		}).Error
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		comments := tx.Model(&entity.Comment{}).Select("id").Where("post_id = ?", id)

		if err := tx.Where("post_id = ? OR comment_id IN (?)", id, comments).Delete(&entity.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reference_type = ? AND reference_id = ?", entity.ReferencePost, id).Delete(&entity.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reference_type = ? AND reference_id IN (?)", entity.ReferenceComment, comments).Delete(&entity.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&entity.PostHashtag{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Post{}).Error
	})
}
