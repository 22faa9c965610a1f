package repository

import (
	"context"

	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	FindByPostID(ctx context.Context, postID uuid.UUID) ([]*entity.Comment, error)
	CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	UpdateText(ctx context.Context, id uuid.UUID, text string) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return database.Conn(ctx, r.db).Omit("Post", "User").Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	var comment entity.Comment
	if err := database.Conn(ctx, r.db).
		Preload("User").
		Preload("User.Profile").
		Where("id = ?", id).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByPostID(ctx context.Context, postID uuid.UUID) ([]*entity.Comment, error) {
	var comments []*entity.Comment
	err := database.Conn(ctx, r.db).
		Preload("User").
		Preload("User.Profile").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type result struct {
		PostID uuid.UUID
		Count  int64
	}
	var results []result

	err := database.Conn(ctx, r.db).
		Model(&entity.Comment{}).
		Select("post_id, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		counts[res.PostID] = res.Count
	}
	return counts, nil
}

func (r *commentRepository) UpdateText(ctx context.Context, id uuid.UUID, text string) error {
	return database.Conn(ctx, r.db).
		Model(&entity.Comment{}).
		Where("id = ?", id).
		Update("text", text).Error
}
