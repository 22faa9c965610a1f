package repository

import (
	"context"

	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HashtagRepository interface {
	// Upsert returns the hashtag with the exact name, creating it when absent.
	Upsert(ctx context.Context, name string) (*entity.Hashtag, error)
	// Link ensures the (post, hashtag) association exists.
	Link(ctx context.Context, postID uuid.UUID, hashtagID uint) error
	FindByName(ctx context.Context, name string) (*entity.Hashtag, error)
	FindByPostID(ctx context.Context, postID uuid.UUID) ([]entity.Hashtag, error)
	SearchByName(ctx context.Context, text string, limit int) ([]entity.Hashtag, error)
}

type hashtagRepository struct {
	db *gorm.DB
}

func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db}
}

func (r *hashtagRepository) Upsert(ctx context.Context, name string) (*entity.Hashtag, error) {
	db := database.Conn(ctx, r.db)

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&entity.Hashtag{Name: name}).Error; err != nil {
		return nil, err
	}

	var hashtag entity.Hashtag
	if err := db.Where("name = ?", name).First(&hashtag).Error; err != nil {
		return nil, err
	}
	return &hashtag, nil
}

func (r *hashtagRepository) Link(ctx context.Context, postID uuid.UUID, hashtagID uint) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.PostHashtag{PostID: postID, HashtagID: hashtagID}).Error
}

func (r *hashtagRepository) FindByName(ctx context.Context, name string) (*entity.Hashtag, error) {
	var hashtag entity.Hashtag
	if err := database.Conn(ctx, r.db).Where("name = ?", name).First(&hashtag).Error; err != nil {
		return nil, err
	}
	return &hashtag, nil
}

func (r *hashtagRepository) FindByPostID(ctx context.Context, postID uuid.UUID) ([]entity.Hashtag, error) {
	var hashtags []entity.Hashtag
	err := database.Conn(ctx, r.db).
		Joins("JOIN post_hashtags ON post_hashtags.hashtag_id = hashtags.id").
		Where("post_hashtags.post_id = ?", postID).
		Order("hashtags.name ASC").
		Find(&hashtags).Error
	return hashtags, err
}

func (r *hashtagRepository) SearchByName(ctx context.Context, text string, limit int) ([]entity.Hashtag, error) {
	var hashtags []entity.Hashtag
	err := database.Conn(ctx, r.db).
		Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, database.ContainsPattern(text)).
		Order("name ASC").
		Limit(limit).
		Find(&hashtags).Error
	return hashtags, err
}
