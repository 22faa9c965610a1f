package repository

import (
	"context"
	"net/http"

	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxToggleAttempts = 3

// ErrToggleContended is returned when concurrent toggles keep flipping the edge under this call.
var ErrToggleContended = apperror.New(http.StatusConflict, "follow toggle contended, try again", apperror.ErrConflict)

type FollowRepository interface {
	// Toggle removes the edge follower -> following when it exists and creates it otherwise.
	// created reports whether this call inserted the edge.
	Toggle(ctx context.Context, followerID, followingID uuid.UUID) (created bool, err error)
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	FollowersOf(ctx context.Context, userID uuid.UUID) ([]entity.User, error)
	FollowingOf(ctx context.Context, userID uuid.UUID) ([]entity.User, error)
	FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error)
	CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Toggle(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	db := database.Conn(ctx, r.db)

	// An insert that affects no row lost to a concurrent follow, so the edge is removed instead.
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		deleted := db.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&entity.Follow{})
		if deleted.Error != nil {
			return false, deleted.Error
		}
		if deleted.RowsAffected > 0 {
			return false, nil
		}

		inserted := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.Follow{FollowerID: followerID, FollowingID: followingID})
		if inserted.Error != nil {
			return false, inserted.Error
		}
		if inserted.RowsAffected > 0 {
			return true, nil
		}
	}
	return false, ErrToggleContended
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&entity.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) FollowersOf(ctx context.Context, userID uuid.UUID) ([]entity.User, error) {
	var users []entity.User
	err := database.Conn(ctx, r.db).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Preload("Profile").
		Find(&users).Error
	return users, err
}

func (r *followRepository) FollowingOf(ctx context.Context, userID uuid.UUID) ([]entity.User, error) {
	var users []entity.User
	err := database.Conn(ctx, r.db).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Preload("Profile").
		Find(&users).Error
	return users, err
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := database.Conn(ctx, r.db).
		Model(&entity.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}
