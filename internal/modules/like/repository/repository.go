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

// ErrToggleContended is returned when concurrent toggles keep flipping the like under this call.
var ErrToggleContended = apperror.New(http.StatusConflict, "like toggle contended, try again", apperror.ErrConflict)

type LikeRepository interface {
	// Toggle removes the like of userID on the reference when present and adds it otherwise.
	// liked reports the membership after the call.
	Toggle(ctx context.Context, userID, refID uuid.UUID, refType string) (liked bool, err error)
	TargetExists(ctx context.Context, refID uuid.UUID, refType string) (bool, error)
	CountByReference(ctx context.Context, refID uuid.UUID, refType string) (int64, error)
	CountByReferences(ctx context.Context, refIDs []uuid.UUID, refType string) (map[uuid.UUID]int64, error)
	LikedReferences(ctx context.Context, userID uuid.UUID, refIDs []uuid.UUID, refType string) (map[uuid.UUID]bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Toggle(ctx context.Context, userID, refID uuid.UUID, refType string) (bool, error) {
	db := database.Conn(ctx, r.db)

	// An insert that affects no row lost to a concurrent like, so the like is removed instead.
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		deleted := db.Where("user_id = ? AND reference_id = ? AND reference_type = ?", userID, refID, refType).
			Delete(&entity.Like{})
		if deleted.Error != nil {
			return false, deleted.Error
		}
		if deleted.RowsAffected > 0 {
			return false, nil
		}

		inserted := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.Like{UserID: userID, ReferenceID: refID, ReferenceType: refType})
		if inserted.Error != nil {
			return false, inserted.Error
		}
		if inserted.RowsAffected > 0 {
			return true, nil
		}
	}
	return false, ErrToggleContended
}

func (r *likeRepository) TargetExists(ctx context.Context, refID uuid.UUID, refType string) (bool, error) {
	var model any
	switch refType {
	case entity.ReferencePost:
		model = &entity.Post{}
	case entity.ReferenceComment:
		model = &entity.Comment{}
	default:
		return false, nil
	}

	var count int64
	err := database.Conn(ctx, r.db).Model(model).Where("id = ?", refID).Count(&count).Error
	return count > 0, err
}

func (r *likeRepository) CountByReference(ctx context.Context, refID uuid.UUID, refType string) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&entity.Like{}).
		Where("reference_id = ? AND reference_type = ?", refID, refType).
		Count(&count).Error
	return count, err
}

func (r *likeRepository) CountByReferences(ctx context.Context, refIDs []uuid.UUID, refType string) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(refIDs))
	if len(refIDs) == 0 {
		return counts, nil
	}

	type result struct {
		ReferenceID uuid.UUID
		Count       int64
	}
	var results []result

	err := database.Conn(ctx, r.db).
		Model(&entity.Like{}).
		Select("reference_id, count(*) as count").
		Where("reference_id IN ? AND reference_type = ?", refIDs, refType).
		Group("reference_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		counts[res.ReferenceID] = res.Count
	}
	return counts, nil
}

func (r *likeRepository) LikedReferences(ctx context.Context, userID uuid.UUID, refIDs []uuid.UUID, refType string) (map[uuid.UUID]bool, error) {
	liked := make(map[uuid.UUID]bool)
	if len(refIDs) == 0 {
		return liked, nil
	}

	var ids []uuid.UUID
	err := database.Conn(ctx, r.db).
		Model(&entity.Like{}).
		Where("user_id = ? AND reference_id IN ? AND reference_type = ?", userID, refIDs, refType).
		Pluck("reference_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
