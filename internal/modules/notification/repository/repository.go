package repository

import (
	"context"

	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/pkg/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Notification, error)
	// ToggleRead flips is_read of the notification when it belongs to userID.
	// It reports false when no such notification exists.
	ToggleRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	return database.Conn(ctx, r.db).Create(notification).Error
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Preload("Actor").
		Preload("Actor.Profile").
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Notification{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *notificationRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.Notification, error) {
	var notification entity.Notification
	err := database.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Preload("Actor").
		Preload("Actor.Profile").
		First(&notification).Error
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ToggleRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result := database.Conn(ctx, r.db).
		Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", gorm.Expr("NOT is_read"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := database.Conn(ctx, r.db).
		Model(&entity.Notification{}).
		Where("user_id = ?", userID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entity.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&count).Error
	return count, err
}

// DeleteByUserID removes the notifications the user received or caused.
func (r *notificationRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return database.Conn(ctx, r.db).
		Where("user_id = ? OR actor_id = ?", userID, userID).
		Delete(&entity.Notification{}).Error
}
