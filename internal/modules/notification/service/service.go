package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/photoshare/internal/entity"
	notifDto "anoa.com/photoshare/internal/modules/notification/dto"
	notifRepo "anoa.com/photoshare/internal/modules/notification/repository"
	userDto "anoa.com/photoshare/internal/modules/user/dto"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	commonDto "anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Dispatcher creates notifications as a side effect of social events. Its On* methods
// write through the transaction carried by ctx, so a notification commits or rolls
// back together with the follow or comment that triggered it.
type Dispatcher interface {
	OnFollowCreated(ctx context.Context, followerID, followingID uuid.UUID) error
	OnCommentCreated(ctx context.Context, comment *entity.Comment, postAuthorID uuid.UUID) error
}

type NotificationService interface {
	Dispatcher
	GetNotifications(ctx context.Context, recipient identity.Identity, filter commonDto.PageFilter) (*notifDto.NotificationListResponse, error)
	ToggleRead(ctx context.Context, recipient identity.Identity, id uuid.UUID) (*notifDto.NotificationResponse, error)
	MarkAllAsRead(ctx context.Context, recipient identity.Identity) error
	UnreadCount(ctx context.Context, recipient identity.Identity) (int64, error)
}

type notificationService struct {
	repo          notifRepo.NotificationRepository
	transactor    database.Transactor
	defaultAvatar string
}

func NewNotificationService(repo notifRepo.NotificationRepository, transactor database.Transactor, defaultAvatar string) NotificationService {
	return &notificationService{
		repo:          repo,
		transactor:    transactor,
		defaultAvatar: defaultAvatar,
	}
}

func (s *notificationService) OnFollowCreated(ctx context.Context, followerID, followingID uuid.UUID) error {
	if followerID == followingID {
		return nil
	}

	notification := &entity.Notification{
		UserID:  followingID,
		ActorID: followerID,
		Type:    entity.NotificationFollow,
		Message: entity.MessageStartedFollowing,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create follow notification: %w", err)
	}
	return nil
}

func (s *notificationService) OnCommentCreated(ctx context.Context, comment *entity.Comment, postAuthorID uuid.UUID) error {
	if comment.UserID == postAuthorID {
		return nil
	}

	postID := comment.PostID
	commentID := comment.ID
	notification := &entity.Notification{
		UserID:    postAuthorID,
		ActorID:   comment.UserID,
		PostID:    &postID,
		CommentID: &commentID,
		Type:      entity.NotificationComment,
		Message:   entity.MessageAddedComment,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("create comment notification: %w", err)
	}
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, recipient identity.Identity, filter commonDto.PageFilter) (*notifDto.NotificationListResponse, error) {
	if !recipient.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	offset := filter.Normalize()
	notifications, err := s.repo.GetByUserID(ctx, recipient.UserID, filter.Limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByUserID(ctx, recipient.UserID)
	if err != nil {
		return nil, err
	}

	data := make([]notifDto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		data = append(data, s.toResponse(&notifications[i]))
	}

	return &notifDto.NotificationListResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(filter, total),
	}, nil
}

func (s *notificationService) ToggleRead(ctx context.Context, recipient identity.Identity, id uuid.UUID) (*notifDto.NotificationResponse, error) {
	if !recipient.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	var notification *entity.Notification
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.repo.ToggleRead(ctx, id, recipient.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NotFound("notification")
		}
		notification, err = s.repo.FindByID(ctx, id, recipient.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("notification")
		}
		return nil, err
	}

	res := s.toResponse(notification)
	return &res, nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, recipient identity.Identity) error {
	if !recipient.IsAuthenticated() {
		return apperror.ErrUnauthorized
	}
	_, err := s.repo.MarkAllAsRead(ctx, recipient.UserID)
	return err
}

func (s *notificationService) UnreadCount(ctx context.Context, recipient identity.Identity) (int64, error) {
	if !recipient.IsAuthenticated() {
		return 0, apperror.ErrUnauthorized
	}
	return s.repo.CountUnread(ctx, recipient.UserID)
}

func (s *notificationService) toResponse(n *entity.Notification) notifDto.NotificationResponse {
	return notifDto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		IsRead:    n.IsRead,
		Actor:     userDto.NewAuthorResponse(n.Actor, s.defaultAvatar),
		PostID:    n.PostID,
		CommentID: n.CommentID,
		CreatedAt: n.CreatedAt,
	}
}
