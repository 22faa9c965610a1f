package service

import (
	"context"
	"errors"

	"anoa.com/photoshare/internal/entity"
	followDto "anoa.com/photoshare/internal/modules/follow/dto"
	followRepo "anoa.com/photoshare/internal/modules/follow/repository"
	notification "anoa.com/photoshare/internal/modules/notification/service"
	userDto "anoa.com/photoshare/internal/modules/user/dto"
	userRepo "anoa.com/photoshare/internal/modules/user/repository"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	commonDto "anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FollowCounts struct {
	Followers int64
	Following int64
}

type FollowService interface {
	ToggleFollow(ctx context.Context, actor identity.Identity, username string) (*followDto.FollowToggleResponse, error)
	Followers(ctx context.Context, username string) (*followDto.FollowListResponse, error)
	Following(ctx context.Context, username string) (*followDto.FollowListResponse, error)
	Counts(ctx context.Context, userID uuid.UUID) (FollowCounts, error)
	// IsFollowing is false for the anonymous viewer.
	IsFollowing(ctx context.Context, viewer identity.Identity, userID uuid.UUID) (bool, error)
	FollowingIDs(ctx context.Context, viewer identity.Identity) ([]uuid.UUID, error)
}

type followService struct {
	repo          followRepo.FollowRepository
	userRepo      userRepo.UserRepository
	dispatcher    notification.Dispatcher
	transactor    database.Transactor
	defaultAvatar string
}

func NewFollowService(
	repo followRepo.FollowRepository,
	userRepo userRepo.UserRepository,
	dispatcher notification.Dispatcher,
	transactor database.Transactor,
	defaultAvatar string,
) FollowService {
	return &followService{
		repo:          repo,
		userRepo:      userRepo,
		dispatcher:    dispatcher,
		transactor:    transactor,
		defaultAvatar: defaultAvatar,
	}
}

func (s *followService) ToggleFollow(ctx context.Context, actor identity.Identity, username string) (*followDto.FollowToggleResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	target, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.UserID {
		return nil, apperror.Validation("you cannot follow yourself")
	}

	resp := &followDto.FollowToggleResponse{}
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.repo.Toggle(ctx, actor.UserID, target.ID)
		if err != nil {
			return err
		}

		resp.State = followDto.StateUnfollowed
		if created {
			resp.State = followDto.StateFollowed
			if err := s.dispatcher.OnFollowCreated(ctx, actor.UserID, target.ID); err != nil {
				return err
			}
		}

		resp.FollowersCount, err = s.repo.CountFollowers(ctx, target.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *followService) Followers(ctx context.Context, username string) (*followDto.FollowListResponse, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.FollowersOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.toListResponse(users), nil
}

func (s *followService) Following(ctx context.Context, username string) (*followDto.FollowListResponse, error) {
	user, err := s.findUser(ctx, username)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.FollowingOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.toListResponse(users), nil
}

func (s *followService) Counts(ctx context.Context, userID uuid.UUID) (FollowCounts, error) {
	var counts FollowCounts
	var err error

	if counts.Followers, err = s.repo.CountFollowers(ctx, userID); err != nil {
		return counts, err
	}
	if counts.Following, err = s.repo.CountFollowing(ctx, userID); err != nil {
		return counts, err
	}
	return counts, nil
}

func (s *followService) IsFollowing(ctx context.Context, viewer identity.Identity, userID uuid.UUID) (bool, error) {
	if !viewer.IsAuthenticated() {
		return false, nil
	}
	return s.repo.Exists(ctx, viewer.UserID, userID)
}

func (s *followService) FollowingIDs(ctx context.Context, viewer identity.Identity) ([]uuid.UUID, error) {
	if !viewer.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}
	return s.repo.FollowingIDs(ctx, viewer.UserID)
}

func (s *followService) findUser(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

func (s *followService) toListResponse(users []entity.User) *followDto.FollowListResponse {
	data := make([]commonDto.AuthorResponse, 0, len(users))
	for i := range users {
		data = append(data, userDto.NewAuthorResponse(&users[i], s.defaultAvatar))
	}
	return &followDto.FollowListResponse{Data: data, Total: len(data)}
}
