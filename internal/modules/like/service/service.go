package like

import (
	"context"

	likeDto "anoa.com/photoshare/internal/modules/like/dto"
	likeRepo "anoa.com/photoshare/internal/modules/like/repository"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	"anoa.com/photoshare/pkg/identity"
	"github.com/google/uuid"
)

type LikeService interface {
	// ToggleLike flips the membership of actor in the liking users of the post or comment.
	// Likes produce no notification.
	ToggleLike(ctx context.Context, actor identity.Identity, refType string, refID uuid.UUID) (*likeDto.LikeToggleResponse, error)
	TotalLikes(ctx context.Context, refType string, refID uuid.UUID) (int64, error)
}

type likeService struct {
	repo       likeRepo.LikeRepository
	transactor database.Transactor
}

func NewLikeService(repo likeRepo.LikeRepository, transactor database.Transactor) LikeService {
	return &likeService{
		repo:       repo,
		transactor: transactor,
	}
}

func (s *likeService) ToggleLike(ctx context.Context, actor identity.Identity, refType string, refID uuid.UUID) (*likeDto.LikeToggleResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	resp := &likeDto.LikeToggleResponse{}
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.repo.TargetExists(ctx, refID, refType)
		if err != nil {
			return err
		}
		if !exists {
			return apperror.NotFound(refType)
		}

		liked, err := s.repo.Toggle(ctx, actor.UserID, refID, refType)
		if err != nil {
			return err
		}
		resp.State = likeDto.StateUnliked
		if liked {
			resp.State = likeDto.StateLiked
		}

		resp.TotalLikes, err = s.repo.CountByReference(ctx, refID, refType)
		return err
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *likeService) TotalLikes(ctx context.Context, refType string, refID uuid.UUID) (int64, error) {
	return s.repo.CountByReference(ctx, refID, refType)
}
