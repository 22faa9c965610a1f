package profile

import (
	"context"
	"errors"
	"log"
	"path"
	"strings"

	"anoa.com/photoshare/internal/entity"
	follow "anoa.com/photoshare/internal/modules/follow/service"
	post "anoa.com/photoshare/internal/modules/post/service"
	profileDto "anoa.com/photoshare/internal/modules/profile/dto"
	search "anoa.com/photoshare/internal/modules/search/service"
	userDto "anoa.com/photoshare/internal/modules/user/dto"
	userRepo "anoa.com/photoshare/internal/modules/user/repository"
	"anoa.com/photoshare/pkg/apperror"
	commonDto "anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/identity"
	"anoa.com/photoshare/pkg/storage"
	"anoa.com/photoshare/pkg/validator"
	"gorm.io/gorm"
)

type ProfileService interface {
	GetProfileByUsername(ctx context.Context, viewer identity.Identity, username string, filter commonDto.PageFilter) (*profileDto.PublicProfileResponse, error)
	// GetCurrentProfile creates the profile of the actor when it does not exist yet.
	GetCurrentProfile(ctx context.Context, actor identity.Identity) (*profileDto.CurrentProfileResponse, error)
	UpdateProfile(ctx context.Context, actor identity.Identity, input profileDto.UpdateProfileInput, avatar *commonDto.ImageFile) (*profileDto.CurrentProfileResponse, error)
}

type profileService struct {
	repo          userRepo.UserRepository
	postService   post.PostService
	followService follow.FollowService
	imageStorage  storage.ImageStorage
	meili         search.MeiliSearchService
	uploadFolder  string
	defaultAvatar string
}

func NewProfileService(
	repo userRepo.UserRepository,
	postService post.PostService,
	followService follow.FollowService,
	imageStorage storage.ImageStorage,
	meili search.MeiliSearchService,
	uploadFolder string,
	defaultAvatar string,
) ProfileService {
	return &profileService{
		repo:          repo,
		postService:   postService,
		followService: followService,
		imageStorage:  imageStorage,
		meili:         meili,
		uploadFolder:  uploadFolder,
		defaultAvatar: defaultAvatar,
	}
}

func (s *profileService) GetProfileByUsername(ctx context.Context, viewer identity.Identity, username string, filter commonDto.PageFilter) (*profileDto.PublicProfileResponse, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}

	posts, err := s.postService.GetByUser(ctx, viewer, user.ID, filter)
	if err != nil {
		return nil, err
	}

	counts, err := s.followService.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	isFollowed := false
	if viewer.UserID != user.ID {
		if isFollowed, err = s.followService.IsFollowing(ctx, viewer, user.ID); err != nil {
			return nil, err
		}
	}

	return &profileDto.PublicProfileResponse{
		User:           userDto.NewAuthorResponse(user, s.defaultAvatar),
		PostsCount:     posts.Meta.TotalItems,
		FollowersCount: counts.Followers,
		FollowingCount: counts.Following,
		IsFollowed:     isFollowed,
		Posts:          posts.Data,
		Meta:           posts.Meta,
	}, nil
}

func (s *profileService) GetCurrentProfile(ctx context.Context, actor identity.Identity) (*profileDto.CurrentProfileResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.findUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		if _, err := s.repo.EnsureProfile(ctx, actor.UserID); err != nil {
			return nil, err
		}
	}
	return s.toCurrentResponse(user), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, actor identity.Identity, input profileDto.UpdateProfileInput, avatar *commonDto.ImageFile) (*profileDto.CurrentProfileResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	input.FirstName = trimmed(input.FirstName)
	input.LastName = trimmed(input.LastName)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	profile, err := s.repo.EnsureProfile(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if avatar != nil && avatar.Reader != nil {
		if s.imageStorage == nil {
			return nil, storage.ErrNotConfigured
		}
		url, err := s.imageStorage.UploadImage(ctx, avatar.Reader, path.Join(s.uploadFolder, "avatars"), avatar.FileName)
		if err != nil {
			return nil, err
		}

		oldAvatar := profile.AvatarURL
		profile.AvatarURL = &url
		if err := s.repo.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
		if oldAvatar != nil && *oldAvatar != "" {
			if err := s.imageStorage.DeleteImage(ctx, *oldAvatar); err != nil {
				log.Printf("Failed to delete old avatar %s: %v", *oldAvatar, err)
			}
		}
	}

	updated, err := s.findUser(ctx, actor)
	if err != nil {
		return nil, err
	}

	if s.meili != nil {
		if err := s.meili.IndexUser(updated); err != nil {
			log.Printf("Failed to index user %s: %v", updated.Username, err)
		}
	}

	return s.toCurrentResponse(updated), nil
}

func (s *profileService) findUser(ctx context.Context, actor identity.Identity) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

func (s *profileService) toCurrentResponse(user *entity.User) *profileDto.CurrentProfileResponse {
	return &profileDto.CurrentProfileResponse{
		User:      userDto.NewAuthorResponse(user, s.defaultAvatar),
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
