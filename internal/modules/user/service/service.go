package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/photoshare/internal/entity"
	postRepo "anoa.com/photoshare/internal/modules/post/repository"
	search "anoa.com/photoshare/internal/modules/search/service"
	"anoa.com/photoshare/internal/modules/user/dto"
	"anoa.com/photoshare/internal/modules/user/repository"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/identity"
	"anoa.com/photoshare/pkg/storage"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid credentials", apperror.ErrUnauthorized)
	errAlreadyTaken       = apperror.New(http.StatusConflict, "username or email already taken", apperror.ErrConflict)
)

type AuthService interface {
	// Register creates the user together with an empty profile and logs it in.
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	// DeleteAccount removes the user and everything the user owns.
	DeleteAccount(ctx context.Context, actor identity.Identity) error
}

type authService struct {
	repo          repository.UserRepository
	postRepo      postRepo.PostRepository
	imageStorage  storage.ImageStorage
	meili         search.MeiliSearchService
	secret        string
	tokenTTL      time.Duration
	defaultAvatar string
}

func NewAuthService(
	repo repository.UserRepository,
	postRepo postRepo.PostRepository,
	imageStorage storage.ImageStorage,
	meili search.MeiliSearchService,
	secret string,
	tokenTTL time.Duration,
	defaultAvatar string,
) AuthService {
	return &authService{
		repo:          repo,
		postRepo:      postRepo,
		imageStorage:  imageStorage,
		meili:         meili,
		secret:        secret,
		tokenTTL:      tokenTTL,
		defaultAvatar: defaultAvatar,
	}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, input.Username, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errAlreadyTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user, nil); err != nil {
		// a concurrent registration can take the name after the check above
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errAlreadyTaken
		}
		return nil, err
	}

	if s.meili != nil {
		if err := s.meili.IndexUser(user); err != nil {
			log.Printf("Failed to index user %s: %v", user.Username, err)
		}
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return s.buildAuthResponse(user)
}

func (s *authService) DeleteAccount(ctx context.Context, actor identity.Identity) error {
	if !actor.IsAuthenticated() {
		return apperror.ErrUnauthorized
	}

	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user")
		}
		return err
	}

	postIDs, err := s.postRepo.IDsByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	images, err := s.postRepo.ImageURLsByUserID(ctx, user.ID)
	if err != nil {
		return err
	}
	if avatar := user.AvatarRef(); avatar != "" {
		images = append(images, avatar)
	}

	if err := s.repo.DeleteAccount(ctx, user.ID); err != nil {
		return err
	}

	// The account is gone; storage and index cleanup only log failures.
	if s.imageStorage != nil {
		for _, ref := range images {
			if err := s.imageStorage.DeleteImage(ctx, ref); err != nil {
				log.Printf("Failed to delete image %s: %v", ref, err)
			}
		}
	}
	if s.meili != nil {
		if err := s.meili.DeleteUser(user.ID.String()); err != nil {
			log.Printf("Failed to remove user %s from index: %v", user.ID, err)
		}
		for _, id := range postIDs {
			if err := s.meili.DeletePost(id.String()); err != nil {
				log.Printf("Failed to remove post %s from index: %v", id, err)
			}
		}
	}

	return nil
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	var searchToken string
	if s.meili != nil {
		st, err := s.meili.GenerateSearchToken()
		if err != nil {
			log.Printf("Failed to generate search token for user %s: %v", user.Username, err)
		} else {
			searchToken = st
		}
	}

	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt,
		User:        dto.NewAuthorResponse(user, s.defaultAvatar),
		SearchToken: searchToken,
	}, nil
}

func (s *authService) generateToken(user *entity.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.tokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}
