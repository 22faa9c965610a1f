package comment

import (
	"context"
	"errors"
	"html"
	"net/http"
	"strings"
	"time"

	"anoa.com/photoshare/internal/entity"
	commentDto "anoa.com/photoshare/internal/modules/comment/dto"
	commentRepo "anoa.com/photoshare/internal/modules/comment/repository"
	feedDto "anoa.com/photoshare/internal/modules/feed/dto"
	feed "anoa.com/photoshare/internal/modules/feed/service"
	notification "anoa.com/photoshare/internal/modules/notification/service"
	postRepo "anoa.com/photoshare/internal/modules/post/repository"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	"anoa.com/photoshare/pkg/identity"
	"anoa.com/photoshare/pkg/ratelimiter"
	"anoa.com/photoshare/pkg/validator"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const actionComment = "comment"

type CommentService interface {
	// CreateComment adds a comment to the post and notifies the post author in the same
	// transaction, unless the author comments on their own post.
	CreateComment(ctx context.Context, actor identity.Identity, postID uuid.UUID, input commentDto.CommentInput) (*feedDto.CommentView, error)
	UpdateComment(ctx context.Context, actor identity.Identity, commentID uuid.UUID, input commentDto.CommentInput) (*feedDto.CommentView, error)
	GetByPost(ctx context.Context, viewer identity.Identity, postID uuid.UUID) ([]feedDto.CommentView, error)
}

type commentService struct {
	repo       commentRepo.CommentRepository
	postRepo   postRepo.PostRepository
	dispatcher notification.Dispatcher
	composer   feed.Composer
	transactor database.Transactor
	limiter    *ratelimiter.Limiter
	cooldown   time.Duration
	sanitizer  *bluemonday.Policy
}

func NewCommentService(
	repo commentRepo.CommentRepository,
	postRepo postRepo.PostRepository,
	dispatcher notification.Dispatcher,
	composer feed.Composer,
	transactor database.Transactor,
	limiter *ratelimiter.Limiter,
	cooldown time.Duration,
) CommentService {
	return &commentService{
		repo:       repo,
		postRepo:   postRepo,
		dispatcher: dispatcher,
		composer:   composer,
		transactor: transactor,
		limiter:    limiter,
		cooldown:   cooldown,
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

func (s *commentService) CreateComment(ctx context.Context, actor identity.Identity, postID uuid.UUID, input commentDto.CommentInput) (*feedDto.CommentView, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	text, err := s.cleanText(input)
	if err != nil {
		return nil, err
	}

	release, err := s.limiter.Acquire(ctx, actor.UserID, actionComment, s.cooldown)
	if err != nil {
		return nil, err
	}

	comment := &entity.Comment{
		PostID: postID,
		UserID: actor.UserID,
		Text:   text,
	}
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		post, err := s.postRepo.FindByID(ctx, postID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("post")
			}
			return err
		}

		if err := s.repo.Create(ctx, comment); err != nil {
			return err
		}
		return s.dispatcher.OnCommentCreated(ctx, comment, post.UserID)
	})
	if err != nil {
		release()
		return nil, err
	}

	return s.view(ctx, actor, comment.ID)
}

func (s *commentService) UpdateComment(ctx context.Context, actor identity.Identity, commentID uuid.UUID, input commentDto.CommentInput) (*feedDto.CommentView, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	text, err := s.cleanText(input)
	if err != nil {
		return nil, err
	}

	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.UserID {
		return nil, apperror.New(http.StatusForbidden, "you can only edit your own comment", apperror.ErrForbidden)
	}

	if err := s.repo.UpdateText(ctx, comment.ID, text); err != nil {
		return nil, err
	}

	return s.view(ctx, actor, comment.ID)
}

func (s *commentService) GetByPost(ctx context.Context, viewer identity.Identity, postID uuid.UUID) ([]feedDto.CommentView, error) {
	comments, err := s.repo.FindByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.composer.ComposeComments(ctx, viewer, comments)
}

// cleanText strips markup and rejects text that is empty afterwards.
func (s *commentService) cleanText(input commentDto.CommentInput) (string, error) {
	input.Text = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(input.Text)))
	if err := validator.Struct(input); err != nil {
		return "", err
	}
	return input.Text, nil
}

func (s *commentService) findComment(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("comment")
		}
		return nil, err
	}
	return comment, nil
}

func (s *commentService) view(ctx context.Context, viewer identity.Identity, id uuid.UUID) (*feedDto.CommentView, error) {
	comment, err := s.findComment(ctx, id)
	if err != nil {
		return nil, err
	}

	views, err := s.composer.ComposeComments(ctx, viewer, []*entity.Comment{comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
