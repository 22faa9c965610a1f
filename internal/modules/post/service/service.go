package post

import (
	"context"
	"errors"
	"html"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"anoa.com/photoshare/internal/entity"
	comment "anoa.com/photoshare/internal/modules/comment/service"
	feed "anoa.com/photoshare/internal/modules/feed/service"
	follow "anoa.com/photoshare/internal/modules/follow/service"
	hashtag "anoa.com/photoshare/internal/modules/hashtag/service"
	postDto "anoa.com/photoshare/internal/modules/post/dto"
	postRepo "anoa.com/photoshare/internal/modules/post/repository"
	search "anoa.com/photoshare/internal/modules/search/service"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	commonDto "anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/identity"
	"anoa.com/photoshare/pkg/ratelimiter"
	"anoa.com/photoshare/pkg/storage"
	"anoa.com/photoshare/pkg/validator"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

const actionPost = "post"

type PostService interface {
	CreatePost(ctx context.Context, actor identity.Identity, input postDto.CreatePostInput, image *commonDto.ImageFile) (*postDto.PostDetailResponse, error)
	// GetFeed lists every post, or with the following scope the posts of the users the
	// viewer follows together with the viewer's own, newest first.
	GetFeed(ctx context.Context, viewer identity.Identity, query postDto.FeedQuery) (*postDto.PostListResponse, error)
	GetPost(ctx context.Context, viewer identity.Identity, postID uuid.UUID) (*postDto.PostDetailResponse, error)
	GetByHashtag(ctx context.Context, viewer identity.Identity, name string, filter commonDto.PageFilter) (*postDto.PostListResponse, error)
	GetByUser(ctx context.Context, viewer identity.Identity, userID uuid.UUID, filter commonDto.PageFilter) (*postDto.PostListResponse, error)
	UpdatePost(ctx context.Context, actor identity.Identity, postID uuid.UUID, input postDto.UpdatePostInput, image *commonDto.ImageFile) (*postDto.PostDetailResponse, error)
	DeletePost(ctx context.Context, actor identity.Identity, postID uuid.UUID) error
}

type postService struct {
	postRepo       postRepo.PostRepository
	hashtagService hashtag.HashtagService
	followService  follow.FollowService
	commentService comment.CommentService
	composer       feed.Composer
	transactor     database.Transactor
	imageStorage   storage.ImageStorage
	meili          search.MeiliSearchService
	limiter        *ratelimiter.Limiter
	cooldown       time.Duration
	uploadFolder   string
	sanitizer      *bluemonday.Policy
}

func NewPostService(
	postRepo postRepo.PostRepository,
	hashtagService hashtag.HashtagService,
	followService follow.FollowService,
	commentService comment.CommentService,
	composer feed.Composer,
	transactor database.Transactor,
	imageStorage storage.ImageStorage,
	meili search.MeiliSearchService,
	limiter *ratelimiter.Limiter,
	cooldown time.Duration,
	uploadFolder string,
) PostService {
	return &postService{
		postRepo:       postRepo,
		hashtagService: hashtagService,
		followService:  followService,
		commentService: commentService,
		composer:       composer,
		transactor:     transactor,
		imageStorage:   imageStorage,
		meili:          meili,
		limiter:        limiter,
		cooldown:       cooldown,
		uploadFolder:   uploadFolder,
		sanitizer:      bluemonday.StrictPolicy(),
	}
}

func (s *postService) CreatePost(ctx context.Context, actor identity.Identity, input postDto.CreatePostInput, image *commonDto.ImageFile) (*postDto.PostDetailResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}
	if image == nil || image.Reader == nil {
		return nil, apperror.Validation("image is required")
	}

	input.Description = s.cleanText(input.Description)
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	release, err := s.limiter.Acquire(ctx, actor.UserID, actionPost, s.cooldown)
	if err != nil {
		return nil, err
	}

	// Roll back the rate limit and the upload if anything below fails.
	creationFailed := true
	var imageRef string
	defer func() {
		if creationFailed {
			release()
			s.deleteImage(imageRef)
		}
	}()

	imageRef, err = s.upload(ctx, image)
	if err != nil {
		return nil, err
	}

	post := &entity.Post{
		ImageURL: imageRef,
		UserID:   actor.UserID,
	}
	if input.Description != "" {
		post.Description = &input.Description
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.postRepo.Create(ctx, post); err != nil {
			return err
		}
		return s.hashtagService.SyncHashtags(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	creationFailed = false

	s.index(ctx, post.ID)

	return s.GetPost(ctx, actor, post.ID)
}

func (s *postService) GetFeed(ctx context.Context, viewer identity.Identity, query postDto.FeedQuery) (*postDto.PostListResponse, error) {
	var filter postRepo.PostFilter
	if query.Scope == postDto.ScopeFollowing {
		ids, err := s.followService.FollowingIDs(ctx, viewer)
		if err != nil {
			return nil, err
		}
		filter.AuthorIDs = append(ids, viewer.UserID)
		filter.OnlyAuthors = true
	}

	return s.list(ctx, viewer, filter, query.PageFilter)
}

func (s *postService) GetPost(ctx context.Context, viewer identity.Identity, postID uuid.UUID) (*postDto.PostDetailResponse, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	views, err := s.composer.ComposeFeed(ctx, viewer, []*entity.Post{post})
	if err != nil {
		return nil, err
	}

	comments, err := s.commentService.GetByPost(ctx, viewer, post.ID)
	if err != nil {
		return nil, err
	}

	hashtags := make([]string, 0, len(post.Hashtags))
	for _, h := range post.Hashtags {
		hashtags = append(hashtags, h.Name)
	}

	return &postDto.PostDetailResponse{
		PostView: views[0],
		Hashtags: hashtags,
		Comments: comments,
	}, nil
}

func (s *postService) GetByHashtag(ctx context.Context, viewer identity.Identity, name string, filter commonDto.PageFilter) (*postDto.PostListResponse, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "#")
	if name == "" {
		return nil, apperror.Validation("hashtag is required")
	}

	resp, err := s.list(ctx, viewer, postRepo.PostFilter{Hashtag: name}, filter)
	if err != nil {
		return nil, err
	}
	resp.Hashtag = name
	return resp, nil
}

func (s *postService) GetByUser(ctx context.Context, viewer identity.Identity, userID uuid.UUID, filter commonDto.PageFilter) (*postDto.PostListResponse, error) {
	return s.list(ctx, viewer, postRepo.PostFilter{UserID: &userID}, filter)
}

func (s *postService) UpdatePost(ctx context.Context, actor identity.Identity, postID uuid.UUID, input postDto.UpdatePostInput, image *commonDto.ImageFile) (*postDto.PostDetailResponse, error) {
	if !actor.IsAuthenticated() {
		return nil, apperror.ErrUnauthorized
	}

	if input.Description != nil {
		cleaned := s.cleanText(*input.Description)
		input.Description = &cleaned
	}
	if err := validator.Struct(input); err != nil {
		return nil, err
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actor.UserID {
		return nil, apperror.New(http.StatusForbidden, "you can only update your own post", apperror.ErrForbidden)
	}

	oldImage := post.ImageURL
	var newImage string
	if image != nil && image.Reader != nil {
		if newImage, err = s.upload(ctx, image); err != nil {
			return nil, err
		}
		post.ImageURL = newImage
	}

	if input.Description != nil {
		post.Description = nil
		if *input.Description != "" {
			post.Description = input.Description
		}
	}

	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.postRepo.Update(ctx, post); err != nil {
			return err
		}
		return s.hashtagService.SyncHashtags(ctx, post)
	})
	if err != nil {
		s.deleteImage(newImage)
		return nil, err
	}

	if newImage != "" {
		s.deleteImage(oldImage)
	}
	s.index(ctx, post.ID)

	return s.GetPost(ctx, actor, post.ID)
}

func (s *postService) DeletePost(ctx context.Context, actor identity.Identity, postID uuid.UUID) error {
	if !actor.IsAuthenticated() {
		return apperror.ErrUnauthorized
	}

	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actor.UserID {
		return apperror.New(http.StatusForbidden, "you can only delete your own post", apperror.ErrForbidden)
	}

	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return err
	}

	s.deleteImage(post.ImageURL)
	if s.meili != nil {
		if err := s.meili.DeletePost(post.ID.String()); err != nil {
			log.Printf("Failed to remove post %s from index: %v", post.ID, err)
		}
	}
	return nil
}

func (s *postService) list(ctx context.Context, viewer identity.Identity, filter postRepo.PostFilter, page commonDto.PageFilter) (*postDto.PostListResponse, error) {
	offset := page.Normalize()

	posts, total, err := s.postRepo.FindAll(ctx, filter, offset, page.Limit)
	if err != nil {
		return nil, err
	}

	views, err := s.composer.ComposeFeed(ctx, viewer, posts)
	if err != nil {
		return nil, err
	}

	return &postDto.PostListResponse{
		Data: views,
		Meta: commonDto.NewPaginationMeta(page, total),
	}, nil
}

func (s *postService) findPost(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("post")
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) cleanText(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func (s *postService) upload(ctx context.Context, image *commonDto.ImageFile) (string, error) {
	if s.imageStorage == nil {
		return "", storage.ErrNotConfigured
	}
	return s.imageStorage.UploadImage(ctx, image.Reader, path.Join(s.uploadFolder, "posts"), image.FileName)
}

// deleteImage removes an uploaded image, logging failures.
func (s *postService) deleteImage(ref string) {
	if ref == "" || s.imageStorage == nil {
		return
	}
	if err := s.imageStorage.DeleteImage(context.Background(), ref); err != nil {
		log.Printf("Failed to delete image %s: %v", ref, err)
	}
}

func (s *postService) index(ctx context.Context, postID uuid.UUID) {
	if s.meili == nil {
		return
	}
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		log.Printf("Failed to load post %s for indexing: %v", postID, err)
		return
	}
	if err := s.meili.IndexPost(post); err != nil {
		log.Printf("Failed to index post: %v", err)
	}
}
