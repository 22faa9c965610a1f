package feed

import (
	"context"

	"anoa.com/photoshare/internal/entity"
	commentRepo "anoa.com/photoshare/internal/modules/comment/repository"
	feedDto "anoa.com/photoshare/internal/modules/feed/dto"
	likeRepo "anoa.com/photoshare/internal/modules/like/repository"
	userDto "anoa.com/photoshare/internal/modules/user/dto"
	"anoa.com/photoshare/pkg/identity"
	"anoa.com/photoshare/pkg/storage"
	"github.com/google/uuid"
)

// Composer projects posts and comments for a viewer. It never reorders its input.
type Composer interface {
	ComposeFeed(ctx context.Context, viewer identity.Identity, posts []*entity.Post) ([]feedDto.PostView, error)
	ComposeComments(ctx context.Context, viewer identity.Identity, comments []*entity.Comment) ([]feedDto.CommentView, error)
}

type composer struct {
	likeRepo      likeRepo.LikeRepository
	commentRepo   commentRepo.CommentRepository
	defaultAvatar string
}

func NewComposer(likeRepo likeRepo.LikeRepository, commentRepo commentRepo.CommentRepository, defaultAvatar string) Composer {
	return &composer{
		likeRepo:      likeRepo,
		commentRepo:   commentRepo,
		defaultAvatar: defaultAvatar,
	}
}

func (c *composer) ComposeFeed(ctx context.Context, viewer identity.Identity, posts []*entity.Post) ([]feedDto.PostView, error) {
	views := make([]feedDto.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	likes, err := c.likeRepo.CountByReferences(ctx, ids, entity.ReferencePost)
	if err != nil {
		return nil, err
	}
	comments, err := c.commentRepo.CountByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := c.likedBy(ctx, viewer, ids, entity.ReferencePost)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		author := userDto.NewAuthorResponse(&p.User, c.defaultAvatar)
		views = append(views, feedDto.PostView{
			ID:            p.ID,
			ImageURL:      storage.ResolveURL(p.ImageURL),
			Description:   p.DescriptionText(),
			Author:        author,
			AvatarURL:     author.AvatarURL,
			TotalLikes:    likes[p.ID],
			TotalComments: comments[p.ID],
			IsLiked:       liked[p.ID],
			CreatedAt:     p.CreatedAt,
		})
	}
	return views, nil
}

func (c *composer) ComposeComments(ctx context.Context, viewer identity.Identity, comments []*entity.Comment) ([]feedDto.CommentView, error) {
	views := make([]feedDto.CommentView, 0, len(comments))
	if len(comments) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.ID)
	}

	likes, err := c.likeRepo.CountByReferences(ctx, ids, entity.ReferenceComment)
	if err != nil {
		return nil, err
	}
	liked, err := c.likedBy(ctx, viewer, ids, entity.ReferenceComment)
	if err != nil {
		return nil, err
	}

	for _, cm := range comments {
		views = append(views, feedDto.CommentView{
			ID:         cm.ID,
			PostID:     cm.PostID,
			Text:       cm.Text,
			Author:     userDto.NewAuthorResponse(&cm.User, c.defaultAvatar),
			TotalLikes: likes[cm.ID],
			IsLiked:    liked[cm.ID],
			CreatedAt:  cm.CreatedAt,
			UpdatedAt:  cm.UpdatedAt,
		})
	}
	return views, nil
}

// likedBy is empty for the anonymous viewer.
func (c *composer) likedBy(ctx context.Context, viewer identity.Identity, ids []uuid.UUID, refType string) (map[uuid.UUID]bool, error) {
	if !viewer.IsAuthenticated() {
		return map[uuid.UUID]bool{}, nil
	}
	return c.likeRepo.LikedReferences(ctx, viewer.UserID, ids, refType)
}
