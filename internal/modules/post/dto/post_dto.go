package dto

import (
	feedDto "anoa.com/photoshare/internal/modules/feed/dto"
	commonDto "anoa.com/photoshare/pkg/dto"
)

const (
	ScopeAll       = "all"
	ScopeFollowing = "following"
)

type CreatePostInput struct {
	Description string `form:"description" json:"description" validate:"max=2200"`
}

// UpdatePostInput leaves the description untouched when it is nil.
type UpdatePostInput struct {
	Description *string `form:"description" json:"description" validate:"omitempty,max=2200"`
}

type FeedQuery struct {
	commonDto.PageFilter
	Scope string `form:"scope" binding:"omitempty,oneof=all following"`
}

type PostListResponse struct {
	Hashtag string                   `json:"hashtag,omitempty"`
	Data    []feedDto.PostView       `json:"data"`
	Meta    commonDto.PaginationMeta `json:"meta"`
}

// PostDetailResponse is a post with its hashtags and comments, newest comment first.
type PostDetailResponse struct {
	feedDto.PostView
	Hashtags []string              `json:"hashtags"`
	Comments []feedDto.CommentView `json:"comments"`
}
