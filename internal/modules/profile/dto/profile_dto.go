package dto

import (
	"time"

	feedDto "anoa.com/photoshare/internal/modules/feed/dto"
	commonDto "anoa.com/photoshare/pkg/dto"
)

// UpdateProfileInput leaves nil fields untouched.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name" form:"first_name" validate:"omitempty,max=30"`
	LastName  *string `json:"last_name" form:"last_name" validate:"omitempty,max=30"`
}

// CurrentProfileResponse is the profile of the authenticated user.
type CurrentProfileResponse struct {
	User      commonDto.AuthorResponse `json:"user"`
	Email     string                   `json:"email"`
	CreatedAt time.Time                `json:"created_at"`
}

// PublicProfileResponse is the post grid of a user as seen by the viewer.
type PublicProfileResponse struct {
	User           commonDto.AuthorResponse `json:"user"`
	PostsCount     int64                    `json:"posts_count"`
	FollowersCount int64                    `json:"followers_count"`
	FollowingCount int64                    `json:"following_count"`
	IsFollowed     bool                     `json:"is_followed"`
	Posts          []feedDto.PostView       `json:"posts"`
	Meta           commonDto.PaginationMeta `json:"meta"`
}
