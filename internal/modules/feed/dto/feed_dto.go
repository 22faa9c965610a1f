package dto

import (
	"time"

	commonDto "anoa.com/photoshare/pkg/dto"
	"github.com/google/uuid"
)

// PostView is a post as seen by one viewer.
type PostView struct {
	ID            uuid.UUID                `json:"id"`
	ImageURL      string                   `json:"image_url"`
	Description   string                   `json:"description"`
	Author        commonDto.AuthorResponse `json:"author"`
	AvatarURL     string                   `json:"avatar_url"`
	TotalLikes    int64                    `json:"total_likes"`
	TotalComments int64                    `json:"total_comments"`
	IsLiked       bool                     `json:"is_liked"`
	CreatedAt     time.Time                `json:"created_at"`
}

type CommentView struct {
	ID         uuid.UUID                `json:"id"`
	PostID     uuid.UUID                `json:"post_id"`
	Text       string                   `json:"text"`
	Author     commonDto.AuthorResponse `json:"author"`
	TotalLikes int64                    `json:"total_likes"`
	IsLiked    bool                     `json:"is_liked"`
	CreatedAt  time.Time                `json:"created_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}
