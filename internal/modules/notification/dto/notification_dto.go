package dto

import (
	"time"

	commonDto "anoa.com/photoshare/pkg/dto"
	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID        uuid.UUID                `json:"id"`
	Type      string                   `json:"type"`
	Message   string                   `json:"message"`
	IsRead    bool                     `json:"is_read"`
	Actor     commonDto.AuthorResponse `json:"actor"`
	PostID    *uuid.UUID               `json:"post_id,omitempty"`
	CommentID *uuid.UUID               `json:"comment_id,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

type NotificationListResponse struct {
	Data []NotificationResponse  `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
