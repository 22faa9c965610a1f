package dto

import (
	"anoa.com/photoshare/internal/entity"
	commonDto "anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/storage"
)

type RegisterInput struct {
	Username  string `json:"username" binding:"required,alphanum,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"max=30"`
	LastName  string `json:"last_name" binding:"max=30"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string                   `json:"access_token"`
	TokenType   string                   `json:"token_type"`
	ExpiresIn   int64                    `json:"expires_in"`
	User        commonDto.AuthorResponse `json:"user"`
	SearchToken string                   `json:"search_token,omitempty"`
}

// NewAuthorResponse renders u for embedding in other resources. The avatar falls back to
// defaultAvatar when the user has none or it cannot be resolved.
func NewAuthorResponse(u *entity.User, defaultAvatar string) commonDto.AuthorResponse {
	if u == nil {
		return commonDto.AuthorResponse{AvatarURL: storage.ResolveURL(defaultAvatar)}
	}
	return commonDto.AuthorResponse{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: AvatarURL(u, defaultAvatar),
	}
}

// AvatarURL resolves the avatar of u, or defaultAvatar when it has none.
func AvatarURL(u *entity.User, defaultAvatar string) string {
	if url := storage.ResolveURL(u.AvatarRef()); url != "" {
		return url
	}
	return storage.ResolveURL(defaultAvatar)
}
