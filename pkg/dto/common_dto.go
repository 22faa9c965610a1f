package dto

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 50
)

type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	AvatarURL string    `json:"avatar_url"`
}

type PageFilter struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Normalize fills in defaults and returns the offset for the page.
func (f *PageFilter) Normalize() int {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return (f.Page - 1) * f.Limit
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(filter PageFilter, total int64) PaginationMeta {
	totalPages := 0
	if filter.Limit > 0 {
		totalPages = int(total) / filter.Limit
		if int(total)%filter.Limit != 0 {
			totalPages++
		}
	}
	return PaginationMeta{
		CurrentPage: filter.Page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       filter.Limit,
	}
}

type ImageFile struct {
	Reader interface {
		Read(p []byte) (n int, err error)
	}
	FileName string
}

func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
