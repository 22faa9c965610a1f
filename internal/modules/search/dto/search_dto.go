package dto

import commonDto "anoa.com/photoshare/pkg/dto"

const (
	ChoiceUser    = "user"
	ChoiceHashtag = "hashtag"
)

type SearchQuery struct {
	Text   string `form:"text" binding:"required,max=100"`
	Choice string `form:"choice" binding:"required,oneof=user hashtag"`
}

type HashtagResult struct {
	Name string `json:"name"`
}

type SearchResponse struct {
	Choice   string                     `json:"choice"`
	Users    []commonDto.AuthorResponse `json:"users,omitempty"`
	Hashtags []HashtagResult            `json:"hashtags,omitempty"`
}
