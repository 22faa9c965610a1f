package dto

import commonDto "anoa.com/photoshare/pkg/dto"

const (
	StateFollowed   = "followed"
	StateUnfollowed = "unfollowed"
)

type FollowToggleResponse struct {
	State          string `json:"state"`
	FollowersCount int64  `json:"followers_count"`
}

type FollowListResponse struct {
	Data  []commonDto.AuthorResponse `json:"data"`
	Total int                        `json:"total"`
}
