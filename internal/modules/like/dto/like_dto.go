package dto

const (
	StateLiked   = "liked"
	StateUnliked = "unliked"
)

type LikeToggleResponse struct {
	State      string `json:"state"`
	TotalLikes int64  `json:"total_likes"`
}
