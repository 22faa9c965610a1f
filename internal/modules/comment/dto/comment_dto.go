package dto

// CommentInput is the body of comment create and update requests.
type CommentInput struct {
	Text string `json:"text" form:"text" binding:"required" validate:"required,max=2200"`
}
