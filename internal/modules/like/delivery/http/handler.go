package handler

import (
	"net/http"

	"anoa.com/photoshare/internal/entity"
	like "anoa.com/photoshare/internal/modules/like/service"
	"anoa.com/photoshare/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LikeHandler struct {
	service like.LikeService
}

func NewLikeHandler(service like.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) TogglePostLike(c *gin.Context) {
	h.toggle(c, entity.ReferencePost, "post_id")
}

func (h *LikeHandler) ToggleCommentLike(c *gin.Context) {
	h.toggle(c, entity.ReferenceComment, "comment_id")
}

func (h *LikeHandler) toggle(c *gin.Context, refType, param string) {
	refID, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + refType + " id"})
		return
	}

	resp, err := h.service.ToggleLike(c.Request.Context(), response.GetIdentity(c), refType, refID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
