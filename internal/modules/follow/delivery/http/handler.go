package handler

import (
	"net/http"

	follow "anoa.com/photoshare/internal/modules/follow/service"
	"anoa.com/photoshare/pkg/response"
	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	service follow.FollowService
}

func NewFollowHandler(service follow.FollowService) *FollowHandler {
	return &FollowHandler{service: service}
}

func (h *FollowHandler) ToggleFollow(c *gin.Context) {
	resp, err := h.service.ToggleFollow(c.Request.Context(), response.GetIdentity(c), c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FollowHandler) GetFollowers(c *gin.Context) {
	resp, err := h.service.Followers(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FollowHandler) GetFollowing(c *gin.Context) {
	resp, err := h.service.Following(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
