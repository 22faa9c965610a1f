package handler

import (
	"net/http"

	searchDto "anoa.com/photoshare/internal/modules/search/dto"
	search "anoa.com/photoshare/internal/modules/search/service"
	"anoa.com/photoshare/pkg/response"
	"anoa.com/photoshare/pkg/validator"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service search.SearchService
}

func NewSearchHandler(service search.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var query searchDto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
