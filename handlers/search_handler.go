package handlers

import (
	"net/http"
	"strconv"

	"logistiko-backend/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles the global search endpoint
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search handles GET /api/v1/search?q=
func (h *SearchHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.searchService.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		failFromService(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}
