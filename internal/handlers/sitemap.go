package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fernsky/delivery-admin-sub005/internal/services"
)

type SitemapHandler struct {
	svc services.SitemapService
}

func NewSitemapHandler(svc services.SitemapService) *SitemapHandler {
	return &SitemapHandler{svc: svc}
}

// GET /sitemap/categories
func (h *SitemapHandler) ListCategories(c *gin.Context) {
	RespondOK(c, gin.H{"categories": h.svc.Categories()})
}

// GET /sitemap/:locale/:category
func (h *SitemapHandler) Entries(c *gin.Context) {
	entries, err := h.svc.Entries(c.Request.Context(), c.Param("locale"), c.Param("category"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"entries": entries})
}
