package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/services"
)

type LocationHandler struct {
	svc services.LocationService
}

func NewLocationHandler(svc services.LocationService) *LocationHandler {
	return &LocationHandler{svc: svc}
}

// GET /api/locations?kind=&ward=&page=&pageSize=&viewType=
func (h *LocationHandler) ListLocations(c *gin.Context) {
	var f repos.LocationFilter
	if kind := c.Query("kind"); kind != "" {
		f.Kind = &kind
	}
	if raw := c.Query("ward"); raw != "" {
		ward, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidWardNumber)
			return
		}
		f.WardNumber = &ward
	}
	f.Page, _ = strconv.Atoi(c.Query("page"))
	f.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	page, err := h.svc.List(c.Request.Context(), f, c.Query("viewType"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, page)
}

// GET /api/locations/:slug
func (h *LocationHandler) GetLocation(c *gin.Context) {
	row, err := h.svc.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"location": row})
}

// POST /api/locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var in services.LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	row, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"location": row})
}

// PUT /api/locations/:id
func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidID)
		return
	}
	var in services.LocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	row, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"location": row})
}

// DELETE /api/locations/:id
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidID)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
