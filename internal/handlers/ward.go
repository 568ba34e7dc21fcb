package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/services"
)

type WardHandler struct {
	svc services.WardService
}

func NewWardHandler(svc services.WardService) *WardHandler {
	return &WardHandler{svc: svc}
}

// GET /api/wards
func (h *WardHandler) ListWards(c *gin.Context) {
	wards, err := h.svc.List(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"wards": wards})
}

// GET /api/wards/:wardNumber
func (h *WardHandler) GetWard(c *gin.Context) {
	ward, err := strconv.Atoi(c.Param("wardNumber"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidWardNumber)
		return
	}

	row, err := h.svc.GetByNumber(c.Request.Context(), ward)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ward": row})
}

// PUT /api/wards
func (h *WardHandler) UpsertWard(c *gin.Context) {
	var in services.WardInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	row, err := h.svc.Upsert(c.Request.Context(), in)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"ward": row})
}
