package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/datasets"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/services"
)

type StatisticHandler struct {
	svc services.StatisticService
}

func NewStatisticHandler(svc services.StatisticService) *StatisticHandler {
	return &StatisticHandler{svc: svc}
}

// GET /api/datasets
func (h *StatisticHandler) ListDatasets(c *gin.Context) {
	RespondOK(c, gin.H{"datasets": h.svc.ListDatasets()})
}

// GET /api/datasets/:dataset/statistics?ward=&category=
func (h *StatisticHandler) ListStatistics(c *gin.Context) {
	var f repos.StatisticFilter
	if raw := c.Query("ward"); raw != "" {
		ward, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidWardNumber)
			return
		}
		f.WardNumber = &ward
	}
	if cat := c.Query("category"); cat != "" {
		f.Category = &cat
	}

	records, err := h.svc.GetAll(c.Request.Context(), c.Param("dataset"), f)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"statistics": records})
}

// GET /api/datasets/:dataset/statistics/ward/:wardNumber
func (h *StatisticHandler) ListStatisticsByWard(c *gin.Context) {
	ward, err := strconv.Atoi(c.Param("wardNumber"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidWardNumber)
		return
	}

	records, err := h.svc.GetByWard(c.Request.Context(), c.Param("dataset"), ward)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"statistics": records})
}

// GET /api/datasets/:dataset/summary?group_by=category|ward
func (h *StatisticHandler) Summary(c *gin.Context) {
	groupBy := c.DefaultQuery("group_by", "category")
	rows, err := h.svc.Summary(c.Request.Context(), c.Param("dataset"), groupBy)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": rows})
}

// POST /api/datasets/:dataset/statistics
func (h *StatisticHandler) CreateStatistic(c *gin.Context) {
	var in datasets.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	record, err := h.svc.Create(c.Request.Context(), c.Param("dataset"), in)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"statistic": record})
}

// PUT /api/datasets/:dataset/statistics/:id
func (h *StatisticHandler) UpdateStatistic(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidID)
		return
	}
	var in datasets.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	record, err := h.svc.Update(c.Request.Context(), c.Param("dataset"), id, in)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"statistic": record})
}

// DELETE /api/datasets/:dataset/statistics/:id
func (h *StatisticHandler) DeleteStatistic(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidID)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("dataset"), id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
