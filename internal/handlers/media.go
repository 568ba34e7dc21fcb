package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/services"
)

type MediaHandler struct {
	svc     services.MediaService
	placard services.PlacardService
}

func NewMediaHandler(svc services.MediaService, placard services.PlacardService) *MediaHandler {
	return &MediaHandler{svc: svc, placard: placard}
}

// GET /api/media/:entityType/:entityId
func (h *MediaHandler) ListForEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("entityId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidID)
		return
	}

	rows, err := h.svc.ListByEntity(c.Request.Context(), entityID, c.Param("entityType"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"media": rows})
}

// POST /api/media/upload (multipart: entity_id, entity_type, title, files[])
func (h *MediaHandler) Upload(c *gin.Context) {
	entityID, err := uuid.Parse(c.PostForm("entity_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errors.New("invalid entity_id"))
		return
	}
	entityType := c.PostForm("entity_type")
	title := c.PostForm("title")

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errors.New("no files in request"))
		return
	}

	uploads := make([]services.MediaUpload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, services.MediaUpload{
			EntityID:   entityID,
			EntityType: entityType,
			FileName:   fh.Filename,
			MimeType:   fh.Header.Get("Content-Type"),
			SizeBytes:  fh.Size,
			Title:      title,
			Reader:     f,
		})
	}

	rows, err := h.svc.UploadMany(c.Request.Context(), uploads)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"media": rows})
}

type linkMediaRequest struct {
	EntityID   uuid.UUID `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	StorageKey string    `json:"storage_key"`
	MimeType   string    `json:"mime_type"`
	Title      string    `json:"title"`
	SizeBytes  int64     `json:"size_bytes"`
}

// POST /api/media/link
func (h *MediaHandler) Link(c *gin.Context) {
	var req linkMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	row, err := h.svc.Link(c.Request.Context(), req.EntityID, req.EntityType, req.StorageKey, req.MimeType, req.Title, req.SizeBytes)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"media": row})
}

// PUT /api/media/:id/primary
func (h *MediaHandler) SetPrimary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errInvalidID)
		return
	}

	if err := h.svc.SetPrimary(c.Request.Context(), id); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

type reorderMediaRequest struct {
	EntityID   uuid.UUID   `json:"entity_id"`
	EntityType string      `json:"entity_type"`
	OrderedIDs []uuid.UUID `json:"ordered_ids"`
}

// PUT /api/media/reorder
func (h *MediaHandler) Reorder(c *gin.Context) {
	var req reorderMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}

	if err := h.svc.Reorder(c.Request.Context(), req.EntityID, req.EntityType, req.OrderedIDs); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"updated": true})
}

type placardRequest struct {
	EntityID   uuid.UUID `json:"entity_id"`
	EntityType string    `json:"entity_type"`
	Name       string    `json:"name"`
}

// POST /api/media/placard
// Generates a fallback cover tile when the entity has no media yet.
func (h *MediaHandler) GeneratePlacard(c *gin.Context) {
	if h.placard == nil {
		RespondError(c, http.StatusInternalServerError, apperr.CodeInternal, errors.New("placard generation is not configured"))
		return
	}
	var req placardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, err)
		return
	}
	if req.Name == "" {
		RespondError(c, http.StatusBadRequest, apperr.CodeBadRequest, errors.New("name is required"))
		return
	}

	url, err := h.placard.EnsureForEntity(c.Request.Context(), req.EntityID, req.EntityType, req.Name)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// DELETE /api/media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
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
