package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/clients/gcp"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

const (
	maxImageBytes = 16 << 20
	maxVideoBytes = 64 << 20
)

var imageMimeTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/webp":    true,
	"image/gif":     true,
	"image/svg+xml": true,
}

var videoMimeTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

var mediaEntityTypes = map[string]bool{
	types.MediaEntityLocation:  true,
	types.MediaEntityWard:      true,
	types.MediaEntityTransport: true,
	types.MediaEntityProfile:   true,
}

// MediaUpload is one file plus the entity it should hang off.
type MediaUpload struct {
	EntityID   uuid.UUID
	EntityType string
	FileName   string
	MimeType   string
	SizeBytes  int64
	Title      string
	Reader     io.Reader
}

type MediaService interface {
	ListByEntity(ctx context.Context, entityID uuid.UUID, entityType string) ([]*types.Media, error)
	Upload(ctx context.Context, in MediaUpload) (*types.Media, error)
	UploadMany(ctx context.Context, items []MediaUpload) ([]*types.Media, error)
	// Link records an object that was already uploaded to the store
	// (the uploader widget talks to the bucket first, then calls this).
	Link(ctx context.Context, entityID uuid.UUID, entityType, storageKey, mimeType, title string, sizeBytes int64) (*types.Media, error)
	SetPrimary(ctx context.Context, mediaID uuid.UUID) error
	Reorder(ctx context.Context, entityID uuid.UUID, entityType string, orderedIDs []uuid.UUID) error
	Delete(ctx context.Context, mediaID uuid.UUID) error
}

type mediaService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.MediaRepo
	bucket gcp.BucketService
}

func NewMediaService(db *gorm.DB, baseLog *logger.Logger, repo repos.MediaRepo, bucket gcp.BucketService) MediaService {
	serviceLog := baseLog.With("service", "MediaService")
	return &mediaService{db: db, log: serviceLog, repo: repo, bucket: bucket}
}

func (s *mediaService) ListByEntity(ctx context.Context, entityID uuid.UUID, entityType string) ([]*types.Media, error) {
	if !mediaEntityTypes[entityType] {
		return nil, apperr.BadRequest("unknown media entity type %q", entityType)
	}
	media, err := s.repo.ListByEntity(ctx, nil, entityID, entityType)
	if err != nil {
		s.log.Error("media list failed", "entity_id", entityID, "entity_type", entityType, "error", err)
		return nil, apperr.Internal(err)
	}
	return media, nil
}

func (s *mediaService) requireBucket() error {
	if s.bucket == nil {
		return apperr.Internal(fmt.Errorf("object storage is not configured"))
	}
	return nil
}

func validateUpload(in MediaUpload) error {
	if in.EntityID == uuid.Nil {
		return apperr.BadRequest("entity id is required")
	}
	if !mediaEntityTypes[in.EntityType] {
		return apperr.BadRequest("unknown media entity type %q", in.EntityType)
	}
	switch {
	case imageMimeTypes[in.MimeType]:
		if in.SizeBytes > maxImageBytes {
			return apperr.BadRequest("image exceeds the %dMB limit", maxImageBytes>>20)
		}
	case videoMimeTypes[in.MimeType]:
		if in.SizeBytes > maxVideoBytes {
			return apperr.BadRequest("video exceeds the %dMB limit", maxVideoBytes>>20)
		}
	default:
		return apperr.BadRequest("mime type %q is not accepted by this uploader", in.MimeType)
	}
	if in.Reader == nil {
		return apperr.BadRequest("no file content supplied")
	}
	return nil
}

func storageKeyFor(in MediaUpload, id uuid.UUID) string {
	ext := strings.ToLower(path.Ext(in.FileName))
	return fmt.Sprintf("media/%s/%s/%s%s", in.EntityType, in.EntityID, id, ext)
}

func (s *mediaService) Upload(ctx context.Context, in MediaUpload) (*types.Media, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	if err := s.requireBucket(); err != nil {
		return nil, err
	}
	if err := validateUpload(in); err != nil {
		return nil, err
	}

	id := uuid.New()
	key := storageKeyFor(in, id)
	if err := s.bucket.UploadFile(ctx, gcp.BucketCategoryMedia, key, in.Reader); err != nil {
		s.log.Error("media upload to bucket failed", "storage_key", key, "error", err)
		return nil, apperr.Internal(err)
	}

	m, err := s.createRecord(ctx, id, in, key)
	if err != nil {
		// The object stays orphaned in the bucket; the record error is
		// the one worth surfacing.
		s.log.Error("media record create failed after upload", "storage_key", key, "error", err)
		return nil, apperr.From(err)
	}
	return m, nil
}

func (s *mediaService) createRecord(ctx context.Context, id uuid.UUID, in MediaUpload, key string) (*types.Media, error) {
	now := time.Now().UTC()
	m := &types.Media{
		ID:         id,
		EntityID:   in.EntityID,
		EntityType: in.EntityType,
		StorageKey: key,
		FileURL:    s.bucket.GetPublicURL(gcp.BucketCategoryMedia, key),
		MimeType:   in.MimeType,
		SizeBytes:  in.SizeBytes,
		Title:      in.Title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := s.repo.CountByEntity(ctx, tx, in.EntityID, in.EntityType)
		if err != nil {
			return err
		}
		// First attachment becomes the featured one.
		m.IsPrimary = count == 0
		m.DisplayOrder = int(count)
		return s.repo.Create(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *mediaService) UploadMany(ctx context.Context, items []MediaUpload) ([]*types.Media, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	if err := s.requireBucket(); err != nil {
		return nil, err
	}
	for _, in := range items {
		if err := validateUpload(in); err != nil {
			return nil, err
		}
	}

	results := make([]*types.Media, len(items))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, in := range items {
		g.Go(func() error {
			id := uuid.New()
			key := storageKeyFor(in, id)
			if err := s.bucket.UploadFile(gctx, gcp.BucketCategoryMedia, key, in.Reader); err != nil {
				return fmt.Errorf("upload %q: %w", in.FileName, err)
			}
			m, err := s.createRecord(gctx, id, in, key)
			if err != nil {
				return fmt.Errorf("record %q: %w", in.FileName, err)
			}
			mu.Lock()
			results[i] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("batch media upload failed", "error", err)
		return nil, apperr.From(err)
	}
	return results, nil
}

func (s *mediaService) Link(ctx context.Context, entityID uuid.UUID, entityType, storageKey, mimeType, title string, sizeBytes int64) (*types.Media, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	if err := s.requireBucket(); err != nil {
		return nil, err
	}
	if entityID == uuid.Nil {
		return nil, apperr.BadRequest("entity id is required")
	}
	if !mediaEntityTypes[entityType] {
		return nil, apperr.BadRequest("unknown media entity type %q", entityType)
	}
	if strings.TrimSpace(storageKey) == "" {
		return nil, apperr.BadRequest("storage key is required")
	}

	m, err := s.createRecord(ctx, uuid.New(), MediaUpload{
		EntityID:   entityID,
		EntityType: entityType,
		MimeType:   mimeType,
		SizeBytes:  sizeBytes,
		Title:      title,
	}, storageKey)
	if err != nil {
		s.log.Error("media link failed", "storage_key", storageKey, "error", err)
		return nil, apperr.From(err)
	}
	return m, nil
}

func (s *mediaService) SetPrimary(ctx context.Context, mediaID uuid.UUID) error {
	if err := requireElevated(ctx); err != nil {
		return err
	}
	m, err := s.repo.GetByID(ctx, nil, mediaID)
	if err != nil {
		s.log.Error("media lookup failed", "id", mediaID, "error", err)
		return apperr.Internal(err)
	}
	if m == nil {
		return apperr.NotFound("no media with id %s", mediaID)
	}
	if _, err := s.repo.SetPrimary(ctx, nil, m.EntityID, m.EntityType, m.ID); err != nil {
		s.log.Error("set primary failed", "id", mediaID, "error", err)
		return apperr.Internal(err)
	}
	return nil
}

func (s *mediaService) Reorder(ctx context.Context, entityID uuid.UUID, entityType string, orderedIDs []uuid.UUID) error {
	if err := requireElevated(ctx); err != nil {
		return err
	}
	if !mediaEntityTypes[entityType] {
		return apperr.BadRequest("unknown media entity type %q", entityType)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only ids attached to the addressed entity may be reordered,
		// a foreign id would silently rewrite another entity's gallery.
		owned, err := s.repo.ListByEntity(ctx, tx, entityID, entityType)
		if err != nil {
			return err
		}
		ownedIDs := make(map[uuid.UUID]bool, len(owned))
		for _, m := range owned {
			ownedIDs[m.ID] = true
		}
		for i, id := range orderedIDs {
			if !ownedIDs[id] {
				return apperr.BadRequest("media %s does not belong to %s %s", id, entityType, entityID)
			}
			if err := s.repo.UpdateDisplayOrder(ctx, tx, id, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		s.log.Error("media reorder failed", "entity_id", entityID, "error", err)
		return apperr.Internal(err)
	}
	return nil
}

func (s *mediaService) Delete(ctx context.Context, mediaID uuid.UUID) error {
	if err := requireElevated(ctx); err != nil {
		return err
	}
	m, err := s.repo.GetByID(ctx, nil, mediaID)
	if err != nil {
		s.log.Error("media lookup failed", "id", mediaID, "error", err)
		return apperr.Internal(err)
	}
	if m == nil {
		return apperr.NotFound("no media with id %s", mediaID)
	}

	affected, err := s.repo.DeleteByID(ctx, nil, mediaID)
	if err != nil {
		s.log.Error("media delete failed", "id", mediaID, "error", err)
		return apperr.Internal(err)
	}
	if affected == 0 {
		return apperr.NotFound("no media with id %s", mediaID)
	}

	// Object removal is best effort; a dangling object is preferable to
	// a delete that reports failure after the row is gone.
	if s.bucket != nil {
		if err := s.bucket.DeleteFile(ctx, gcp.BucketCategoryMedia, m.StorageKey); err != nil {
			s.log.Warn("stored object delete failed", "storage_key", m.StorageKey, "error", err)
		}
	}
	return nil
}
