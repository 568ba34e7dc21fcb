package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/clients/gcp"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

// fakeBucket captures uploads in memory.
type fakeBucket struct {
	objects map[string][]byte
	deleted []string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (b *fakeBucket) UploadFile(ctx context.Context, category gcp.BucketCategory, key string, file io.Reader) error {
	raw, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.objects[key] = raw
	return nil
}

func (b *fakeBucket) DeleteFile(ctx context.Context, category gcp.BucketCategory, key string) error {
	b.deleted = append(b.deleted, key)
	delete(b.objects, key)
	return nil
}

func (b *fakeBucket) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	raw, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %q", key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (b *fakeBucket) ListKeys(ctx context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (b *fakeBucket) GetPublicURL(category gcp.BucketCategory, key string) string {
	return "https://storage.example.com/" + key
}

type fakeMediaRepo struct {
	rows []*types.Media
}

func (f *fakeMediaRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string) ([]*types.Media, error) {
	var out []*types.Media
	for _, m := range f.rows {
		if m.EntityID == entityID && m.EntityType == entityType {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMediaRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Media, error) {
	for _, m := range f.rows {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMediaRepo) Create(ctx context.Context, tx *gorm.DB, m *types.Media) error {
	f.rows = append(f.rows, m)
	return nil
}

func (f *fakeMediaRepo) SetPrimary(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string, mediaID uuid.UUID) (int64, error) {
	var affected int64
	for _, m := range f.rows {
		if m.EntityID == entityID && m.EntityType == entityType {
			m.IsPrimary = m.ID == mediaID
			affected++
		}
	}
	return affected, nil
}

func (f *fakeMediaRepo) UpdateDisplayOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, displayOrder int) error {
	for _, m := range f.rows {
		if m.ID == id {
			m.DisplayOrder = displayOrder
		}
	}
	return nil
}

func (f *fakeMediaRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	for i, m := range f.rows {
		if m.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeMediaRepo) CountByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string) (int64, error) {
	var count int64
	for _, m := range f.rows {
		if m.EntityID == entityID && m.EntityType == entityType {
			count++
		}
	}
	return count, nil
}

func TestMediaServiceUploadValidation(t *testing.T) {
	svc := NewMediaService(nil, testLogger(t), &fakeMediaRepo{}, newFakeBucket())
	ctx := adminContext()
	entity := uuid.New()

	base := MediaUpload{
		EntityID:   entity,
		EntityType: types.MediaEntityLocation,
		FileName:   "photo.jpg",
		MimeType:   "image/jpeg",
		SizeBytes:  1024,
		Reader:     strings.NewReader("data"),
	}

	cases := []struct {
		name   string
		mutate func(*MediaUpload)
	}{
		{"missing entity id", func(u *MediaUpload) { u.EntityID = uuid.Nil }},
		{"unknown entity type", func(u *MediaUpload) { u.EntityType = "galaxy" }},
		{"unsupported mime type", func(u *MediaUpload) { u.MimeType = "application/zip" }},
		{"image too large", func(u *MediaUpload) { u.SizeBytes = 17 << 20 }},
		{"video too large", func(u *MediaUpload) { u.MimeType = "video/mp4"; u.SizeBytes = 65 << 20 }},
		{"no content", func(u *MediaUpload) { u.Reader = nil }},
	}
	for _, tc := range cases {
		in := base
		tc.mutate(&in)
		if _, err := svc.Upload(ctx, in); !apperr.IsCode(err, apperr.CodeBadRequest) {
			t.Fatalf("%s: err=%v, want BAD_REQUEST", tc.name, err)
		}
	}

	if _, err := svc.Upload(viewerContext(), base); !apperr.IsCode(err, apperr.CodeUnauthorized) {
		t.Fatalf("viewer upload: err=%v, want UNAUTHORIZED", err)
	}
}

func TestMediaServiceSetPrimary(t *testing.T) {
	entity := uuid.New()
	m1 := &types.Media{ID: uuid.New(), EntityID: entity, EntityType: types.MediaEntityLocation, IsPrimary: true}
	m2 := &types.Media{ID: uuid.New(), EntityID: entity, EntityType: types.MediaEntityLocation}
	repo := &fakeMediaRepo{rows: []*types.Media{m1, m2}}
	svc := NewMediaService(nil, testLogger(t), repo, newFakeBucket())
	ctx := adminContext()

	if err := svc.SetPrimary(ctx, uuid.New()); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("SetPrimary missing: err=%v, want NOT_FOUND", err)
	}

	if err := svc.SetPrimary(ctx, m2.ID); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	if m1.IsPrimary || !m2.IsPrimary {
		t.Fatalf("primary flags after swap: m1=%v m2=%v", m1.IsPrimary, m2.IsPrimary)
	}

	if err := svc.SetPrimary(viewerContext(), m1.ID); !apperr.IsCode(err, apperr.CodeUnauthorized) {
		t.Fatalf("viewer SetPrimary: err=%v, want UNAUTHORIZED", err)
	}
}

func TestMediaServiceDelete(t *testing.T) {
	entity := uuid.New()
	m := &types.Media{ID: uuid.New(), EntityID: entity, EntityType: types.MediaEntityLocation, StorageKey: "media/location/x/1.jpg"}
	repo := &fakeMediaRepo{rows: []*types.Media{m}}
	bucket := newFakeBucket()
	bucket.objects[m.StorageKey] = []byte("data")
	svc := NewMediaService(nil, testLogger(t), repo, bucket)
	ctx := adminContext()

	if err := svc.Delete(ctx, uuid.New()); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("Delete missing: err=%v, want NOT_FOUND", err)
	}

	if err := svc.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(bucket.deleted) != 1 || bucket.deleted[0] != m.StorageKey {
		t.Fatalf("stored object not removed: %v", bucket.deleted)
	}
}

func TestMediaServiceLinkValidation(t *testing.T) {
	svc := NewMediaService(nil, testLogger(t), &fakeMediaRepo{}, newFakeBucket())
	ctx := adminContext()

	if _, err := svc.Link(ctx, uuid.Nil, types.MediaEntityLocation, "k", "image/jpeg", "", 1); !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Link nil entity: err=%v", err)
	}
	if _, err := svc.Link(ctx, uuid.New(), "galaxy", "k", "image/jpeg", "", 1); !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Link bad type: err=%v", err)
	}
	if _, err := svc.Link(ctx, uuid.New(), types.MediaEntityLocation, "  ", "image/jpeg", "", 1); !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Link blank key: err=%v", err)
	}
}
