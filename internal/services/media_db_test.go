package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/repos/testutil"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

func TestMediaServiceUploadOrdering(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := repos.NewMediaRepo(tx, testutil.Logger(t))
	bucket := newFakeBucket()
	svc := NewMediaService(tx, testutil.Logger(t), repo, bucket)

	ctx := adminContext()
	entity := uuid.New()

	upload := func(name string) *types.Media {
		t.Helper()
		m, err := svc.Upload(ctx, MediaUpload{
			EntityID:   entity,
			EntityType: types.MediaEntityLocation,
			FileName:   name,
			MimeType:   "image/jpeg",
			SizeBytes:  64,
			Reader:     strings.NewReader("jpegdata"),
		})
		if err != nil {
			t.Fatalf("Upload %s: %v", name, err)
		}
		return m
	}

	first := upload("a.jpg")
	second := upload("b.jpg")
	third := upload("c.jpg")

	if !first.IsPrimary || second.IsPrimary || third.IsPrimary {
		t.Fatalf("only the first upload should be primary: %v %v %v", first.IsPrimary, second.IsPrimary, third.IsPrimary)
	}
	if first.DisplayOrder != 0 || second.DisplayOrder != 1 || third.DisplayOrder != 2 {
		t.Fatalf("display order: %d %d %d", first.DisplayOrder, second.DisplayOrder, third.DisplayOrder)
	}
	if len(bucket.objects) != 3 {
		t.Fatalf("objects in bucket: %d", len(bucket.objects))
	}
	for _, m := range []*types.Media{first, second, third} {
		if !strings.HasPrefix(m.StorageKey, "media/location/") || !strings.HasSuffix(m.StorageKey, ".jpg") {
			t.Fatalf("storage key shape: %q", m.StorageKey)
		}
		if m.FileURL == "" {
			t.Fatalf("file url not set")
		}
	}

	// Reorder reverses the gallery.
	if err := svc.Reorder(ctx, entity, types.MediaEntityLocation, []uuid.UUID{third.ID, second.ID, first.ID}); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	rows, err := svc.ListByEntity(ctx, entity, types.MediaEntityLocation)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != first.ID {
		// Primary still sorts first regardless of display order.
		t.Fatalf("listing after reorder: %+v", rows)
	}

	// A reorder addressed at one entity must not touch another's rows.
	other := uuid.New()
	stray := upload("d.jpg")
	err = svc.Reorder(ctx, other, types.MediaEntityLocation, []uuid.UUID{stray.ID})
	if !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Reorder with foreign media: err=%v, want BAD_REQUEST", err)
	}
	kept, err := svc.ListByEntity(ctx, entity, types.MediaEntityLocation)
	if err != nil {
		t.Fatalf("ListByEntity after rejected reorder: %v", err)
	}
	for _, m := range kept {
		if m.ID == stray.ID && m.DisplayOrder != 3 {
			t.Fatalf("rejected reorder rewrote display order: %d", m.DisplayOrder)
		}
	}
}
