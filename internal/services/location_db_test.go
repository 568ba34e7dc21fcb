package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/repos/testutil"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

// blindSlugRepo reports the first probed slug as free regardless of the
// table, standing in for a writer that commits the same slug between
// the probe and the insert.
type blindSlugRepo struct {
	repos.LocationRepo
	misses int
}

func (r *blindSlugRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	if r.misses > 0 {
		r.misses--
		return false, nil
	}
	return r.LocationRepo.SlugExists(ctx, tx, slug)
}

func TestLocationServiceCreateAssignsUniqueSlugs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := repos.NewLocationRepo(tx, testutil.Logger(t))
	svc := NewLocationService(tx, testutil.Logger(t), repo, nil)

	ctx := adminContext()
	in := LocationInput{
		Name:       "Kalika Mandir",
		Kind:       types.LocationKindReligiousPlace,
		WardNumber: 4,
		Point:      []float64{84.1234, 28.2096},
	}

	first, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if first.Slug != "kalika-mandir" {
		t.Fatalf("first slug: %q", first.Slug)
	}

	// Same name again probes to the next free suffix.
	second, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.Slug != "kalika-mandir-1" {
		t.Fatalf("second slug: %q", second.Slug)
	}
	third, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create third: %v", err)
	}
	if third.Slug != "kalika-mandir-2" {
		t.Fatalf("third slug: %q", third.Slug)
	}

	// Rename keeps the original slug.
	renamed, err := svc.Update(ctx, first.ID, LocationInput{
		Name:       "Kalika Temple",
		Kind:       types.LocationKindReligiousPlace,
		WardNumber: 4,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if renamed.Slug != "kalika-mandir" || renamed.Name != "Kalika Temple" {
		t.Fatalf("rename changed the slug: %+v", renamed)
	}

	if _, err := svc.Update(ctx, uuid.New(), in); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("Update missing id: err=%v, want NOT_FOUND", err)
	}

	if got, err := svc.GetBySlug(ctx, "kalika-mandir-1"); err != nil || got == nil || got.ID != second.ID {
		t.Fatalf("GetBySlug probe result: got=%+v err=%v", got, err)
	}
}

func TestLocationServiceCreateRetriesOnSlugRace(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := repos.NewLocationRepo(tx, testutil.Logger(t))
	svc := NewLocationService(tx, testutil.Logger(t), repo, nil)
	ctx := adminContext()

	in := LocationInput{
		Name:       "Ward 3 Office",
		Kind:       types.LocationKindPublicBuilding,
		WardNumber: 3,
		Point:      []float64{84.0012, 28.1987},
	}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("seed Create: %v", err)
	}

	// The racing creator never sees the seeded row during its probe,
	// hits the unique index, and must land on the next suffix rather
	// than surface the conflict.
	raced := NewLocationService(tx, testutil.Logger(t), &blindSlugRepo{LocationRepo: repo, misses: 1}, nil)
	loc, err := raced.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create after slug race: %v", err)
	}
	if loc.Slug != "ward-3-office-1" {
		t.Fatalf("raced slug: %q, want ward-3-office-1", loc.Slug)
	}
}
