package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/fernsky/delivery-admin-sub005/internal/repos/testutil"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

func TestWardRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewWardRepo(db, testutil.Logger(t))

	boundary := `{"type":"Polygon","coordinates":[[[84.0,28.0],[84.5,28.0],[84.5,28.5],[84.0,28.0]]]}`

	w1 := &types.Ward{ID: uuid.New(), WardNumber: 1, Name: "Ward 1", AreaSqKm: 12.5}
	w2 := &types.Ward{ID: uuid.New(), WardNumber: 2, Name: "Ward 2", AreaSqKm: 8.75}
	if err := repo.Create(ctx, tx, w1, boundary); err != nil {
		t.Fatalf("Create with boundary: %v", err)
	}
	if err := repo.Create(ctx, tx, w2, ""); err != nil {
		t.Fatalf("Create without boundary: %v", err)
	}

	if rows, err := repo.List(ctx, tx); err != nil || len(rows) != 2 {
		t.Fatalf("List: err=%v len=%d", err, len(rows))
	}

	got, err := repo.GetByNumber(ctx, tx, 1)
	if err != nil || got == nil || got.Name != "Ward 1" {
		t.Fatalf("GetByNumber: got=%+v err=%v", got, err)
	}
	if len(got.GeometryGeoJSON) == 0 {
		t.Fatalf("GetByNumber: boundary not read back")
	}
	if got, err := repo.GetByNumber(ctx, tx, 99); err != nil || got != nil {
		t.Fatalf("GetByNumber missing: got=%v err=%v", got, err)
	}

	w2.Name = "Ward 2 (renamed)"
	w2.AreaSqKm = 9.0
	if err := repo.Update(ctx, tx, w2, boundary); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, err := repo.GetByID(ctx, tx, w2.ID); err != nil || got == nil || got.Name != "Ward 2 (renamed)" || len(got.GeometryGeoJSON) == 0 {
		t.Fatalf("GetByID after update: got=%+v err=%v", got, err)
	}
}
