package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/datasets"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/requestdata"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func adminContext() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: uuid.New(),
		Role:   requestdata.RoleAdmin,
	})
}

func viewerContext() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: uuid.New(),
		Role:   requestdata.RoleViewer,
	})
}

// fakeStatisticRepo serves canned rows and records which methods ran.
type fakeStatisticRepo struct {
	rows        []*types.WardStatistic
	legacyRows  []*types.WardStatistic
	listCalls   int
	legacyCalls int
	deleted     int64
	deleteCalls int
	writes      int
}

func (f *fakeStatisticRepo) List(ctx context.Context, tx *gorm.DB, slug string, fl repos.StatisticFilter) ([]*types.WardStatistic, error) {
	f.listCalls++
	return f.rows, nil
}

func (f *fakeStatisticRepo) ListLegacy(ctx context.Context, tx *gorm.DB, slug string, fl repos.StatisticFilter) ([]*types.WardStatistic, error) {
	f.legacyCalls++
	return f.legacyRows, nil
}

func (f *fakeStatisticRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WardStatistic, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStatisticRepo) FindByNaturalKey(ctx context.Context, tx *gorm.DB, slug string, ward int, category, gender string, excludeID uuid.UUID) (*types.WardStatistic, error) {
	for _, r := range f.rows {
		if r.ID == excludeID {
			continue
		}
		if r.DatasetSlug == slug && r.WardNumber == ward && r.Category == category && r.Gender == gender {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStatisticRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.WardStatistic) error {
	f.writes++
	f.rows = append(f.rows, rec)
	return nil
}

func (f *fakeStatisticRepo) Update(ctx context.Context, tx *gorm.DB, rec *types.WardStatistic) error {
	f.writes++
	return nil
}

func (f *fakeStatisticRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	f.deleteCalls++
	return f.deleted, nil
}

func (f *fakeStatisticRepo) SummaryByCategory(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SummaryRow, error) {
	return []*types.SummaryRow{{Category: "HINDU", Total: 100}}, nil
}

func (f *fakeStatisticRepo) SummaryByWard(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SummaryRow, error) {
	return []*types.SummaryRow{{Ward: 1, Total: 100}}, nil
}

// fakeCache is an in-memory stand-in for the redis query cache.
type fakeCache struct {
	store       map[string][]byte
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, val interface{}) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.store[key] = raw
	return nil
}

func (c *fakeCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	c.invalidated = append(c.invalidated, prefix)
	for key := range c.store {
		if strings.HasPrefix(key, prefix) {
			delete(c.store, key)
		}
	}
	return nil
}

func (c *fakeCache) Close() error { return nil }

func TestStatisticServiceListDatasets(t *testing.T) {
	svc := NewStatisticService(nil, testLogger(t), &fakeStatisticRepo{}, nil)
	defs := svc.ListDatasets()
	if len(defs) == 0 {
		t.Fatalf("ListDatasets returned nothing")
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Slug >= defs[i].Slug {
			t.Fatalf("ListDatasets not sorted: %q before %q", defs[i-1].Slug, defs[i].Slug)
		}
	}
}

func TestStatisticServiceGetAllSortsByEnumOrder(t *testing.T) {
	slug := datasets.SlugReligionPopulation
	def, ok := datasets.Get(slug)
	if !ok {
		t.Fatalf("religion population definition missing from registry")
	}
	// Feed rows in reverse enum order; the service must emit them in
	// declared category order.
	repo := &fakeStatisticRepo{rows: []*types.WardStatistic{
		{ID: uuid.New(), DatasetSlug: slug, WardNumber: 1, Category: def.Categories[2], Value: 3},
		{ID: uuid.New(), DatasetSlug: slug, WardNumber: 1, Category: def.Categories[0], Value: 1},
		{ID: uuid.New(), DatasetSlug: slug, WardNumber: 1, Category: def.Categories[1], Value: 2},
	}}
	svc := NewStatisticService(nil, testLogger(t), repo, nil)

	records, err := svc.GetAll(context.Background(), slug, repos.StatisticFilter{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	for i, rec := range records {
		if rec.Category != def.Categories[i] {
			t.Fatalf("position %d: got %q, want %q", i, rec.Category, def.Categories[i])
		}
	}
	if repo.legacyCalls != 0 {
		t.Fatalf("legacy table consulted although the primary had rows")
	}
}

func TestStatisticServiceGetAllLegacyFallback(t *testing.T) {
	slug := datasets.SlugAgePopulation
	legacy := []*types.WardStatistic{
		{DatasetSlug: slug, WardNumber: 3, Category: "AGE_0_4", Gender: datasets.GenderMale, Value: 40},
	}
	repo := &fakeStatisticRepo{legacyRows: legacy}
	svc := NewStatisticService(nil, testLogger(t), repo, nil)

	records, err := svc.GetAll(context.Background(), slug, repos.StatisticFilter{})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(records) != 1 || records[0].Value != 40 {
		t.Fatalf("legacy fallback rows: %+v", records)
	}
	if repo.legacyCalls != 1 {
		t.Fatalf("legacy table not consulted")
	}

	// Datasets without a legacy table never fall back.
	noLegacy := &fakeStatisticRepo{}
	svc = NewStatisticService(nil, testLogger(t), noLegacy, nil)
	if _, err := svc.GetAll(context.Background(), datasets.SlugHouseOwnership, repos.StatisticFilter{}); err != nil {
		t.Fatalf("GetAll without legacy: %v", err)
	}
	if noLegacy.legacyCalls != 0 {
		t.Fatalf("fallback ran for a dataset with no legacy table")
	}
}

func TestStatisticServiceGetAllUsesCache(t *testing.T) {
	slug := datasets.SlugReligionPopulation
	def, ok := datasets.Get(slug)
	if !ok {
		t.Fatalf("religion population definition missing from registry")
	}
	repo := &fakeStatisticRepo{rows: []*types.WardStatistic{
		{ID: uuid.New(), DatasetSlug: slug, WardNumber: 1, Category: def.Categories[0], Value: 9},
	}}
	cache := newFakeCache()
	svc := NewStatisticService(nil, testLogger(t), repo, cache)

	ctx := context.Background()
	if _, err := svc.GetAll(ctx, slug, repos.StatisticFilter{}); err != nil {
		t.Fatalf("first GetAll: %v", err)
	}
	if _, err := svc.GetAll(ctx, slug, repos.StatisticFilter{}); err != nil {
		t.Fatalf("second GetAll: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("second read hit the db: listCalls=%d", repo.listCalls)
	}
}

func TestStatisticServiceUnknownDataset(t *testing.T) {
	svc := NewStatisticService(nil, testLogger(t), &fakeStatisticRepo{}, nil)
	if _, err := svc.GetAll(context.Background(), "no-such-dataset", repos.StatisticFilter{}); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("GetAll unknown slug: err=%v, want NOT_FOUND", err)
	}
	if _, err := svc.Summary(context.Background(), "no-such-dataset", "category"); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("Summary unknown slug: err=%v, want NOT_FOUND", err)
	}
}

func TestStatisticServiceSummaryGroupBy(t *testing.T) {
	svc := NewStatisticService(nil, testLogger(t), &fakeStatisticRepo{}, nil)
	slug := datasets.SlugReligionPopulation

	if rows, err := svc.Summary(context.Background(), slug, ""); err != nil || len(rows) != 1 || rows[0].Category == "" {
		t.Fatalf("Summary default: rows=%+v err=%v", rows, err)
	}
	if rows, err := svc.Summary(context.Background(), slug, "ward"); err != nil || len(rows) != 1 || rows[0].Ward != 1 {
		t.Fatalf("Summary by ward: rows=%+v err=%v", rows, err)
	}
	if _, err := svc.Summary(context.Background(), slug, "gender"); !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Summary bad group: err=%v, want BAD_REQUEST", err)
	}
}

func TestStatisticServiceMutationsRequireElevatedRole(t *testing.T) {
	repo := &fakeStatisticRepo{}
	svc := NewStatisticService(nil, testLogger(t), repo, nil)
	slug := datasets.SlugReligionPopulation
	in := datasets.RecordInput{WardNumber: 1, Category: "HINDU", Value: 10}

	contexts := map[string]context.Context{
		"anonymous": context.Background(),
		"viewer":    viewerContext(),
	}
	for name, ctx := range contexts {
		if _, err := svc.Create(ctx, slug, in); !apperr.IsCode(err, apperr.CodeUnauthorized) {
			t.Fatalf("%s Create: err=%v, want UNAUTHORIZED", name, err)
		}
		if _, err := svc.Update(ctx, slug, uuid.New(), in); !apperr.IsCode(err, apperr.CodeUnauthorized) {
			t.Fatalf("%s Update: err=%v, want UNAUTHORIZED", name, err)
		}
		if err := svc.Delete(ctx, slug, uuid.New()); !apperr.IsCode(err, apperr.CodeUnauthorized) {
			t.Fatalf("%s Delete: err=%v, want UNAUTHORIZED", name, err)
		}
	}
	if repo.writes != 0 {
		t.Fatalf("repo written despite missing role: %d", repo.writes)
	}
}

func TestStatisticServiceCreateValidation(t *testing.T) {
	repo := &fakeStatisticRepo{}
	svc := NewStatisticService(nil, testLogger(t), repo, nil)
	ctx := adminContext()

	if _, err := svc.Create(ctx, "no-such-dataset", datasets.RecordInput{WardNumber: 1, Category: "x", Value: 1}); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("Create unknown dataset: err=%v", err)
	}
	if _, err := svc.Create(ctx, datasets.SlugReligionPopulation, datasets.RecordInput{WardNumber: 0, Category: "HINDU", Value: 1}); !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Create invalid ward: err=%v", err)
	}
	if _, err := svc.Create(ctx, datasets.SlugReligionPopulation, datasets.RecordInput{WardNumber: 1, Category: "HINDU", Value: 1.5}); !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Fatalf("Create fractional count: err=%v", err)
	}
	if repo.writes != 0 {
		t.Fatalf("invalid payloads reached the repo: %d writes", repo.writes)
	}
}

func TestStatisticServiceDelete(t *testing.T) {
	cache := newFakeCache()
	slug := datasets.SlugReligionPopulation
	rec := &types.WardStatistic{ID: uuid.New(), DatasetSlug: slug, WardNumber: 2, Category: "HINDU", Value: 30}
	repo := &fakeStatisticRepo{rows: []*types.WardStatistic{rec}}
	svc := NewStatisticService(nil, testLogger(t), repo, cache)
	ctx := adminContext()

	if err := svc.Delete(ctx, slug, uuid.New()); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("Delete missing: err=%v, want NOT_FOUND", err)
	}
	// The id exists but belongs to another dataset; deleting through
	// this route must not touch the row or either dataset's cache.
	if err := svc.Delete(ctx, datasets.SlugCastePopulation, rec.ID); !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Fatalf("Delete across datasets: err=%v, want NOT_FOUND", err)
	}
	if repo.deleteCalls != 0 {
		t.Fatalf("rejected deletes reached the repo: %d calls", repo.deleteCalls)
	}
	if len(cache.invalidated) != 0 {
		t.Fatalf("cache invalidated although nothing was deleted")
	}

	repo.deleted = 1
	if err := svc.Delete(ctx, slug, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if repo.deleteCalls != 1 {
		t.Fatalf("delete calls: %d, want 1", repo.deleteCalls)
	}
	if len(cache.invalidated) != 1 || !strings.Contains(cache.invalidated[0], slug) {
		t.Fatalf("cache invalidation after delete: %v", cache.invalidated)
	}
}
