package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	redisclient "github.com/fernsky/delivery-admin-sub005/internal/clients/redis"
	"github.com/fernsky/delivery-admin-sub005/internal/datasets"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/requestdata"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

// StatisticService is the one procedure set behind every ward-keyed
// indicator. Which indicator a call operates on is decided entirely by
// the dataset slug and its registry definition.
type StatisticService interface {
	ListDatasets() []*datasets.Definition
	GetAll(ctx context.Context, slug string, f repos.StatisticFilter) ([]*types.WardStatistic, error)
	GetByWard(ctx context.Context, slug string, wardNumber int) ([]*types.WardStatistic, error)
	Summary(ctx context.Context, slug, groupBy string) ([]*types.SummaryRow, error)
	Create(ctx context.Context, slug string, in datasets.RecordInput) (*types.WardStatistic, error)
	Update(ctx context.Context, slug string, id uuid.UUID, in datasets.RecordInput) (*types.WardStatistic, error)
	Delete(ctx context.Context, slug string, id uuid.UUID) error
}

type statisticService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.WardStatisticRepo
	cache redisclient.QueryCache
}

// NewStatisticService accepts a nil cache; reads then always hit the
// database.
func NewStatisticService(db *gorm.DB, baseLog *logger.Logger, repo repos.WardStatisticRepo, cache redisclient.QueryCache) StatisticService {
	serviceLog := baseLog.With("service", "StatisticService")
	return &statisticService{db: db, log: serviceLog, repo: repo, cache: cache}
}

func (s *statisticService) ListDatasets() []*datasets.Definition {
	return datasets.All()
}

func definitionFor(slug string) (*datasets.Definition, error) {
	def, ok := datasets.Get(slug)
	if !ok {
		return nil, apperr.NotFound("unknown dataset %q", slug)
	}
	return def, nil
}

func requireElevated(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if !rd.IsElevated() {
		return apperr.Unauthorized("this operation requires an administrator role")
	}
	return nil
}

func cacheKey(slug string, f repos.StatisticFilter) string {
	ward, category := "", ""
	if f.WardNumber != nil {
		ward = fmt.Sprintf("%d", *f.WardNumber)
	}
	if f.Category != nil {
		category = *f.Category
	}
	return fmt.Sprintf("dp:stats:%s:ward=%s:cat=%s", slug, ward, category)
}

func cachePrefix(slug string) string {
	return fmt.Sprintf("dp:stats:%s:", slug)
}

func (s *statisticService) GetAll(ctx context.Context, slug string, f repos.StatisticFilter) ([]*types.WardStatistic, error) {
	def, err := definitionFor(slug)
	if err != nil {
		return nil, err
	}
	if f.Category != nil && !def.ValidCategory(*f.Category) {
		return nil, apperr.BadRequest("unknown category %q for dataset %q", *f.Category, slug)
	}

	key := cacheKey(slug, f)
	if s.cache != nil {
		var cached []*types.WardStatistic
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warn("cache read failed, falling through to db", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	records, err := s.repo.List(ctx, nil, slug, f)
	if err != nil {
		s.log.Error("dataset list failed", "dataset", slug, "error", err)
		return nil, apperr.Internal(err)
	}
	// Pre-migration rows only matter while the current table has
	// nothing for this filter.
	if len(records) == 0 && def.HasLegacy {
		records, err = s.repo.ListLegacy(ctx, nil, slug, f)
		if err != nil {
			s.log.Error("legacy dataset list failed", "dataset", slug, "error", err)
			return nil, apperr.Internal(err)
		}
	}
	sortRecords(def, records)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, records); err != nil {
			s.log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return records, nil
}

func (s *statisticService) GetByWard(ctx context.Context, slug string, wardNumber int) ([]*types.WardStatistic, error) {
	if wardNumber < 1 {
		return nil, apperr.BadRequest("ward number must be 1 or greater, got %d", wardNumber)
	}
	return s.GetAll(ctx, slug, repos.StatisticFilter{WardNumber: &wardNumber})
}

func (s *statisticService) Summary(ctx context.Context, slug, groupBy string) ([]*types.SummaryRow, error) {
	if _, err := definitionFor(slug); err != nil {
		return nil, err
	}
	var (
		rows []*types.SummaryRow
		err  error
	)
	switch groupBy {
	case "", "category":
		rows, err = s.repo.SummaryByCategory(ctx, nil, slug)
	case "ward":
		rows, err = s.repo.SummaryByWard(ctx, nil, slug)
	default:
		return nil, apperr.BadRequest("summary groups by %q or %q, got %q", "category", "ward", groupBy)
	}
	if err != nil {
		s.log.Error("dataset summary failed", "dataset", slug, "group_by", groupBy, "error", err)
		return nil, apperr.Internal(err)
	}
	return rows, nil
}

func (s *statisticService) Create(ctx context.Context, slug string, in datasets.RecordInput) (*types.WardStatistic, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	def, err := definitionFor(slug)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &types.WardStatistic{
		ID:          uuid.New(),
		DatasetSlug: slug,
		WardNumber:  in.WardNumber,
		Category:    in.Category,
		Gender:      in.Gender,
		Value:       in.Value,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByNaturalKey(ctx, tx, slug, in.WardNumber, in.Category, in.Gender, uuid.Nil)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict("a record already exists for %s", def.KeyString(in))
		}
		return s.repo.Create(ctx, tx, rec)
	})
	if err != nil {
		return nil, s.mutationError(err, "create", slug, def, in)
	}

	s.invalidate(ctx, slug)
	return rec, nil
}

func (s *statisticService) Update(ctx context.Context, slug string, id uuid.UUID, in datasets.RecordInput) (*types.WardStatistic, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	def, err := definitionFor(slug)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apperr.BadRequest("record id is required for update")
	}
	if err := def.Validate(in); err != nil {
		return nil, err
	}

	var updated *types.WardStatistic
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil || existing.DatasetSlug != slug {
			return apperr.NotFound("no record with id %s in dataset %q", id, slug)
		}
		// The caller can move the record to a different natural key, so
		// uniqueness is re-checked against everything but this row.
		collision, err := s.repo.FindByNaturalKey(ctx, tx, slug, in.WardNumber, in.Category, in.Gender, id)
		if err != nil {
			return err
		}
		if collision != nil {
			return apperr.Conflict("a record already exists for %s", def.KeyString(in))
		}

		existing.WardNumber = in.WardNumber
		existing.Category = in.Category
		existing.Gender = in.Gender
		existing.Value = in.Value
		existing.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, s.mutationError(err, "update", slug, def, in)
	}

	s.invalidate(ctx, slug)
	return updated, nil
}

func (s *statisticService) Delete(ctx context.Context, slug string, id uuid.UUID) error {
	if err := requireElevated(ctx); err != nil {
		return err
	}
	if _, err := definitionFor(slug); err != nil {
		return err
	}
	if id == uuid.Nil {
		return apperr.BadRequest("record id is required for delete")
	}

	// The id must belong to the addressed dataset, otherwise a caller
	// could delete through another dataset's route and the wrong cache
	// prefix would be invalidated.
	existing, err := s.repo.GetByID(ctx, nil, id)
	if err != nil {
		s.log.Error("dataset lookup failed", "dataset", slug, "id", id, "error", err)
		return apperr.Internal(err)
	}
	if existing == nil || existing.DatasetSlug != slug {
		return apperr.NotFound("no record with id %s in dataset %q", id, slug)
	}

	affected, err := s.repo.DeleteByID(ctx, nil, id)
	if err != nil {
		s.log.Error("dataset delete failed", "dataset", slug, "id", id, "error", err)
		return apperr.Internal(err)
	}
	if affected == 0 {
		return apperr.NotFound("no record with id %s in dataset %q", id, slug)
	}

	s.invalidate(ctx, slug)
	return nil
}

// mutationError keeps the typed domain errors and maps everything else:
// a unique-constraint trip (racing writers that both passed the
// pre-check) surfaces as the same conflict the pre-check would have
// produced.
func (s *statisticService) mutationError(err error, op, slug string, def *datasets.Definition, in datasets.RecordInput) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("a record already exists for %s", def.KeyString(in))
	}
	s.log.Error("dataset mutation failed", "op", op, "dataset", slug, "error", err)
	return apperr.Internal(err)
}

func (s *statisticService) invalidate(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, cachePrefix(slug)); err != nil {
		s.log.Warn("cache invalidation failed", "dataset", slug, "error", err)
	}
}

// sortRecords orders a listing by ward, then category in the order the
// enum declares, then gender. SQL sorts categories alphabetically; the
// enum order is what the charts expect.
func sortRecords(def *datasets.Definition, records []*types.WardStatistic) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.WardNumber != b.WardNumber {
			return a.WardNumber < b.WardNumber
		}
		if oa, ob := def.CategoryOrder(a.Category), def.CategoryOrder(b.Category); oa != ob {
			return oa < ob
		}
		return a.Gender < b.Gender
	})
}
