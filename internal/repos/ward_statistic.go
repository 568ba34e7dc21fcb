package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

// StatisticFilter narrows a dataset listing. Nil fields match
// everything.
type StatisticFilter struct {
	WardNumber *int
	Category   *string
}

type WardStatisticRepo interface {
	List(ctx context.Context, tx *gorm.DB, slug string, f StatisticFilter) ([]*types.WardStatistic, error)
	// ListLegacy applies the same filter semantics to the acme table
	// and maps its columns onto the current shape. Returned rows carry
	// a zero id: legacy rows are read-only.
	ListLegacy(ctx context.Context, tx *gorm.DB, slug string, f StatisticFilter) ([]*types.WardStatistic, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WardStatistic, error)
	// FindByNaturalKey looks a record up by its (dataset, ward,
	// category, gender) key, skipping excludeID when non-nil so update
	// can re-check uniqueness against everything but itself.
	FindByNaturalKey(ctx context.Context, tx *gorm.DB, slug string, ward int, category, gender string, excludeID uuid.UUID) (*types.WardStatistic, error)
	Create(ctx context.Context, tx *gorm.DB, rec *types.WardStatistic) error
	Update(ctx context.Context, tx *gorm.DB, rec *types.WardStatistic) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	SummaryByCategory(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SummaryRow, error)
	SummaryByWard(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SummaryRow, error)
}

type wardStatisticRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWardStatisticRepo(db *gorm.DB, baseLog *logger.Logger) WardStatisticRepo {
	repoLog := baseLog.With("repo", "WardStatisticRepo")
	return &wardStatisticRepo{db: db, log: repoLog}
}

func (r *wardStatisticRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func applyStatisticFilter(q *gorm.DB, f StatisticFilter) *gorm.DB {
	if f.WardNumber != nil {
		q = q.Where("ward_number = ?", *f.WardNumber)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	return q
}

func (r *wardStatisticRepo) List(ctx context.Context, tx *gorm.DB, slug string, f StatisticFilter) ([]*types.WardStatistic, error) {
	var results []*types.WardStatistic
	q := r.conn(tx).WithContext(ctx).
		Where("dataset_slug = ?", slug)
	q = applyStatisticFilter(q, f)
	if err := q.Order("ward_number asc").Order("category asc").Order("gender asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *wardStatisticRepo) ListLegacy(ctx context.Context, tx *gorm.DB, slug string, f StatisticFilter) ([]*types.WardStatistic, error) {
	var rows []*types.LegacyWardStatistic
	q := r.conn(tx).WithContext(ctx).
		Where("dataset = ?", slug)
	if f.WardNumber != nil {
		q = q.Where("ward = ?", *f.WardNumber)
	}
	if f.Category != nil {
		q = q.Where("group_name = ?", *f.Category)
	}
	if err := q.Order("ward asc").Order("group_name asc").Order("sex asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	results := make([]*types.WardStatistic, 0, len(rows))
	for _, row := range rows {
		results = append(results, &types.WardStatistic{
			DatasetSlug: slug,
			WardNumber:  row.Ward,
			Category:    row.GroupName,
			Gender:      row.Sex,
			Value:       row.CountValue,
		})
	}
	return results, nil
}

func (r *wardStatisticRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WardStatistic, error) {
	var rec types.WardStatistic
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *wardStatisticRepo) FindByNaturalKey(ctx context.Context, tx *gorm.DB, slug string, ward int, category, gender string, excludeID uuid.UUID) (*types.WardStatistic, error) {
	var rec types.WardStatistic
	q := r.conn(tx).WithContext(ctx).
		Where("dataset_slug = ? AND ward_number = ? AND category = ? AND gender = ?", slug, ward, category, gender)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *wardStatisticRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.WardStatistic) error {
	return r.conn(tx).WithContext(ctx).Create(rec).Error
}

func (r *wardStatisticRepo) Update(ctx context.Context, tx *gorm.DB, rec *types.WardStatistic) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.WardStatistic{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{
			"ward_number": rec.WardNumber,
			"category":    rec.Category,
			"gender":      rec.Gender,
			"value":       rec.Value,
			"updated_at":  rec.UpdatedAt,
		}).Error
}

func (r *wardStatisticRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.WardStatistic{})
	return res.RowsAffected, res.Error
}

func (r *wardStatisticRepo) SummaryByCategory(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SummaryRow, error) {
	var rows []*types.SummaryRow
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.WardStatistic{}).
		Select("category, sum(value) as total").
		Where("dataset_slug = ?", slug).
		Group("category").
		Order("category asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *wardStatisticRepo) SummaryByWard(ctx context.Context, tx *gorm.DB, slug string) ([]*types.SummaryRow, error) {
	var rows []*types.SummaryRow
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.WardStatistic{}).
		Select("ward_number, sum(value) as total").
		Where("dataset_slug = ?", slug).
		Group("ward_number").
		Order("ward_number asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
