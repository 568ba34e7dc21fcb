package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

// LocationFilter narrows the paginated listing. Page is 1-based;
// PageSize <= 0 disables pagination.
type LocationFilter struct {
	Kind       *string
	WardNumber *int
	Page       int
	PageSize   int
}

// LocationGeometry carries pre-validated GeoJSON strings destined for
// ST_GeomFromGeoJSON. Empty strings leave the columns untouched.
type LocationGeometry struct {
	PointJSON   string
	PolygonJSON string
}

type LocationRepo interface {
	List(ctx context.Context, tx *gorm.DB, f LocationFilter) ([]*types.Location, int64, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Location, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Location, error)
	SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error)
	Create(ctx context.Context, tx *gorm.DB, loc *types.Location, geom LocationGeometry) error
	Update(ctx context.Context, tx *gorm.DB, loc *types.Location, geom LocationGeometry) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	repoLog := baseLog.With("repo", "LocationRepo")
	return &locationRepo{db: db, log: repoLog}
}

func (r *locationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

const locationGeoJSONSelect = `*, ST_AsGeoJSON(point) as point_text, ST_AsGeoJSON(polygon) as polygon_text`

type locationRow struct {
	types.Location
	PointText   string `gorm:"column:point_text"`
	PolygonText string `gorm:"column:polygon_text"`
}

func locationFromRow(row *locationRow) *types.Location {
	loc := row.Location
	if row.PointText != "" {
		loc.PointGeoJSON = []byte(row.PointText)
	}
	if row.PolygonText != "" {
		loc.PolygonGeoJSON = []byte(row.PolygonText)
	}
	return &loc
}

func (r *locationRepo) List(ctx context.Context, tx *gorm.DB, f LocationFilter) ([]*types.Location, int64, error) {
	q := r.conn(tx).WithContext(ctx).Model(&types.Location{})
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.WardNumber != nil {
		q = q.Where("ward_number = ?", *f.WardNumber)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q = q.Select(locationGeoJSONSelect).Order("name asc")
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * f.PageSize).Limit(f.PageSize)
	}

	var rows []*locationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	locations := make([]*types.Location, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, locationFromRow(row))
	}
	return locations, total, nil
}

func (r *locationRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Location, error) {
	var row locationRow
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Location{}).
		Select(locationGeoJSONSelect).
		Where("slug = ?", slug).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return locationFromRow(&row), nil
}

func (r *locationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Location, error) {
	var row locationRow
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Location{}).
		Select(locationGeoJSONSelect).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return locationFromRow(&row), nil
}

func (r *locationRepo) SlugExists(ctx context.Context, tx *gorm.DB, slug string) (bool, error) {
	var count int64
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.Location{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func geometryValues(values map[string]interface{}, geom LocationGeometry) map[string]interface{} {
	if geom.PointJSON != "" {
		values["point"] = clause.Expr{SQL: "ST_GeomFromGeoJSON(?)", Vars: []interface{}{geom.PointJSON}}
	}
	if geom.PolygonJSON != "" {
		values["polygon"] = clause.Expr{SQL: "ST_GeomFromGeoJSON(?)", Vars: []interface{}{geom.PolygonJSON}}
	}
	return values
}

func (r *locationRepo) Create(ctx context.Context, tx *gorm.DB, loc *types.Location, geom LocationGeometry) error {
	values := map[string]interface{}{
		"id":          loc.ID,
		"slug":        loc.Slug,
		"name":        loc.Name,
		"kind":        loc.Kind,
		"ward_number": loc.WardNumber,
		"description": loc.Description,
		"attributes":  loc.Attributes,
		"created_at":  loc.CreatedAt,
		"updated_at":  loc.UpdatedAt,
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Location{}).
		Create(geometryValues(values, geom)).Error
}

func (r *locationRepo) Update(ctx context.Context, tx *gorm.DB, loc *types.Location, geom LocationGeometry) error {
	values := map[string]interface{}{
		"name":        loc.Name,
		"kind":        loc.Kind,
		"ward_number": loc.WardNumber,
		"description": loc.Description,
		"attributes":  loc.Attributes,
		"updated_at":  loc.UpdatedAt,
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Location{}).
		Where("id = ?", loc.ID).
		Updates(geometryValues(values, geom)).Error
}

func (r *locationRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Location{})
	return res.RowsAffected, res.Error
}
