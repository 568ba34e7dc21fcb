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

type WardRepo interface {
	List(ctx context.Context, tx *gorm.DB) ([]*types.Ward, error)
	GetByNumber(ctx context.Context, tx *gorm.DB, wardNumber int) (*types.Ward, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Ward, error)
	// Create accepts an optional GeoJSON boundary already validated by
	// the service; geometryJSON == "" leaves the column NULL.
	Create(ctx context.Context, tx *gorm.DB, ward *types.Ward, geometryJSON string) error
	Update(ctx context.Context, tx *gorm.DB, ward *types.Ward, geometryJSON string) error
}

type wardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWardRepo(db *gorm.DB, baseLog *logger.Logger) WardRepo {
	repoLog := baseLog.With("repo", "WardRepo")
	return &wardRepo{db: db, log: repoLog}
}

func (r *wardRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

const wardGeoJSONSelect = `*, ST_AsGeoJSON(geometry) as geometry_text`

type wardRow struct {
	types.Ward
	GeometryText string `gorm:"column:geometry_text"`
}

func wardFromRow(row *wardRow) *types.Ward {
	w := row.Ward
	if row.GeometryText != "" {
		w.GeometryGeoJSON = []byte(row.GeometryText)
	}
	return &w
}

func (r *wardRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Ward, error) {
	var rows []*wardRow
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.Ward{}).
		Select(wardGeoJSONSelect).
		Order("ward_number asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	wards := make([]*types.Ward, 0, len(rows))
	for _, row := range rows {
		wards = append(wards, wardFromRow(row))
	}
	return wards, nil
}

func (r *wardRepo) GetByNumber(ctx context.Context, tx *gorm.DB, wardNumber int) (*types.Ward, error) {
	var row wardRow
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Ward{}).
		Select(wardGeoJSONSelect).
		Where("ward_number = ?", wardNumber).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wardFromRow(&row), nil
}

func (r *wardRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Ward, error) {
	var row wardRow
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Ward{}).
		Select(wardGeoJSONSelect).
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return wardFromRow(&row), nil
}

func (r *wardRepo) Create(ctx context.Context, tx *gorm.DB, ward *types.Ward, geometryJSON string) error {
	values := map[string]interface{}{
		"id":          ward.ID,
		"ward_number": ward.WardNumber,
		"name":        ward.Name,
		"area_sq_km":  ward.AreaSqKm,
		"created_at":  ward.CreatedAt,
		"updated_at":  ward.UpdatedAt,
	}
	if geometryJSON != "" {
		values["geometry"] = clause.Expr{SQL: "ST_GeomFromGeoJSON(?)", Vars: []interface{}{geometryJSON}}
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Ward{}).
		Create(values).Error
}

func (r *wardRepo) Update(ctx context.Context, tx *gorm.DB, ward *types.Ward, geometryJSON string) error {
	values := map[string]interface{}{
		"name":       ward.Name,
		"area_sq_km": ward.AreaSqKm,
		"updated_at": ward.UpdatedAt,
	}
	if geometryJSON != "" {
		values["geometry"] = clause.Expr{SQL: "ST_GeomFromGeoJSON(?)", Vars: []interface{}{geometryJSON}}
	}
	return r.conn(tx).WithContext(ctx).
		Model(&types.Ward{}).
		Where("id = ?", ward.ID).
		Updates(values).Error
}
