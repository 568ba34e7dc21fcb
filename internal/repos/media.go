package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

type MediaRepo interface {
	ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string) ([]*types.Media, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Media, error)
	Create(ctx context.Context, tx *gorm.DB, m *types.Media) error
	// SetPrimary flips the flag for the whole entity in one statement:
	// is_primary = (id = target). There is no window with zero or two
	// primaries.
	SetPrimary(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string, mediaID uuid.UUID) (int64, error)
	UpdateDisplayOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, displayOrder int) error
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	CountByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string) (int64, error)
}

type mediaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo {
	repoLog := baseLog.With("repo", "MediaRepo")
	return &mediaRepo{db: db, log: repoLog}
}

func (r *mediaRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *mediaRepo) ListByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string) ([]*types.Media, error) {
	var results []*types.Media
	if err := r.conn(tx).WithContext(ctx).
		Where("entity_id = ? AND entity_type = ?", entityID, entityType).
		Order("is_primary desc").
		Order("display_order asc").
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *mediaRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Media, error) {
	var m types.Media
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mediaRepo) Create(ctx context.Context, tx *gorm.DB, m *types.Media) error {
	return r.conn(tx).WithContext(ctx).Create(m).Error
}

func (r *mediaRepo) SetPrimary(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string, mediaID uuid.UUID) (int64, error) {
	res := r.conn(tx).WithContext(ctx).Exec(`
		UPDATE "media"
		SET "is_primary" = ("id" = ?), "updated_at" = now()
		WHERE "entity_id" = ? AND "entity_type" = ?
	`, mediaID, entityID, entityType)
	return res.RowsAffected, res.Error
}

func (r *mediaRepo) UpdateDisplayOrder(ctx context.Context, tx *gorm.DB, id uuid.UUID, displayOrder int) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Media{}).
		Where("id = ?", id).
		Update("display_order", displayOrder).Error
}

func (r *mediaRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := r.conn(tx).WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Media{})
	return res.RowsAffected, res.Error
}

func (r *mediaRepo) CountByEntity(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, entityType string) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).
		Model(&types.Media{}).
		Where("entity_id = ? AND entity_type = ?", entityID, entityType).
		Count(&count).Error
	return count, err
}
