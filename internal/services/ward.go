package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
)

type WardInput struct {
	WardNumber int           `json:"ward_number"`
	Name       string        `json:"name"`
	AreaSqKm   float64       `json:"area_sq_km"`
	Geometry   [][][]float64 `json:"geometry"`
}

type WardService interface {
	List(ctx context.Context) ([]*types.Ward, error)
	GetByNumber(ctx context.Context, wardNumber int) (*types.Ward, error)
	// Upsert creates the ward on first sight of its number and
	// replaces name/area/boundary afterwards.
	Upsert(ctx context.Context, in WardInput) (*types.Ward, error)
}

type wardService struct {
	db   *gorm.DB
	log  *logger.Logger
	repo repos.WardRepo
}

func NewWardService(db *gorm.DB, baseLog *logger.Logger, repo repos.WardRepo) WardService {
	serviceLog := baseLog.With("service", "WardService")
	return &wardService{db: db, log: serviceLog, repo: repo}
}

func (s *wardService) List(ctx context.Context) ([]*types.Ward, error) {
	wards, err := s.repo.List(ctx, nil)
	if err != nil {
		s.log.Error("ward list failed", "error", err)
		return nil, apperr.Internal(err)
	}
	return wards, nil
}

func (s *wardService) GetByNumber(ctx context.Context, wardNumber int) (*types.Ward, error) {
	ward, err := s.repo.GetByNumber(ctx, nil, wardNumber)
	if err != nil {
		s.log.Error("ward lookup failed", "ward_number", wardNumber, "error", err)
		return nil, apperr.Internal(err)
	}
	if ward == nil {
		return nil, apperr.NotFound("no ward with number %d", wardNumber)
	}
	return ward, nil
}

func (s *wardService) Upsert(ctx context.Context, in WardInput) (*types.Ward, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	if in.WardNumber < 1 {
		return nil, apperr.BadRequest("ward number must be 1 or greater, got %d", in.WardNumber)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.BadRequest("ward name is required")
	}
	if in.AreaSqKm < 0 {
		return nil, apperr.BadRequest("ward area must not be negative")
	}
	geometryJSON, err := PolygonGeoJSON(in.Geometry)
	if err != nil {
		return nil, err
	}

	var out *types.Ward
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByNumber(ctx, tx, in.WardNumber)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if existing == nil {
			ward := &types.Ward{
				ID:         uuid.New(),
				WardNumber: in.WardNumber,
				Name:       strings.TrimSpace(in.Name),
				AreaSqKm:   in.AreaSqKm,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.repo.Create(ctx, tx, ward, geometryJSON); err != nil {
				return err
			}
			out = ward
			return nil
		}
		existing.Name = strings.TrimSpace(in.Name)
		existing.AreaSqKm = in.AreaSqKm
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, existing, geometryJSON); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("ward %d was created concurrently, retry the request", in.WardNumber)
		}
		s.log.Error("ward upsert failed", "ward_number", in.WardNumber, "error", err)
		return nil, apperr.Internal(err)
	}
	return out, nil
}
