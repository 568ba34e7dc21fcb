package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
	redisclient "github.com/fernsky/delivery-admin-sub005/internal/clients/redis"
	"github.com/fernsky/delivery-admin-sub005/internal/logger"
	"github.com/fernsky/delivery-admin-sub005/internal/repos"
	"github.com/fernsky/delivery-admin-sub005/internal/types"
	"github.com/fernsky/delivery-admin-sub005/internal/utils"
)

const (
	slugProbeLimit    = 100
	slugCreateRetries = 3
)

const locationCachePrefix = "dp:locations:"

type LocationInput struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	WardNumber  int            `json:"ward_number"`
	Description string         `json:"description"`
	Attributes  datatypes.JSON `json:"attributes"`
	Point       []float64      `json:"point"`
	Polygon     [][][]float64  `json:"polygon"`
}

type LocationPage struct {
	Locations []*types.Location `json:"locations"`
	Total     int64             `json:"total"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	ViewType  string            `json:"view_type"`
}

type LocationService interface {
	List(ctx context.Context, f repos.LocationFilter, viewType string) (*LocationPage, error)
	GetBySlug(ctx context.Context, slug string) (*types.Location, error)
	Create(ctx context.Context, in LocationInput) (*types.Location, error)
	Update(ctx context.Context, id uuid.UUID, in LocationInput) (*types.Location, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type locationService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.LocationRepo
	cache redisclient.QueryCache
}

func NewLocationService(db *gorm.DB, baseLog *logger.Logger, repo repos.LocationRepo, cache redisclient.QueryCache) LocationService {
	serviceLog := baseLog.With("service", "LocationService")
	return &locationService{db: db, log: serviceLog, repo: repo, cache: cache}
}

var locationKinds = map[string]bool{
	types.LocationKindSettlement:     true,
	types.LocationKindReligiousPlace: true,
	types.LocationKindGrazingArea:    true,
	types.LocationKindTouristSite:    true,
	types.LocationKindPublicBuilding: true,
}

func (s *locationService) validate(in LocationInput) (repos.LocationGeometry, error) {
	if strings.TrimSpace(in.Name) == "" {
		return repos.LocationGeometry{}, apperr.BadRequest("location name is required")
	}
	if !locationKinds[in.Kind] {
		return repos.LocationGeometry{}, apperr.BadRequest("unknown location kind %q", in.Kind)
	}
	if in.WardNumber < 0 {
		return repos.LocationGeometry{}, apperr.BadRequest("ward number must not be negative")
	}
	pointJSON, err := PointGeoJSON(in.Point)
	if err != nil {
		return repos.LocationGeometry{}, err
	}
	polygonJSON, err := PolygonGeoJSON(in.Polygon)
	if err != nil {
		return repos.LocationGeometry{}, err
	}
	return repos.LocationGeometry{PointJSON: pointJSON, PolygonJSON: polygonJSON}, nil
}

func (s *locationService) List(ctx context.Context, f repos.LocationFilter, viewType string) (*LocationPage, error) {
	switch viewType {
	case "", "table", "grid":
		if f.PageSize <= 0 {
			f.PageSize = 20
		}
		if f.PageSize > 100 {
			f.PageSize = 100
		}
	case "map":
		// The map wants every geometry at once.
		f.Page, f.PageSize = 0, 0
	default:
		return nil, apperr.BadRequest("unknown view type %q", viewType)
	}

	key := locationCacheKey(f, viewType)
	if s.cache != nil {
		var cached LocationPage
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warn("cache read failed, falling through to db", "key", key, "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	locations, total, err := s.repo.List(ctx, nil, f)
	if err != nil {
		s.log.Error("location list failed", "error", err)
		return nil, apperr.Internal(err)
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	result := &LocationPage{
		Locations: locations,
		Total:     total,
		Page:      page,
		PageSize:  f.PageSize,
		ViewType:  viewType,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return result, nil
}

func locationCacheKey(f repos.LocationFilter, viewType string) string {
	kind, ward := "", ""
	if f.Kind != nil {
		kind = *f.Kind
	}
	if f.WardNumber != nil {
		ward = fmt.Sprintf("%d", *f.WardNumber)
	}
	return fmt.Sprintf("%skind=%s:ward=%s:page=%d:size=%d:view=%s",
		locationCachePrefix, kind, ward, f.Page, f.PageSize, viewType)
}

func (s *locationService) GetBySlug(ctx context.Context, slug string) (*types.Location, error) {
	loc, err := s.repo.GetBySlug(ctx, nil, slug)
	if err != nil {
		s.log.Error("location lookup failed", "slug", slug, "error", err)
		return nil, apperr.Internal(err)
	}
	if loc == nil {
		return nil, apperr.NotFound("no location with slug %q", slug)
	}
	return loc, nil
}

// assignSlug probes inside the caller's transaction: base name, then
// base-1, base-2... until a free slug turns up. The unique index on
// slug is the backstop for two creates racing past the probe.
func (s *locationService) assignSlug(ctx context.Context, tx *gorm.DB, name string) (string, error) {
	base := utils.Slugify(name)
	for n := 0; n < slugProbeLimit; n++ {
		candidate := utils.SlugWithSuffix(base, n)
		taken, err := s.repo.SlugExists(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.Conflict("could not find a free slug for %q after %d attempts", name, slugProbeLimit)
}

func (s *locationService) Create(ctx context.Context, in LocationInput) (*types.Location, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	geom, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loc := &types.Location{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Kind:        in.Kind,
		WardNumber:  in.WardNumber,
		Description: in.Description,
		Attributes:  in.Attributes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// A writer racing past the probe trips the unique index on slug;
	// the next attempt re-probes and lands on the next free suffix.
	for attempt := 0; attempt < slugCreateRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			slug, err := s.assignSlug(ctx, tx, loc.Name)
			if err != nil {
				return err
			}
			loc.Slug = slug
			return s.repo.Create(ctx, tx, loc, geom)
		})
		if err == nil {
			s.invalidate(ctx)
			return loc, nil
		}
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.log.Warn("location slug taken concurrently, re-probing", "slug", loc.Slug, "attempt", attempt+1)
			continue
		}
		s.log.Error("location create failed", "name", in.Name, "error", err)
		return nil, apperr.Internal(err)
	}
	return nil, apperr.Conflict("slug for %q kept colliding after %d attempts, retry the request", in.Name, slugCreateRetries)
}

func (s *locationService) Update(ctx context.Context, id uuid.UUID, in LocationInput) (*types.Location, error) {
	if err := requireElevated(ctx); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, apperr.BadRequest("location id is required for update")
	}
	geom, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var updated *types.Location
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return apperr.NotFound("no location with id %s", id)
		}
		// Slug stays stable across renames; public URLs keep working.
		existing.Name = strings.TrimSpace(in.Name)
		existing.Kind = in.Kind
		existing.WardNumber = in.WardNumber
		existing.Description = in.Description
		existing.Attributes = in.Attributes
		existing.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, existing, geom); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		s.log.Error("location update failed", "id", id, "error", err)
		return nil, apperr.Internal(err)
	}

	s.invalidate(ctx)
	return updated, nil
}

func (s *locationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := requireElevated(ctx); err != nil {
		return err
	}
	affected, err := s.repo.DeleteByID(ctx, nil, id)
	if err != nil {
		s.log.Error("location delete failed", "id", id, "error", err)
		return apperr.Internal(err)
	}
	if affected == 0 {
		return apperr.NotFound("no location with id %s", id)
	}
	s.invalidate(ctx)
	return nil
}

func (s *locationService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePrefix(ctx, locationCachePrefix); err != nil {
		s.log.Warn("location cache invalidation failed", "error", err)
	}
}
