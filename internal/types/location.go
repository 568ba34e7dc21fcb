package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LocationKindSettlement     = "settlement"
	LocationKindReligiousPlace = "religious-place"
	LocationKindGrazingArea    = "grazing-area"
	LocationKindTouristSite    = "tourist-site"
	LocationKindPublicBuilding = "public-building"
)

// Location is a named, optionally geometry-bearing place inside the
// municipality (settlements, grazing areas, religious places, ...).
// Slug is the human-readable identifier used in public page URLs.
type Location struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug        string    `gorm:"column:slug;uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Kind        string    `gorm:"column:kind;not null;index" json:"kind"`
	WardNumber  int       `gorm:"column:ward_number;index" json:"ward_number"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	// Geometry columns are written through ST_GeomFromGeoJSON and read
	// back through ST_AsGeoJSON into the transient fields below.
	Point          string         `gorm:"column:point;type:geometry(Point,4326)" json:"-"`
	Polygon        string         `gorm:"column:polygon;type:geometry(Polygon,4326)" json:"-"`
	PointGeoJSON   datatypes.JSON `gorm:"-" json:"point,omitempty"`
	PolygonGeoJSON datatypes.JSON `gorm:"-" json:"polygon,omitempty"`
	Attributes     datatypes.JSON `gorm:"column:attributes;type:jsonb" json:"attributes,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Location) TableName() string { return "location" }
