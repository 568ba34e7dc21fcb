package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Ward struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WardNumber int       `gorm:"column:ward_number;uniqueIndex;not null" json:"ward_number"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	AreaSqKm   float64   `gorm:"column:area_sq_km;type:numeric(10,4)" json:"area_sq_km"`
	// Boundary polygon in WGS84; written through ST_GeomFromGeoJSON,
	// read back as GeoJSON.
	Geometry        string         `gorm:"column:geometry;type:geometry(Polygon,4326)" json:"-"`
	GeometryGeoJSON datatypes.JSON `gorm:"-" json:"geometry,omitempty"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Ward) TableName() string { return "ward" }
