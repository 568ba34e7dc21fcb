package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	MediaEntityLocation  = "location"
	MediaEntityWard      = "ward"
	MediaEntityTransport = "transport-facility"
	MediaEntityProfile   = "municipality-profile"
)

// Media links one stored object to one domain entity through the
// (entity_id, entity_type) pair. At most one row per entity has
// IsPrimary set; the repo enforces that with a single conditional
// update rather than demote-then-promote.
type Media struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityID     uuid.UUID      `gorm:"column:entity_id;type:uuid;not null;index:idx_media_entity" json:"entity_id"`
	EntityType   string         `gorm:"column:entity_type;not null;index:idx_media_entity" json:"entity_type"`
	StorageKey   string         `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL      string         `gorm:"column:file_url" json:"file_url"`
	MimeType     string         `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes    int64          `gorm:"column:size_bytes" json:"size_bytes"`
	Title        string         `gorm:"column:title" json:"title,omitempty"`
	IsPrimary    bool           `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	DisplayOrder int            `gorm:"column:display_order;not null;default:0" json:"display_order"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Media) TableName() string { return "media" }
