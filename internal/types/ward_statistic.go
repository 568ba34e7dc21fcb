package types

import (
	"time"

	"github.com/google/uuid"
)

// WardStatistic is one row of one ward-keyed indicator. Every dataset
// shares this table; the registry definition owns the category enum.
// The composite unique index is the authoritative guard for the
// natural key, the in-transaction duplicate pre-check only exists to
// produce a friendlier message.
type WardStatistic struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DatasetSlug string    `gorm:"column:dataset_slug;not null;index;uniqueIndex:idx_ward_statistic_natural_key" json:"dataset_slug"`
	WardNumber  int       `gorm:"column:ward_number;not null;uniqueIndex:idx_ward_statistic_natural_key" json:"ward_number"`
	Category    string    `gorm:"column:category;not null;uniqueIndex:idx_ward_statistic_natural_key" json:"category"`
	// Empty string, not NULL, for datasets without a gender dimension
	// so the unique index covers every row.
	Gender    string    `gorm:"column:gender;not null;default:'';uniqueIndex:idx_ward_statistic_natural_key" json:"gender,omitempty"`
	Value     float64   `gorm:"column:value;type:numeric(14,2);not null" json:"value"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (WardStatistic) TableName() string { return "ward_statistic" }

// LegacyWardStatistic maps the pre-migration acme table. It is only
// ever read, and only when the current table has no rows for a filter.
type LegacyWardStatistic struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Dataset    string  `gorm:"column:dataset"`
	Ward       int     `gorm:"column:ward"`
	GroupName  string  `gorm:"column:group_name"`
	Sex        string  `gorm:"column:sex"`
	CountValue float64 `gorm:"column:count_value"`
}

func (LegacyWardStatistic) TableName() string { return "acme_ward_statistics" }

// SummaryRow is one grouped-sum line of a dataset summary.
type SummaryRow struct {
	Category string  `json:"category,omitempty" gorm:"column:category"`
	Gender   string  `json:"gender,omitempty" gorm:"column:gender"`
	Ward     int     `json:"ward_number,omitempty" gorm:"column:ward_number"`
	Total    float64 `json:"total" gorm:"column:total"`
}
