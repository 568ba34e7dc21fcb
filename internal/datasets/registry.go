package datasets

import (
	"fmt"
	"math"

	"github.com/fernsky/delivery-admin-sub005/internal/apperr"
)

// ValueKind says how a record's value is interpreted: a whole
// population count or a decimal measure (areas, percentages).
type ValueKind string

const (
	ValueKindCount   ValueKind = "count"
	ValueKindDecimal ValueKind = "decimal"
)

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

// Definition is the metadata for one ward-keyed statistical indicator.
// It is the single source of truth for the category enum: request
// validation, seeding and the public registry listing all read from
// here, so the enum cannot drift between layers.
type Definition struct {
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories"`
	HasGender  bool      `json:"has_gender"`
	ValueKind  ValueKind `json:"value_kind"`
	// HasLegacy marks indicators whose pre-migration rows still live in
	// the acme legacy table and must serve as a read fallback.
	HasLegacy bool `json:"-"`

	categoryIndex map[string]int
}

// RecordInput is the validated payload shape shared by create and
// update.
type RecordInput struct {
	WardNumber int     `json:"ward_number"`
	Category   string  `json:"category"`
	Gender     string  `json:"gender,omitempty"`
	Value      float64 `json:"value"`
}

var genders = map[string]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// Validate checks a payload against the indicator's contract: ward
// number at least 1, category from the closed enum, gender present
// exactly when the indicator carries a gender dimension, and a
// non-negative value that is integral for count indicators.
func (d *Definition) Validate(in RecordInput) error {
	if in.WardNumber < 1 {
		return apperr.BadRequest("ward number must be 1 or greater, got %d", in.WardNumber)
	}
	if _, ok := d.categoryIndex[in.Category]; !ok {
		return apperr.BadRequest("unknown category %q for dataset %q", in.Category, d.Slug)
	}
	if d.HasGender {
		if !genders[in.Gender] {
			return apperr.BadRequest("dataset %q requires gender MALE, FEMALE or OTHER, got %q", d.Slug, in.Gender)
		}
	} else if in.Gender != "" {
		return apperr.BadRequest("dataset %q has no gender dimension", d.Slug)
	}
	if in.Value < 0 {
		return apperr.BadRequest("value must be non-negative, got %v", in.Value)
	}
	if d.ValueKind == ValueKindCount && in.Value != math.Trunc(in.Value) {
		return apperr.BadRequest("dataset %q holds whole counts, got %v", d.Slug, in.Value)
	}
	return nil
}

// CategoryOrder returns the category's position in the declared enum,
// used as the stable secondary sort key for listings. Unknown
// categories sort last.
func (d *Definition) CategoryOrder(category string) int {
	if i, ok := d.categoryIndex[category]; ok {
		return i
	}
	return len(d.Categories)
}

func (d *Definition) ValidCategory(category string) bool {
	_, ok := d.categoryIndex[category]
	return ok
}

// KeyString names a natural key in user-facing conflict messages.
func (d *Definition) KeyString(in RecordInput) string {
	if d.HasGender {
		return fmt.Sprintf("ward %d / %s / %s", in.WardNumber, in.Category, in.Gender)
	}
	return fmt.Sprintf("ward %d / %s", in.WardNumber, in.Category)
}
