package datasets

import "sort"

// The municipality profile publishes one indicator per demographic or
// economic table on the public site. Adding an indicator here is the
// whole job: validation, routing and the registry listing pick it up.

const (
	SlugAgePopulation       = "ward-age-wise-population"
	SlugReligionPopulation  = "ward-wise-religion-population"
	SlugCastePopulation     = "ward-wise-caste-population"
	SlugMotherTongue        = "ward-wise-mother-tongue-population"
	SlugMajorOccupation     = "ward-wise-major-occupation"
	SlugLiteracyStatus      = "ward-wise-literacy-status"
	SlugHouseOwnership      = "ward-wise-house-ownership"
	SlugDrinkingWaterSource = "ward-wise-drinking-water-source"
	SlugIrrigatedArea       = "ward-wise-irrigated-area"
	SlugHouseholdFacilities = "ward-wise-household-facilities"
)

var ageGroups = []string{
	"AGE_0_4", "AGE_5_9", "AGE_10_14", "AGE_15_19", "AGE_20_24",
	"AGE_25_29", "AGE_30_34", "AGE_35_39", "AGE_40_44", "AGE_45_49",
	"AGE_50_54", "AGE_55_59", "AGE_60_64", "AGE_65_69", "AGE_70_74",
	"AGE_75_AND_ABOVE",
}

var definitions = []*Definition{
	{
		Slug:       SlugAgePopulation,
		Title:      "Ward and age group wise population",
		Categories: ageGroups,
		HasGender:  true,
		ValueKind:  ValueKindCount,
		HasLegacy:  true,
	},
	{
		Slug:  SlugReligionPopulation,
		Title: "Ward wise population by religion",
		Categories: []string{
			"HINDU", "BUDDHIST", "KIRANT", "CHRISTIAN", "ISLAM",
			"NATURE", "BON", "JAIN", "BAHAI", "SIKH", "OTHER",
		},
		ValueKind: ValueKindCount,
		HasLegacy: true,
	},
	{
		Slug:  SlugCastePopulation,
		Title: "Ward wise population by caste and ethnicity",
		Categories: []string{
			"CHHETRI", "BRAHMIN_HILL", "MAGAR", "THARU", "TAMANG",
			"NEWAR", "KAMI", "RAI", "GURUNG", "DAMAI_DHOLI", "LIMBU",
			"SARKI", "TELI", "KOIRI_KUSHWAHA", "OTHER",
		},
		ValueKind: ValueKindCount,
		HasLegacy: true,
	},
	{
		Slug:  SlugMotherTongue,
		Title: "Ward wise population by mother tongue",
		Categories: []string{
			"NEPALI", "MAITHILI", "BHOJPURI", "THARU", "TAMANG",
			"NEWARI", "MAGAR", "BAJJIKA", "DOTELI", "URDU", "OTHER",
		},
		ValueKind: ValueKindCount,
	},
	{
		Slug:  SlugMajorOccupation,
		Title: "Ward wise economically active population by major occupation",
		Categories: []string{
			"AGRICULTURE", "BUSINESS", "DAILY_WAGE", "FOREIGN_EMPLOYMENT",
			"GOVERNMENT_SERVICE", "NON_GOVERNMENT_SERVICE", "INDUSTRY",
			"HOUSEHOLD_WORK", "STUDENT", "OTHER",
		},
		HasGender: true,
		ValueKind: ValueKindCount,
	},
	{
		Slug:  SlugLiteracyStatus,
		Title: "Ward wise literacy status of population aged five and above",
		Categories: []string{
			"BOTH_READING_AND_WRITING", "READING_ONLY", "ILLITERATE",
		},
		HasGender: true,
		ValueKind: ValueKindCount,
		HasLegacy: true,
	},
	{
		Slug:  SlugHouseOwnership,
		Title: "Ward wise households by house ownership",
		Categories: []string{
			"PRIVATE", "RENT", "INSTITUTIONAL", "OTHER",
		},
		ValueKind: ValueKindCount,
	},
	{
		Slug:  SlugDrinkingWaterSource,
		Title: "Ward wise households by drinking water source",
		Categories: []string{
			"TAP_INSIDE_HOUSE", "TAP_OUTSIDE_HOUSE", "TUBEWELL",
			"COVERED_WELL", "OPEN_WELL", "AQUIFIER_MOOL", "RIVER",
			"JAR", "OTHER",
		},
		ValueKind: ValueKindCount,
	},
	{
		Slug:       SlugIrrigatedArea,
		Title:      "Ward wise irrigated and unirrigated cultivated area (hectares)",
		Categories: []string{"IRRIGATED", "UNIRRIGATED"},
		ValueKind:  ValueKindDecimal,
	},
	{
		Slug:  SlugHouseholdFacilities,
		Title: "Ward wise households by available facilities",
		Categories: []string{
			"ELECTRICITY", "INTERNET", "MOBILE_PHONE", "TELEVISION",
			"RADIO", "MOTORCYCLE", "BICYCLE", "REFRIGERATOR", "NONE",
		},
		ValueKind: ValueKindCount,
	},
}

var bySlug = map[string]*Definition{}

func init() {
	for _, d := range definitions {
		d.categoryIndex = make(map[string]int, len(d.Categories))
		for i, c := range d.Categories {
			d.categoryIndex[c] = i
		}
		bySlug[d.Slug] = d
	}
}

// Get looks an indicator up by its route slug.
func Get(slug string) (*Definition, bool) {
	d, ok := bySlug[slug]
	return d, ok
}

// All returns every registered indicator sorted by slug.
func All() []*Definition {
	out := make([]*Definition, 0, len(definitions))
	out = append(out, definitions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
