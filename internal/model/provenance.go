package model

// Adjustment is a named confidence modifier or penalty. Delta is always
// expressed as a positive magnitude; the list it sits in decides the sign.
type Adjustment struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// PermitEvidence records the permit that decided a prediction.
type PermitEvidence struct {
	PermitID   string  `json:"permit_id,omitempty"`
	Year       int     `json:"year"`
	DateField  string  `json:"date_field"`
	Value      float64 `json:"value,omitempty"`
	RawValue   float64 `json:"raw_value,omitempty"`
	Normalized bool    `json:"normalized"`
	Matched    string  `json:"matched,omitempty"`
}

// AssessorEvidence records the assessor attributes a prediction relied on.
type AssessorEvidence struct {
	YearBuilt      int    `json:"year_built,omitempty"`
	EffectiveYear  int    `json:"effective_year,omitempty"`
	Attribute      string `json:"attribute,omitempty"`
	AttributeValue string `json:"attribute_value,omitempty"`
	CrossCheck     string `json:"cross_check,omitempty"`
}

// LifespanEvidence records how a reference lifespan shaped an age estimate.
type LifespanEvidence struct {
	Subtype        string  `json:"subtype"`
	Zone           string  `json:"zone"`
	TypicalYears   int     `json:"typical_years"`
	MaxYears       int     `json:"max_years"`
	Factor         float64 `json:"factor"`
	AdjustedMax    float64 `json:"adjusted_max"`
	StructureAge   int     `json:"structure_age"`
	ReplacementSet bool    `json:"replacement_reset"`
	Missing        bool    `json:"missing,omitempty"`
}

// Provenance is the structured justification attached to every prediction:
// which tier decided it, from which evidence, and which adjustments applied.
type Provenance struct {
	Tier           string            `json:"tier"`
	Source         string            `json:"source"`
	BaseConfidence float64           `json:"base_confidence"`
	Modifiers      []Adjustment      `json:"modifiers,omitempty"`
	Penalties      []Adjustment      `json:"penalties,omitempty"`
	ClimateZone    string            `json:"climate_zone"`
	EstimatedAge   *int              `json:"estimated_age,omitempty"`
	Permit         *PermitEvidence   `json:"permit,omitempty"`
	Assessor       *AssessorEvidence `json:"assessor,omitempty"`
	Lifespan       *LifespanEvidence `json:"lifespan,omitempty"`
	SkippedTiers   []string          `json:"skipped_tiers,omitempty"`
}
