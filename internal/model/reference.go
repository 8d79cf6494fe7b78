package model

// System types tracked by the engine and the planner.
const (
	SystemRoof        = "roof"
	SystemHVAC        = "hvac"
	SystemWaterHeater = "water_heater"
	SystemElectrical  = "electrical"
	SystemPlumbing    = "plumbing"
	SystemExterior    = "exterior"
	SystemPool        = "pool"
	SystemSolar       = "solar"
	SystemSprinkler   = "sprinkler"
	SystemSpa         = "spa"
	SystemGenerator   = "generator"
	SystemSeptic      = "septic"
	SystemWell        = "well"
	SystemEVCharger   = "ev_charger"
	SystemSafety      = "safety"
	SystemGeneral     = "general"
)

// DefaultClimateZone is the fallback zone key in the lifespan reference table.
const DefaultClimateZone = "default"

// LifespanReference is the expected service life of a system subtype in a
// climate zone.
type LifespanReference struct {
	SystemType   string `json:"system_type" yaml:"system_type"`
	Subtype      string `json:"system_subtype" yaml:"subtype"`
	ClimateZone  string `json:"climate_zone" yaml:"climate_zone"`
	MinYears     int    `json:"min_years" yaml:"min_years"`
	TypicalYears int    `json:"typical_years" yaml:"typical_years"`
	MaxYears     int    `json:"max_years" yaml:"max_years"`
	QualityTier  string `json:"quality_tier,omitempty" yaml:"quality_tier"`
}

// ClimateFactor is a multiplicative lifespan adjustment for a zone. FactorType
// is the system type the factor applies to.
type ClimateFactor struct {
	ClimateZone string  `json:"climate_zone" yaml:"climate_zone"`
	FactorType  string  `json:"factor_type" yaml:"factor_type"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"`
}
