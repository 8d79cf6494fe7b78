package predict

import "github.com/sells-group/homesense/internal/model"

// Evidence tiers, in precedence order.
const (
	TierPermit   = "permit"
	TierEnriched = "enriched_assessor"
	TierBasic    = "basic_assessor"
	TierRegional = "regional"
	TierDefault  = "default"
)

// Base confidence per tier.
var tierBase = map[string]float64{
	TierPermit:   0.90,
	TierEnriched: 0.70,
	TierBasic:    0.60,
	TierRegional: 0.50,
	TierDefault:  0.28,
}

// Named modifiers and penalties.
const (
	ModRecentPermit      = "recent_permit"
	ModClimateAdjusted   = "climate_adjusted"
	ModCrossValidated    = "cross_validated"
	ModMaterialConfirmed = "material_confirmed"
	ModClimatePrevalence = "climate_prevalence"

	PenAgeExceedsLifespan = "age_exceeds_lifespan"
)

var adjustmentDelta = map[string]float64{
	ModRecentPermit:       0.05,
	ModClimateAdjusted:    0.02,
	ModCrossValidated:     0.05,
	ModMaterialConfirmed:  0.03,
	ModClimatePrevalence:  0.05,
	PenAgeExceedsLifespan: 0.10,
}

// MaxConfidence caps every prediction.
const MaxConfidence = 0.98

// RecentPermitYears is the age below which a permit earns recent_permit.
const RecentPermitYears = 2

func adjustment(name string) model.Adjustment {
	return model.Adjustment{Name: name, Delta: adjustmentDelta[name]}
}

// Compose combines a tier base with its modifiers and penalties:
// clamp(base + modifiers - penalties, 0, MaxConfidence). Modifiers with a
// negative delta are ignored, so only penalties can reduce the base. The
// tier base is not a floor: a penalty may take the score below it, and 0 is
// the only lower bound.
func Compose(base float64, modifiers, penalties []model.Adjustment) float64 {
	score := base
	for _, m := range modifiers {
		if m.Delta > 0 {
			score += m.Delta
		}
	}
	for _, p := range penalties {
		if p.Delta > 0 {
			score -= p.Delta
		}
	}
	switch {
	case score < 0:
		return 0
	case score > MaxConfidence:
		return MaxConfidence
	}
	return score
}
