package evidence

import "github.com/sells-group/homesense/internal/model"

// MaxPermitValue is the sanity ceiling above which any permit valuation is
// assumed to be expressed in cents.
const MaxPermitValue = 10_000_000

// tradeCeilings are the largest plausible dollar valuations for single-trade
// residential permits.
var tradeCeilings = map[string]float64{
	model.SystemHVAC:        150_000,
	model.SystemRoof:        250_000,
	model.SystemWaterHeater: 40_000,
	model.SystemElectrical:  100_000,
	model.SystemPlumbing:    150_000,
}

// NormalizeValue corrects a permit valuation that was recorded in cents. A
// value above the ceiling of the permit's trade (the most generous one when
// it matches several) or above MaxPermitValue is divided by 100, and the
// returned flag is set.
func NormalizeValue(raw float64, systems []string) (float64, bool) {
	if raw <= 0 {
		return raw, false
	}
	ceiling := 0.0
	for _, s := range systems {
		if c, ok := tradeCeilings[s]; ok && c > ceiling {
			ceiling = c
		}
	}
	if raw > MaxPermitValue || (ceiling > 0 && raw > ceiling) {
		return raw / 100, true
	}
	return raw, false
}
