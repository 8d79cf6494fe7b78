// Package confidence scores installation evidence, resolves the disclosure
// state shown to homeowners, and applies the named events that are the only
// way a stored confidence may change.
package confidence

import (
	"math"

	"github.com/rotisserie/eris"
)

// InstallSource is where an install year came from.
type InstallSource string

const (
	SourceHeuristic      InstallSource = "heuristic"
	SourceOwnerReported  InstallSource = "owner_reported"
	SourceInspection     InstallSource = "inspection"
	SourcePermitVerified InstallSource = "permit_verified"
)

// sourceBase is the floor each source establishes.
var sourceBase = map[InstallSource]float64{
	SourceHeuristic:      0.30,
	SourceOwnerReported:  0.50,
	SourceInspection:     0.70,
	SourcePermitVerified: 0.85,
}

// Valid reports whether s is a known source.
func (s InstallSource) Valid() bool {
	_, ok := sourceBase[s]
	return ok
}

// Level is the coarse install-confidence level. It is a different scale from
// State and the two are never mixed.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Level thresholds.
const (
	LevelHighMin   = 0.80
	LevelMediumMin = 0.50
)

// InstallInput is the evidence about one system installation.
type InstallInput struct {
	Source           InstallSource `json:"source"`
	HasMonth         bool          `json:"has_month"`
	HasCorroboration bool          `json:"has_corroboration"`
	HasBrand         bool          `json:"has_brand"`
	HasModel         bool          `json:"has_model"`
	HasPhoto         bool          `json:"has_photo"`
	ConflictingDates bool          `json:"conflicting_dates"`
	ImplausibleDate  bool          `json:"implausible_date"`
}

// BreakdownItem is one signed contribution to an install score.
type BreakdownItem struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// InstallScore is the scored result with its audit trail.
type InstallScore struct {
	Score     float64         `json:"score"`
	Level     Level           `json:"level"`
	Breakdown []BreakdownItem `json:"breakdown"`
}

type signal struct {
	name  string
	delta float64
	on    func(InstallInput) bool
}

var installSignals = []signal{
	{"has_month", 0.05, func(in InstallInput) bool { return in.HasMonth }},
	{"has_corroboration", 0.10, func(in InstallInput) bool { return in.HasCorroboration }},
	{"has_brand", 0.03, func(in InstallInput) bool { return in.HasBrand }},
	{"has_model", 0.05, func(in InstallInput) bool { return in.HasModel }},
	{"has_photo", 0.07, func(in InstallInput) bool { return in.HasPhoto }},
	{"conflicting_dates", -0.15, func(in InstallInput) bool { return in.ConflictingDates }},
	{"implausible_date", -0.20, func(in InstallInput) bool { return in.ImplausibleDate }},
}

// ScoreInstallConfidence scores an install record. The result never drops
// below the source's base and never exceeds 1.0.
func ScoreInstallConfidence(in InstallInput) (InstallScore, error) {
	base, ok := sourceBase[in.Source]
	if !ok {
		return InstallScore{}, eris.Errorf("confidence: unknown install source %q", in.Source)
	}

	score := base
	breakdown := []BreakdownItem{{Name: "base_" + string(in.Source), Delta: base}}
	for _, s := range installSignals {
		if !s.on(in) {
			continue
		}
		score += s.delta
		breakdown = append(breakdown, BreakdownItem{Name: s.name, Delta: s.delta})
	}
	score = round(math.Min(math.Max(score, base), 1.0))

	return InstallScore{Score: score, Level: LevelFor(score), Breakdown: breakdown}, nil
}

// LevelFor maps an install score to its level.
func LevelFor(score float64) Level {
	switch {
	case score >= LevelHighMin:
		return LevelHigh
	case score >= LevelMediumMin:
		return LevelMedium
	}
	return LevelLow
}

func round(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
