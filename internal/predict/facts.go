package predict

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/climate"
	"github.com/sells-group/homesense/internal/evidence"
	"github.com/sells-group/homesense/internal/lifespan"
	"github.com/sells-group/homesense/internal/model"
)

// crossCheckYears bounds how old a related-trade permit may be and still
// corroborate assessor data.
const crossCheckYears = 5

// relatedTrades are the permit trades that corroborate assessor data for a
// system: work on them usually means someone inspected the system too.
var relatedTrades = map[string][]string{
	model.SystemRoof:        {model.SystemExterior, model.SystemSolar},
	model.SystemHVAC:        {model.SystemElectrical, model.SystemHVAC},
	model.SystemWaterHeater: {model.SystemPlumbing, model.SystemWaterHeater},
}

// facts is the typed evidence for one property, extracted once per run.
type facts struct {
	now         time.Time
	table       *lifespan.Table
	property    model.Property
	zone        climate.Zone
	hasLocation bool
	assessor    *evidence.AssessorRecord
	permits     []datedPermit
}

// datedPermit caches the permit date so out-of-range warnings are logged
// once per run rather than once per field.
type datedPermit struct {
	permit evidence.Permit
	date   evidence.PermitDateResult
	dated  bool
}

type permitHit struct {
	permit  evidence.Permit
	date    evidence.PermitDateResult
	matched string
}

func gather(table *lifespan.Table, in Input, now time.Time) *facts {
	f := &facts{
		now:      now,
		table:    table,
		property: in.Property,
		assessor: latestAssessor(in.Property.ID, in.Snapshots),
	}
	for _, p := range evidence.CollectPermits(in.Snapshots) {
		d, ok := evidence.PermitDate(p)
		f.permits = append(f.permits, datedPermit{permit: p, date: d, dated: ok})
	}

	state, city, lat := in.Property.State, in.Property.City, in.Property.Lat
	if f.assessor != nil {
		if state == "" {
			state = f.assessor.State
		}
		if city == "" {
			city = f.assessor.City
		}
		if lat == nil {
			lat = evidence.Latitude(f.assessor.Location)
		}
	}
	if state == "" || city == "" || lat == nil {
		if geo := latestGeocode(in.Property.ID, in.Snapshots); geo != nil {
			if state == "" {
				state = geo.State
			}
			if city == "" {
				city = geo.City
			}
			if lat == nil {
				lat = evidence.Latitude(geo.Location)
			}
		}
	}
	f.zone = climate.DeriveZone(state, city, lat)
	f.hasLocation = state != "" || city != "" || lat != nil
	return f
}

// latestAssessor returns the newest assessor snapshot that parses.
func latestAssessor(propertyID string, snaps []model.EnrichmentSnapshot) *evidence.AssessorRecord {
	for _, s := range model.SnapshotsFor(snaps, model.ProviderAssessor) {
		rec, err := evidence.ExtractAssessor(s.Payload)
		if err != nil {
			zap.L().Warn("predict: skipping assessor snapshot",
				zap.String("property_id", propertyID),
				zap.String("snapshot_id", s.ID),
				zap.Error(err),
			)
			continue
		}
		return rec
	}
	return nil
}

func latestGeocode(propertyID string, snaps []model.EnrichmentSnapshot) *evidence.GeocodeRecord {
	for _, s := range model.SnapshotsFor(snaps, model.ProviderGeocoder) {
		rec, err := evidence.ExtractGeocode(s.Payload)
		if err != nil {
			zap.L().Warn("predict: skipping geocode snapshot",
				zap.String("property_id", propertyID),
				zap.String("snapshot_id", s.ID),
				zap.Error(err),
			)
			continue
		}
		return rec
	}
	return nil
}

// latestPermit returns the most recently dated permit for system. Permits
// without a usable date, or dated after now, are ignored.
func (f *facts) latestPermit(system string) (permitHit, bool) {
	var best permitHit
	found := false
	for _, dp := range f.permits {
		ok, matched := evidence.Matches(dp.permit, system)
		if !ok || !dp.dated || dp.date.Date.After(f.now) {
			continue
		}
		if !found || dp.date.Date.After(best.date.Date) {
			best = permitHit{permit: dp.permit, date: dp.date, matched: matched}
			found = true
		}
	}
	return best, found
}

// findPermit returns the newest dated permit for system that satisfies
// accept, falling back to the first undated one. A nil accept takes any.
func (f *facts) findPermit(system string, accept func(evidence.Permit) bool) (permitHit, bool) {
	var best, undated permitHit
	found, foundUndated := false, false
	for _, dp := range f.permits {
		ok, matched := evidence.Matches(dp.permit, system)
		if !ok || (accept != nil && !accept(dp.permit)) {
			continue
		}
		switch {
		case dp.dated && dp.date.Date.After(f.now):
			continue
		case !dp.dated:
			if !foundUndated {
				undated = permitHit{permit: dp.permit, matched: matched}
				foundUndated = true
			}
		case !found || dp.date.Date.After(best.date.Date):
			best = permitHit{permit: dp.permit, date: dp.date, matched: matched}
			found = true
		}
	}
	if found {
		return best, true
	}
	return undated, foundUndated
}

// crossCheck looks for a recent permit in a trade related to system.
func (f *facts) crossCheck(system string) (string, bool) {
	for _, trade := range relatedTrades[system] {
		hit, ok := f.latestPermit(trade)
		if !ok || yearsBetween(hit.date.Date, f.now) >= crossCheckYears {
			continue
		}
		return trade + " permit " + hit.date.Date.Format(time.DateOnly), true
	}
	return "", false
}

// assessorYear returns the effective year if present, else year built.
func (f *facts) assessorYear() (year, effective int) {
	if f.assessor == nil {
		return 0, 0
	}
	built := 0
	if f.assessor.YearBuilt != nil {
		built = *f.assessor.YearBuilt
	}
	if f.assessor.EffectiveYear != nil && *f.assessor.EffectiveYear <= f.now.Year() {
		return *f.assessor.EffectiveYear, *f.assessor.EffectiveYear
	}
	if built > f.now.Year() {
		return 0, 0
	}
	return built, 0
}

func (f *facts) hasClimateFactor(system string) bool {
	_, ok := f.table.Factor(string(f.zone), system)
	return ok
}

func permitEvidence(hit permitHit, system string) *model.PermitEvidence {
	pe := &model.PermitEvidence{
		PermitID:  hit.permit.ID,
		Year:      hit.date.Year,
		DateField: hit.date.Field,
		Matched:   hit.matched,
	}
	if hit.permit.Value != nil {
		systems := append(evidence.Classify(hit.permit), system)
		v, normalized := evidence.NormalizeValue(*hit.permit.Value, systems)
		pe.RawValue = *hit.permit.Value
		pe.Value = v
		pe.Normalized = normalized
	}
	return pe
}

// yearsBetween returns whole years elapsed from then to now, never negative.
func yearsBetween(then, now time.Time) int {
	if now.Before(then) {
		return 0
	}
	years := now.Year() - then.Year()
	if now.YearDay() < then.YearDay() {
		years--
	}
	return max(years, 0)
}

// ageEstimate is a system age derived from structure age and lifespan data.
type ageEstimate struct {
	age      int
	exceeded bool
	lifespan *model.LifespanEvidence
}

// inferAge applies replacement inference. When the structure is older than
// the typical lifespan the system has probably been replaced once, so its age
// restarts at structureAge - typical. When the structure is older than the
// climate-adjusted max, the estimate is floored to the highest-risk bucket.
func (f *facts) inferAge(system, subtype string, structureAge int) ageEstimate {
	ref, ok := f.table.Lookup(system, subtype, string(f.zone))
	if !ok {
		return ageEstimate{
			age:      structureAge,
			lifespan: &model.LifespanEvidence{Subtype: subtype, Zone: string(f.zone), StructureAge: structureAge, Missing: true},
		}
	}
	rng, _ := f.table.Adjusted(system, subtype, string(f.zone))
	ev := &model.LifespanEvidence{
		Subtype:      subtype,
		Zone:         ref.ClimateZone,
		TypicalYears: ref.TypicalYears,
		MaxYears:     ref.MaxYears,
		Factor:       rng.Factor,
		AdjustedMax:  math.Round(rng.Max*100) / 100,
		StructureAge: structureAge,
	}
	est := ageEstimate{age: structureAge, lifespan: ev}
	if ref.TypicalYears > 0 && structureAge > ref.TypicalYears {
		est.age = structureAge - ref.TypicalYears
		ev.ReplacementSet = true
	}
	if rng.Max > 0 && float64(structureAge) > rng.Max {
		est.exceeded = true
		est.age = max(est.age, highestRiskAge(system))
	}
	return est
}
