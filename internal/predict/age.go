package predict

import (
	"github.com/sells-group/homesense/internal/evidence"
	"github.com/sells-group/homesense/internal/model"
)

// ageRule describes the age cascade for one system.
type ageRule struct {
	system        string
	defaultBucket string
	// confirmed reports the assessor attribute that confirms the system's
	// material or fuel, if any.
	confirmed func(*evidence.AssessorRecord) (attr, value string, ok bool)
	subtype   func(*facts) string
}

var (
	roofAgeRule = ageRule{
		system:        model.SystemRoof,
		defaultBucket: "11-15",
		confirmed: func(a *evidence.AssessorRecord) (string, string, bool) {
			return "roof_material", a.RoofMaterial, evidence.RoofSubtype(a.RoofMaterial) != ""
		},
		subtype: roofSubtype,
	}
	hvacAgeRule = ageRule{
		system:        model.SystemHVAC,
		defaultBucket: "5-9",
		confirmed: func(a *evidence.AssessorRecord) (string, string, bool) {
			return "heating_type", a.HeatingType, evidence.HVACTypeFromAssessor(a.HeatingType, a.HeatingFuel, a.CoolingType) != ""
		},
		subtype: hvacSubtype,
	}
	waterHeaterAgeRule = ageRule{
		system:        model.SystemWaterHeater,
		defaultBucket: "4-7",
		confirmed: func(a *evidence.AssessorRecord) (string, string, bool) {
			return "heating_fuel", a.HeatingFuel, evidence.WaterHeaterTypeFromFuel(a.HeatingFuel) != ""
		},
		subtype: waterHeaterSubtype,
	}
)

func roofAge(f *facts) (Result, error)        { return f.predictAge(roofAgeRule) }
func hvacAge(f *facts) (Result, error)        { return f.predictAge(hvacAgeRule) }
func waterHeaterAge(f *facts) (Result, error) { return f.predictAge(waterHeaterAgeRule) }

func (f *facts) predictAge(r ageRule) (Result, error) {
	var prov model.Provenance

	// Tier 1: a dated permit for the system itself.
	if hit, ok := f.latestPermit(r.system); ok {
		age := yearsBetween(hit.date.Date, f.now)
		label, err := Bucket(r.system, age)
		if err != nil {
			return Result{}, err
		}
		var mods []model.Adjustment
		if age < RecentPermitYears {
			mods = append(mods, adjustment(ModRecentPermit))
		}
		if f.hasClimateFactor(r.system) {
			mods = append(mods, adjustment(ModClimateAdjusted))
		}
		prov.Permit = permitEvidence(hit, r.system)
		prov.EstimatedAge = &age
		return f.decide(prov, TierPermit, "permit", label, mods, nil), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierPermit)

	subtype := r.subtype(f)

	// Tiers 2 and 3: assessor build year, corroborated or not.
	if year, effective := f.assessorYear(); year > 0 {
		est := f.inferAge(r.system, subtype, f.now.Year()-year)
		label, err := Bucket(r.system, est.age)
		if err != nil {
			return Result{}, err
		}
		ae := &model.AssessorEvidence{EffectiveYear: effective}
		if f.assessor.YearBuilt != nil {
			ae.YearBuilt = *f.assessor.YearBuilt
		}

		mods, pens := f.lifespanAdjustments(r.system, est)
		corroborated := false
		if attr, value, ok := r.confirmed(f.assessor); ok {
			ae.Attribute, ae.AttributeValue = attr, value
			mods = append(mods, adjustment(ModMaterialConfirmed))
			corroborated = true
		}
		if check, ok := f.crossCheck(r.system); ok {
			ae.CrossCheck = check
			mods = append(mods, adjustment(ModCrossValidated))
			corroborated = true
		}

		prov.Assessor = ae
		prov.Lifespan = est.lifespan
		prov.EstimatedAge = &est.age
		tier := TierBasic
		if corroborated {
			tier = TierEnriched
		} else {
			prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched)
		}
		return f.decide(prov, tier, "assessor", label, mods, pens), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched, TierBasic)

	// Tier 4: home age from the property row, else the zone's typical midlife.
	if yb := f.property.YearBuilt; yb != nil && *yb > 0 && *yb <= f.now.Year() {
		est := f.inferAge(r.system, subtype, f.now.Year()-*yb)
		label, err := Bucket(r.system, est.age)
		if err != nil {
			return Result{}, err
		}
		mods, pens := f.lifespanAdjustments(r.system, est)
		prov.Lifespan = est.lifespan
		prov.EstimatedAge = &est.age
		return f.decide(prov, TierRegional, "property", label, mods, pens), nil
	}
	if f.hasLocation {
		if rng, ok := f.table.Adjusted(r.system, subtype, string(f.zone)); ok && rng.Typical > 0 {
			age := int(rng.Typical / 2)
			label, err := Bucket(r.system, age)
			if err != nil {
				return Result{}, err
			}
			var mods []model.Adjustment
			if f.hasClimateFactor(r.system) {
				mods = append(mods, adjustment(ModClimateAdjusted))
			}
			prov.EstimatedAge = &age
			return f.decide(prov, TierRegional, "climate_zone", label, mods, nil), nil
		}
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierRegional)

	return f.decide(prov, TierDefault, "default", r.defaultBucket, nil, nil), nil
}

// lifespanAdjustments returns the modifiers and penalties implied by an age
// estimate derived without a permit.
func (f *facts) lifespanAdjustments(system string, est ageEstimate) (mods, pens []model.Adjustment) {
	if !est.lifespan.Missing && f.hasClimateFactor(system) {
		mods = append(mods, adjustment(ModClimateAdjusted))
	}
	if est.exceeded {
		pens = append(pens, adjustment(PenAgeExceedsLifespan))
	}
	return mods, pens
}

func roofSubtype(f *facts) string {
	if f.assessor != nil {
		if s := evidence.RoofSubtype(f.assessor.RoofMaterial); s != "" {
			return s
		}
	}
	if hit, ok := f.findPermit(model.SystemRoof, hasRoofSubtype); ok {
		return evidence.RoofSubtype(hit.permit.Text())
	}
	return evidence.RoofAsphaltShingle
}

func hvacSubtype(f *facts) string {
	if hit, ok := f.findPermit(model.SystemHVAC, hasHVACType); ok {
		return evidence.HVACTypeFromText(hit.permit.Text())
	}
	if f.assessor != nil {
		if s := evidence.HVACTypeFromAssessor(f.assessor.HeatingType, f.assessor.HeatingFuel, f.assessor.CoolingType); s != "" {
			return s
		}
	}
	return regionalHVAC(f.zone)
}

func waterHeaterSubtype(f *facts) string {
	if hit, ok := f.findPermit(model.SystemWaterHeater, hasWaterHeaterType); ok {
		return evidence.WaterHeaterTypeFromText(hit.permit.Text())
	}
	if f.assessor != nil {
		if s := evidence.WaterHeaterTypeFromFuel(f.assessor.HeatingFuel); s != "" {
			return s
		}
	}
	return regionalWaterHeater(f.zone)
}

func hasRoofSubtype(p evidence.Permit) bool     { return evidence.RoofSubtype(p.Text()) != "" }
func hasHVACType(p evidence.Permit) bool        { return evidence.HVACTypeFromText(p.Text()) != "" }
func hasWaterHeaterType(p evidence.Permit) bool { return evidence.WaterHeaterTypeFromText(p.Text()) != "" }
