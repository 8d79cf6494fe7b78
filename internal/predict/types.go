package predict

import (
	"strconv"
	"strings"

	"github.com/sells-group/homesense/internal/climate"
	"github.com/sells-group/homesense/internal/evidence"
	"github.com/sells-group/homesense/internal/model"
)

// regionalHVAC is the prevailing HVAC type for a zone.
func regionalHVAC(z climate.Zone) string {
	switch z {
	case climate.HighHeat, climate.Coastal:
		return evidence.HVACHeatPump
	}
	return evidence.HVACCentralACFurnace
}

// regionalWaterHeater is the prevailing water heater type for a zone.
func regionalWaterHeater(z climate.Zone) string {
	switch z {
	case climate.HighHeat, climate.Coastal:
		return evidence.WaterHeaterTankElectric
	}
	return evidence.WaterHeaterTankGas
}

// prevalent reports whether the zone's regional default is strongly
// dominant rather than a national average.
func prevalent(z climate.Zone) bool { return z != climate.Moderate }

// permitTier builds a permit-tier decision for a type or presence field.
func (f *facts) permitTier(prov model.Provenance, hit permitHit, system, value string) Result {
	var mods []model.Adjustment
	if !hit.date.Date.IsZero() {
		age := yearsBetween(hit.date.Date, f.now)
		if age < RecentPermitYears {
			mods = append(mods, adjustment(ModRecentPermit))
		}
	}
	if f.hasClimateFactor(system) {
		mods = append(mods, adjustment(ModClimateAdjusted))
	}
	prov.Permit = permitEvidence(hit, system)
	return f.decide(prov, TierPermit, "permit", value, mods, nil)
}

func (f *facts) regionalTier(prov model.Provenance, value string) Result {
	var mods []model.Adjustment
	if prevalent(f.zone) {
		mods = append(mods, adjustment(ModClimatePrevalence))
	}
	return f.decide(prov, TierRegional, "climate_zone", value, mods, nil)
}

// heatingPresent interprets assessor heating attributes.
func heatingPresent(heatingType, fuel string) (present, known bool) {
	for _, v := range []string{heatingType, fuel} {
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "" {
			continue
		}
		if s == "none" || s == "no" || strings.HasPrefix(s, "none") {
			known = true
			continue
		}
		return true, true
	}
	return false, known
}

func hvacPresent(f *facts) (Result, error) {
	var prov model.Provenance

	if hit, ok := f.findPermit(model.SystemHVAC, nil); ok {
		return f.permitTier(prov, hit, model.SystemHVAC, "true"), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierPermit)

	if a := f.assessor; a != nil {
		cooling, coolingKnown := evidence.CoolingPresent(a.CoolingType)
		heating, heatingKnown := heatingPresent(a.HeatingType, a.HeatingFuel)
		if coolingKnown || heatingKnown {
			ae := &model.AssessorEvidence{Attribute: "cooling_type", AttributeValue: a.CoolingType}
			if !coolingKnown {
				ae.Attribute, ae.AttributeValue = "heating_type", a.HeatingType
			}
			var mods []model.Adjustment
			tier := TierBasic
			if coolingKnown && heatingKnown {
				mods = append(mods, adjustment(ModMaterialConfirmed))
				tier = TierEnriched
			}
			if check, ok := f.crossCheck(model.SystemHVAC); ok {
				ae.CrossCheck = check
				mods = append(mods, adjustment(ModCrossValidated))
				tier = TierEnriched
			}
			if tier == TierBasic {
				prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched)
			}
			prov.Assessor = ae
			return f.decide(prov, tier, "assessor", strconv.FormatBool(cooling || heating), mods, nil), nil
		}
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched, TierBasic)

	if f.hasLocation {
		return f.regionalTier(prov, "true"), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierRegional)

	return f.decide(prov, TierDefault, "default", "true", nil, nil), nil
}

func hvacType(f *facts) (Result, error) {
	var prov model.Provenance

	if hit, ok := f.findPermit(model.SystemHVAC, hasHVACType); ok {
		return f.permitTier(prov, hit, model.SystemHVAC, evidence.HVACTypeFromText(hit.permit.Text())), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierPermit)

	if a := f.assessor; a != nil {
		if t := evidence.HVACTypeFromAssessor(a.HeatingType, a.HeatingFuel, a.CoolingType); t != "" {
			ae := &model.AssessorEvidence{Attribute: "heating_type", AttributeValue: a.HeatingType}
			var mods []model.Adjustment
			tier := TierBasic
			if _, coolingKnown := evidence.CoolingPresent(a.CoolingType); coolingKnown && a.HeatingFuel != "" {
				mods = append(mods, adjustment(ModMaterialConfirmed))
				tier = TierEnriched
			}
			if check, ok := f.crossCheck(model.SystemHVAC); ok {
				ae.CrossCheck = check
				mods = append(mods, adjustment(ModCrossValidated))
				tier = TierEnriched
			}
			if tier == TierBasic {
				prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched)
			}
			prov.Assessor = ae
			return f.decide(prov, tier, "assessor", t, mods, nil), nil
		}
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched, TierBasic)

	if f.hasLocation {
		return f.regionalTier(prov, regionalHVAC(f.zone)), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierRegional)

	return f.decide(prov, TierDefault, "default", evidence.HVACCentralACFurnace, nil, nil), nil
}

func waterHeaterType(f *facts) (Result, error) {
	var prov model.Provenance

	if hit, ok := f.findPermit(model.SystemWaterHeater, hasWaterHeaterType); ok {
		return f.permitTier(prov, hit, model.SystemWaterHeater, evidence.WaterHeaterTypeFromText(hit.permit.Text())), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierPermit)

	if a := f.assessor; a != nil {
		if t := evidence.WaterHeaterTypeFromFuel(a.HeatingFuel); t != "" {
			ae := &model.AssessorEvidence{Attribute: "heating_fuel", AttributeValue: a.HeatingFuel}
			var mods []model.Adjustment
			tier := TierBasic
			if fuelConsistent(t, evidence.HVACTypeFromAssessor(a.HeatingType, a.HeatingFuel, a.CoolingType)) {
				mods = append(mods, adjustment(ModMaterialConfirmed))
				tier = TierEnriched
			}
			if check, ok := f.crossCheck(model.SystemWaterHeater); ok {
				ae.CrossCheck = check
				mods = append(mods, adjustment(ModCrossValidated))
				tier = TierEnriched
			}
			if tier == TierBasic {
				prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched)
			}
			prov.Assessor = ae
			return f.decide(prov, tier, "assessor", t, mods, nil), nil
		}
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierEnriched, TierBasic)

	if f.hasLocation {
		return f.regionalTier(prov, regionalWaterHeater(f.zone)), nil
	}
	prov.SkippedTiers = append(prov.SkippedTiers, TierRegional)

	return f.decide(prov, TierDefault, "default", evidence.WaterHeaterTankGas, nil, nil), nil
}

// fuelConsistent reports whether a fuel-derived water heater type agrees with
// the home's heating system.
func fuelConsistent(waterHeater, hvac string) bool {
	switch waterHeater {
	case evidence.WaterHeaterTankGas:
		return hvac == evidence.HVACFurnace || hvac == evidence.HVACCentralACFurnace
	case evidence.WaterHeaterTankElectric:
		return hvac == evidence.HVACHeatPump
	}
	return false
}
