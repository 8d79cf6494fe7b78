package predict

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homesense/internal/lifespan"
	"github.com/sells-group/homesense/internal/model"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func snap(provider, payload string) model.EnrichmentSnapshot {
	return model.EnrichmentSnapshot{
		ID:        provider + "-1",
		Provider:  provider,
		Payload:   json.RawMessage(payload),
		FetchedAt: testNow.AddDate(0, -1, 0),
	}
}

func resultFor(t *testing.T, out Output, field string) Result {
	t.Helper()
	for _, r := range out.Results {
		if r.Field == field {
			return r
		}
	}
	t.Fatalf("no result for %s", field)
	return Result{}
}

func intPtr(n int) *int { return &n }

func roofOnlyTable() *lifespan.Table {
	return lifespan.New([]model.LifespanReference{
		{SystemType: model.SystemRoof, Subtype: "asphalt_shingle", ClimateZone: model.DefaultClimateZone, MinYears: 15, TypicalYears: 20, MaxYears: 30},
	}, nil)
}

func TestPredict_ReplacementResetWithoutPermit(t *testing.T) {
	e := NewEngine(roofOnlyTable()).WithNow(testNow)

	out := e.Predict(Input{Property: model.Property{ID: "p1", YearBuilt: intPtr(2001)}})

	roof := resultFor(t, out, model.FieldRoofAgeBucket)
	assert.Equal(t, "0-5", roof.Value)
	assert.Equal(t, TierRegional, roof.Provenance.Tier)
	require.NotNil(t, roof.Provenance.EstimatedAge)
	assert.Equal(t, 5, *roof.Provenance.EstimatedAge)
	require.NotNil(t, roof.Provenance.Lifespan)
	assert.True(t, roof.Provenance.Lifespan.ReplacementSet)
	assert.Equal(t, 25, roof.Provenance.Lifespan.StructureAge)
	assert.Empty(t, roof.Provenance.Penalties)
	assert.InDelta(t, 0.50, roof.Confidence, 1e-9)
}

func TestPredict_MissingLifespanRowSkipsAdjustment(t *testing.T) {
	e := NewEngine(roofOnlyTable()).WithNow(testNow)

	out := e.Predict(Input{Property: model.Property{ID: "p1", YearBuilt: intPtr(2001)}})

	hvac := resultFor(t, out, model.FieldHVACAgeBucket)
	assert.Equal(t, "15+", hvac.Value)
	require.NotNil(t, hvac.Provenance.Lifespan)
	assert.True(t, hvac.Provenance.Lifespan.Missing)
	assert.Equal(t, 25, *hvac.Provenance.EstimatedAge)
}

func TestPredict_PermitTierNormalizesValue(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	permits := snap(model.ProviderPermits, `{"permits":[
		{"id":"P1","description":"Change out split system","tags":["hvac"],"value":5000000,"issue_date":"2025-09-01"}
	]}`)

	out := e.Predict(Input{Property: model.Property{ID: "p1"}, Snapshots: []model.EnrichmentSnapshot{permits}})
	require.Empty(t, out.Failures)

	age := resultFor(t, out, model.FieldHVACAgeBucket)
	assert.Equal(t, "0-4", age.Value)
	assert.Equal(t, TierPermit, age.Provenance.Tier)
	assert.InDelta(t, 0.95, age.Confidence, 1e-9)
	require.NotNil(t, age.Provenance.Permit)
	assert.True(t, age.Provenance.Permit.Normalized)
	assert.InDelta(t, 50_000, age.Provenance.Permit.Value, 1e-9)
	assert.InDelta(t, 5_000_000, age.Provenance.Permit.RawValue, 1e-9)
	assert.Equal(t, 2025, age.Provenance.Permit.Year)

	raw, err := json.Marshal(age.Provenance)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"normalized":true`)

	present := resultFor(t, out, model.FieldHVACPresent)
	assert.Equal(t, "true", present.Value)
	assert.Equal(t, TierPermit, present.Provenance.Tier)

	typ := resultFor(t, out, model.FieldHVACType)
	assert.Equal(t, "central_ac", typ.Value)
	assert.Equal(t, TierPermit, typ.Provenance.Tier)
}

func TestPredict_HurricaneShutterIsNotHVACEvidence(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	permits := snap(model.ProviderPermits, `[
		{"id":"S1","description":"Install hurricane shutters, mechanical fasteners","type":"Mechanical","issue_date":"2025-01-10"}
	]`)

	out := e.Predict(Input{Property: model.Property{ID: "p1"}, Snapshots: []model.EnrichmentSnapshot{permits}})

	for _, field := range []string{model.FieldHVACAgeBucket, model.FieldHVACPresent, model.FieldHVACType} {
		r := resultFor(t, out, field)
		assert.NotEqual(t, TierPermit, r.Provenance.Tier, field)
		assert.Contains(t, r.Provenance.SkippedTiers, TierPermit, field)
	}
}

func TestPredict_MultiTradePermitIsEvidenceForEachSystem(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	permits := snap(model.ProviderPermits, `{"permits":[
		{"id":"M1","description":"Re-roof and replace AC condenser","issue_date":"2025-09-01"},
		{"id":"M2","description":"Replace HVAC system and water heater","issue_date":"2025-09-01"}
	]}`)

	out := e.Predict(Input{
		Property:  model.Property{ID: "p1", YearBuilt: intPtr(1990), City: "Atlanta", State: "GA"},
		Snapshots: []model.EnrichmentSnapshot{permits},
	})

	for _, field := range []string{model.FieldRoofAgeBucket, model.FieldHVACAgeBucket, model.FieldWaterHeaterAgeBucket} {
		r := resultFor(t, out, field)
		assert.Equal(t, TierPermit, r.Provenance.Tier, field)
		assert.Empty(t, r.Provenance.Penalties, field)
	}
	assert.Equal(t, "0-4", resultFor(t, out, model.FieldHVACAgeBucket).Value)
	assert.Equal(t, "0-5", resultFor(t, out, model.FieldRoofAgeBucket).Value)
	assert.Equal(t, "0-3", resultFor(t, out, model.FieldWaterHeaterAgeBucket).Value)
}

func TestPredict_OutOfRangePermitFallsThrough(t *testing.T) {
	e := NewEngine(roofOnlyTable()).WithNow(testNow)
	permits := snap(model.ProviderPermits, `{"permits":[{"id":"R1","description":"Reroof","issue_date":"1975-04-01"}]}`)

	out := e.Predict(Input{
		Property:  model.Property{ID: "p1", YearBuilt: intPtr(2016)},
		Snapshots: []model.EnrichmentSnapshot{permits},
	})

	roof := resultFor(t, out, model.FieldRoofAgeBucket)
	assert.Equal(t, TierRegional, roof.Provenance.Tier)
	assert.Equal(t, "6-10", roof.Value)
}

func TestPredict_AssessorTiers(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	assessor := snap(model.ProviderAssessor, `{"property":[{
		"summary":{"yearbuilt":1990},
		"building":{"construction":{"roofcover":"Composition Shingle"}},
		"utilities":{"heatingfuel":"Gas","heatingtype":"Forced Air","coolingtype":"Central"},
		"address":{"locality":"Tampa","countrySubd":"FL"}
	}]}`)

	out := e.Predict(Input{Property: model.Property{ID: "p1"}, Snapshots: []model.EnrichmentSnapshot{assessor}})
	require.Empty(t, out.Failures)
	assert.Equal(t, "high_heat", string(out.ClimateZone))

	roof := resultFor(t, out, model.FieldRoofAgeBucket)
	assert.Equal(t, TierEnriched, roof.Provenance.Tier)
	assert.Equal(t, "21+", roof.Value, "36 years exceeds the adjusted max, so the age is floored")
	require.Len(t, roof.Provenance.Penalties, 1)
	assert.Equal(t, PenAgeExceedsLifespan, roof.Provenance.Penalties[0].Name)
	assert.InDelta(t, 0.70+0.02+0.03-0.10, roof.Confidence, 1e-9)
	require.NotNil(t, roof.Provenance.Assessor)
	assert.Equal(t, "roof_material", roof.Provenance.Assessor.Attribute)

	typ := resultFor(t, out, model.FieldHVACType)
	assert.Equal(t, "central_ac_furnace", typ.Value)
	assert.Equal(t, TierEnriched, typ.Provenance.Tier)
	assert.InDelta(t, 0.73, typ.Confidence, 1e-9)

	wh := resultFor(t, out, model.FieldWaterHeaterType)
	assert.Equal(t, "tank_gas", wh.Value)
	assert.Equal(t, TierEnriched, wh.Provenance.Tier)

	present := resultFor(t, out, model.FieldHVACPresent)
	assert.Equal(t, "true", present.Value)
}

func TestPredict_EffectiveYearAndCrossValidation(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	assessor := snap(model.ProviderAssessor, `{"year_built":1970,"effective_year_built":2015}`)

	out := e.Predict(Input{Property: model.Property{ID: "p1"}, Snapshots: []model.EnrichmentSnapshot{assessor}})
	roof := resultFor(t, out, model.FieldRoofAgeBucket)
	assert.Equal(t, TierBasic, roof.Provenance.Tier)
	assert.Equal(t, "11-15", roof.Value)
	assert.Equal(t, 2015, roof.Provenance.Assessor.EffectiveYear)
	assert.InDelta(t, 0.60, roof.Confidence, 1e-9)

	gutters := snap(model.ProviderPermits, `{"permits":[{"id":"G1","description":"Replace gutters and fascia","issue_date":"2024-05-01"}]}`)
	out = e.Predict(Input{Property: model.Property{ID: "p1"}, Snapshots: []model.EnrichmentSnapshot{assessor, gutters}})
	roof = resultFor(t, out, model.FieldRoofAgeBucket)
	assert.Equal(t, TierEnriched, roof.Provenance.Tier)
	assert.Contains(t, roof.Provenance.Assessor.CrossCheck, "exterior permit")
	assert.InDelta(t, 0.75, roof.Confidence, 1e-9)
}

func TestPredict_ZoneOnlyRegional(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)

	out := e.Predict(Input{Property: model.Property{ID: "p1", State: "MN"}})
	assert.Equal(t, "freeze_thaw", string(out.ClimateZone))

	roof := resultFor(t, out, model.FieldRoofAgeBucket)
	assert.Equal(t, TierRegional, roof.Provenance.Tier)
	assert.Equal(t, "climate_zone", roof.Provenance.Source)
	assert.Equal(t, "6-10", roof.Value)
	assert.InDelta(t, 0.52, roof.Confidence, 1e-9)

	typ := resultFor(t, out, model.FieldHVACType)
	assert.Equal(t, "central_ac_furnace", typ.Value)
	assert.InDelta(t, 0.55, typ.Confidence, 1e-9)

	wh := resultFor(t, out, model.FieldWaterHeaterType)
	assert.Equal(t, "tank_gas", wh.Value)
}

func TestPredict_HardDefaults(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)

	out := e.Predict(Input{Property: model.Property{ID: "p1"}})
	require.Len(t, out.Results, 6)

	want := map[string]string{
		model.FieldRoofAgeBucket:        "11-15",
		model.FieldHVACPresent:          "true",
		model.FieldHVACType:             "central_ac_furnace",
		model.FieldHVACAgeBucket:        "5-9",
		model.FieldWaterHeaterType:      "tank_gas",
		model.FieldWaterHeaterAgeBucket: "4-7",
	}
	for _, r := range out.Results {
		assert.Equal(t, want[r.Field], r.Value, r.Field)
		assert.Equal(t, TierDefault, r.Provenance.Tier, r.Field)
		assert.InDelta(t, 0.28, r.Confidence, 1e-9, r.Field)
	}
}

func TestPredict_FieldFailureIsolated(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	e.rules = append([]rule{{field: "exploding", fn: func(*facts) (Result, error) { panic("boom") }}}, e.rules...)

	out := e.Predict(Input{Property: model.Property{ID: "p1"}})
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "exploding", out.Failures[0].Field)
	assert.Contains(t, out.Failures[0].Err.Error(), "boom")
	assert.Len(t, out.Results, 6)
}

func TestPredict_Deterministic(t *testing.T) {
	e := NewEngine(lifespan.Default()).WithNow(testNow)
	in := Input{
		Property: model.Property{ID: "p1", YearBuilt: intPtr(1999), State: "CA", City: "Sacramento"},
		Snapshots: []model.EnrichmentSnapshot{
			snap(model.ProviderPermits, `{"permits":[{"id":"W1","description":"Replace 50 gal gas water heater","issue_date":"2019-02-01"}]}`),
		},
	}
	assert.Equal(t, e.Predict(in), e.Predict(in))

	wh := resultFor(t, e.Predict(in), model.FieldWaterHeaterAgeBucket)
	assert.Equal(t, "4-7", wh.Value)
	assert.Equal(t, TierPermit, wh.Provenance.Tier)
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{
		model.FieldRoofAgeBucket, model.FieldHVACPresent, model.FieldHVACType,
		model.FieldHVACAgeBucket, model.FieldWaterHeaterType, model.FieldWaterHeaterAgeBucket,
	}, NewEngine(nil).Fields())
}
