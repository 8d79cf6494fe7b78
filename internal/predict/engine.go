// Package predict infers the age and type of a property's major systems from
// permit, assessor, and location evidence. Every field runs an ordered tier
// cascade and carries a confidence score and a provenance record.
package predict

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/climate"
	"github.com/sells-group/homesense/internal/lifespan"
	"github.com/sells-group/homesense/internal/model"
)

// Input is everything the engine needs for one property. All I/O happens
// before Predict is called.
type Input struct {
	Property  model.Property
	Snapshots []model.EnrichmentSnapshot
}

// Result is one predicted field.
type Result struct {
	Field      string
	Value      string
	Confidence float64
	Provenance model.Provenance
}

// FieldError records a field the engine could not predict.
type FieldError struct {
	Field string
	Err   error
}

// Output holds the predictions for one property.
type Output struct {
	ClimateZone climate.Zone
	Results     []Result
	Failures    []FieldError
}

type rule struct {
	field string
	fn    func(*facts) (Result, error)
}

// Engine evaluates the prediction rules. It is safe for concurrent use.
type Engine struct {
	table *lifespan.Table
	now   time.Time // zero means wall clock; injectable for testing
	rules []rule
}

// NewEngine creates an engine over an immutable lifespan table.
func NewEngine(table *lifespan.Table) *Engine {
	return &Engine{
		table: table,
		rules: []rule{
			{model.FieldRoofAgeBucket, roofAge},
			{model.FieldHVACPresent, hvacPresent},
			{model.FieldHVACType, hvacType},
			{model.FieldHVACAgeBucket, hvacAge},
			{model.FieldWaterHeaterType, waterHeaterType},
			{model.FieldWaterHeaterAgeBucket, waterHeaterAge},
		},
	}
}

// WithNow sets a fixed time for testing.
func (e *Engine) WithNow(t time.Time) *Engine {
	e.now = t
	return e
}

// Fields lists the fields the engine predicts, in evaluation order.
func (e *Engine) Fields() []string {
	out := make([]string, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.field
	}
	return out
}

// Predict runs every field rule for one property. A failing field is logged
// and reported in Failures; the remaining fields are still evaluated.
func (e *Engine) Predict(in Input) Output {
	now := e.now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	f := gather(e.table, in, now)

	out := Output{ClimateZone: f.zone}
	for _, r := range e.rules {
		res, err := runRule(r, f)
		if err != nil {
			zap.L().Warn("predict: field failed",
				zap.String("property_id", in.Property.ID),
				zap.String("field", r.field),
				zap.Error(err),
			)
			out.Failures = append(out.Failures, FieldError{Field: r.field, Err: err})
			continue
		}
		out.Results = append(out.Results, res)
	}
	return out
}

func runRule(r rule, f *facts) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = eris.Errorf("predict: %s panicked: %v", r.field, p)
		}
	}()
	res, err = r.fn(f)
	if err != nil {
		return Result{}, eris.Wrapf(err, "predict: %s", r.field)
	}
	res.Field = r.field
	return res, nil
}

// decide finalizes a tier decision into a Result.
func (f *facts) decide(prov model.Provenance, tier, source, value string, mods, pens []model.Adjustment) Result {
	base := tierBase[tier]
	prov.Tier = tier
	prov.Source = source
	prov.BaseConfidence = base
	prov.Modifiers = mods
	prov.Penalties = pens
	prov.ClimateZone = string(f.zone)
	return Result{
		Value:      value,
		Confidence: Compose(base, mods, pens),
		Provenance: prov,
	}
}

// Zone derives the climate zone the engine would use for in.
func Zone(in Input) climate.Zone {
	return gather(nil, in, time.Time{}).zone
}
