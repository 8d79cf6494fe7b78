// Package lifespan holds the read-only reference data for expected system
// service life and climate adjustment factors.
package lifespan

import (
	_ "embed"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/homesense/internal/model"
)

//go:embed reference.yaml
var embeddedReference []byte

type refKey struct {
	system  string
	subtype string
	zone    string
}

type factorKey struct {
	zone   string
	system string
}

// Table is an immutable lookup over lifespan references and climate factors.
// Build one with New, Default or LoadFile and share it freely.
type Table struct {
	refs    map[refKey]model.LifespanReference
	factors map[factorKey]float64
}

// Range is an expected service life in years.
type Range struct {
	Min     float64
	Typical float64
	Max     float64
	Factor  float64
}

// New builds a table. Later rows override earlier rows with the same key.
func New(refs []model.LifespanReference, factors []model.ClimateFactor) *Table {
	t := &Table{
		refs:    make(map[refKey]model.LifespanReference, len(refs)),
		factors: make(map[factorKey]float64, len(factors)),
	}
	for _, r := range refs {
		t.refs[refKey{norm(r.SystemType), norm(r.Subtype), norm(r.ClimateZone)}] = r
	}
	for _, f := range factors {
		if f.Multiplier <= 0 {
			continue
		}
		t.factors[factorKey{norm(f.ClimateZone), norm(f.FactorType)}] = f.Multiplier
	}
	return t
}

type referenceFile struct {
	Reference struct {
		Lifespans      []model.LifespanReference `yaml:"lifespans"`
		ClimateFactors []model.ClimateFactor     `yaml:"climate_factors"`
	} `yaml:"reference"`
}

// Parse builds a table from reference YAML.
func Parse(data []byte) (*Table, error) {
	var f referenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "lifespan: parse reference")
	}
	if len(f.Reference.Lifespans) == 0 {
		return nil, eris.New("lifespan: reference has no lifespan rows")
	}
	return New(f.Reference.Lifespans, f.Reference.ClimateFactors), nil
}

// Default returns the table built from the embedded reference data.
func Default() *Table {
	t, err := Parse(embeddedReference)
	if err != nil {
		panic(err) // embedded data is validated by tests
	}
	return t
}

// Rows returns the embedded reference rows, for seeding a database.
func Rows() ([]model.LifespanReference, []model.ClimateFactor, error) {
	var f referenceFile
	if err := yaml.Unmarshal(embeddedReference, &f); err != nil {
		return nil, nil, eris.Wrap(err, "lifespan: parse reference")
	}
	return f.Reference.Lifespans, f.Reference.ClimateFactors, nil
}

// LoadFile reads reference YAML from path.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lifespan: read reference %s", path)
	}
	return Parse(data)
}

// Lookup returns the reference row for (system, subtype, zone). When no
// zone-specific row exists it falls back to the default zone row.
func (t *Table) Lookup(system, subtype, zone string) (model.LifespanReference, bool) {
	if t == nil {
		return model.LifespanReference{}, false
	}
	s, st := norm(system), norm(subtype)
	if r, ok := t.refs[refKey{s, st, norm(zone)}]; ok {
		return r, true
	}
	r, ok := t.refs[refKey{s, st, model.DefaultClimateZone}]
	return r, ok
}

// Factor returns the climate multiplier for a system in a zone.
func (t *Table) Factor(zone, system string) (float64, bool) {
	if t == nil {
		return 1, false
	}
	f, ok := t.factors[factorKey{norm(zone), norm(system)}]
	if !ok {
		return 1, false
	}
	return f, true
}

// Adjusted returns the climate-adjusted service life for a system subtype.
// Zone-specific rows already carry the climate, so the zone factor only
// scales rows that fell back to the default zone. The factor defaults to 1.0
// when the zone has none.
func (t *Table) Adjusted(system, subtype, zone string) (Range, bool) {
	ref, ok := t.Lookup(system, subtype, zone)
	if !ok {
		return Range{}, false
	}
	f := 1.0
	if norm(ref.ClimateZone) == model.DefaultClimateZone {
		f, _ = t.Factor(zone, system)
	}
	return Range{
		Min:     float64(ref.MinYears) * f,
		Typical: float64(ref.TypicalYears) * f,
		Max:     float64(ref.MaxYears) * f,
		Factor:  f,
	}, true
}

// Len returns the number of lifespan rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.refs)
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
