// Package pipeline runs the prediction engine and the seasonal planner
// against the store.
package pipeline

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/homesense/internal/predict"
	"github.com/sells-group/homesense/internal/resilience"
	"github.com/sells-group/homesense/internal/seasonal"
	"github.com/sells-group/homesense/internal/store"
)

// ErrInvalidInput marks caller mistakes such as a missing id. They are never
// retried.
var ErrInvalidInput = eris.New("pipeline: invalid input")

// DefaultModelVersion tags predictions when no version is configured.
const DefaultModelVersion = "systems-v3"

// MaxPlanMonths bounds the planning horizon.
const MaxPlanMonths = 24

// Options tunes a Service.
type Options struct {
	ModelVersion  string
	DefaultMonths int
	TLCThreshold  float64
	Retry         resilience.RetryConfig
}

// Service ties the engine and planner to a store.
type Service struct {
	store  store.Store
	engine *predict.Engine
	opts   Options
	now    time.Time // zero means wall clock
}

// New creates a Service. Zero options fall back to defaults.
func New(st store.Store, engine *predict.Engine, opts Options) *Service {
	if opts.ModelVersion == "" {
		opts.ModelVersion = DefaultModelVersion
	}
	if opts.DefaultMonths <= 0 {
		opts.DefaultMonths = seasonal.DefaultMonths
	}
	if opts.TLCThreshold <= 0 {
		opts.TLCThreshold = seasonal.DefaultTLCThreshold
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.WriteRetryConfig()
	}
	return &Service{store: st, engine: engine, opts: opts}
}

// WithNow fixes the clock of the service and its engine for testing.
func (s *Service) WithNow(t time.Time) *Service {
	s.now = t
	s.engine.WithNow(t)
	return s
}

// ModelVersion reports the version stamped on predictions.
func (s *Service) ModelVersion() string { return s.opts.ModelVersion }

func (s *Service) clock() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}
