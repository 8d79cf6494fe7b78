package pipeline

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/evidence"
	"github.com/sells-group/homesense/internal/model"
	"github.com/sells-group/homesense/internal/predict"
	"github.com/sells-group/homesense/internal/resilience"
	"github.com/sells-group/homesense/internal/seasonal"
)

// PlanRequest asks for a seasonal plan. Months 0 uses the configured default.
type PlanRequest struct {
	HomeID string `json:"homeId"`
	Months int    `json:"months"`
	Force  bool   `json:"force"`
}

func (r PlanRequest) validate() error {
	if strings.TrimSpace(r.HomeID) == "" {
		return eris.Wrap(ErrInvalidInput, "homeId is required")
	}
	if r.Months < 0 || r.Months > MaxPlanMonths {
		return eris.Wrapf(ErrInvalidInput, "months must be between 1 and %d", MaxPlanMonths)
	}
	return nil
}

// GenerateSeasonalPlan builds the task candidates for a home and inserts the
// ones not already scheduled within the horizon. With Force set every
// candidate is inserted.
func (s *Service) GenerateSeasonalPlan(ctx context.Context, req PlanRequest) (*model.PlanResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	homeID := strings.TrimSpace(req.HomeID)
	months := req.Months
	if months == 0 {
		months = s.opts.DefaultMonths
	}

	prop, err := s.store.GetProperty(ctx, homeID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load home")
	}
	snaps, err := s.store.ListSnapshots(ctx, homeID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load snapshots")
	}
	known, err := s.knownSystems(ctx, homeID, snaps)
	if err != nil {
		return nil, err
	}
	renovations, err := s.store.ListRenovationItems(ctx, homeID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load renovation items")
	}

	now := s.clock()
	zone := predict.Zone(predict.Input{Property: *prop, Snapshots: snaps})
	candidates := seasonal.Candidates(seasonal.Input{
		HomeID:       homeID,
		Zone:         zone,
		TLCScore:     prop.TLCScore,
		TLCThreshold: s.opts.TLCThreshold,
		Renovations:  renovations,
		KnownSystems: known,
		Months:       months,
		Now:          now,
	})

	var existing []model.TaskKey
	if !req.Force {
		from, to := seasonal.Horizon(now, months)
		if existing, err = s.store.ListTaskKeys(ctx, homeID, from, to); err != nil {
			return nil, eris.Wrap(err, "pipeline: load scheduled tasks")
		}
	}
	tasks := seasonal.Dedup(candidates, existing, req.Force)

	var inserted int64
	if len(tasks) > 0 {
		retry := s.opts.Retry
		retry.OnRetry = resilience.RetryLogger("insert_tasks", zap.String("home_id", homeID))
		inserted, err = resilience.DoVal(ctx, retry, func(ctx context.Context) (int64, error) {
			return s.store.InsertTasks(ctx, tasks)
		})
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: insert tasks")
		}
	}

	zap.L().Info("pipeline: seasonal plan complete",
		zap.String("home_id", homeID),
		zap.String("climate_zone", string(zone)),
		zap.Int("considered", len(candidates)),
		zap.Int64("inserted", inserted),
		zap.Bool("force", req.Force),
	)
	return &model.PlanResult{
		OK:          true,
		Inserted:    int(inserted),
		Considered:  len(candidates),
		ClimateZone: string(zone),
	}, nil
}

// knownSystems merges the home-systems table with systems evidenced by
// permits.
func (s *Service) knownSystems(ctx context.Context, homeID string, snaps []model.EnrichmentSnapshot) (map[string]bool, error) {
	rows, err := s.store.ListHomeSystems(ctx, homeID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load home systems")
	}
	known := evidence.SystemsFromPermits(evidence.CollectPermits(snaps))
	for _, sys := range rows {
		known[strings.ToLower(strings.TrimSpace(sys))] = true
	}
	return known, nil
}
