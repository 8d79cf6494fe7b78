package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/model"
	"github.com/sells-group/homesense/internal/predict"
	"github.com/sells-group/homesense/internal/resilience"
)

// RunPredictions predicts every field for one property and upserts the
// results under a fresh run id. A field that fails to predict or persist is
// logged and left out of the count.
func (s *Service) RunPredictions(ctx context.Context, addressID string) (*model.RunSummary, error) {
	addressID = strings.TrimSpace(addressID)
	if addressID == "" {
		return nil, eris.Wrap(ErrInvalidInput, "address_id is required")
	}

	prop, err := s.store.GetProperty(ctx, addressID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load property")
	}
	snaps, err := s.store.ListSnapshots(ctx, addressID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load snapshots")
	}

	out := s.engine.Predict(predict.Input{Property: *prop, Snapshots: snaps})

	runID := uuid.NewString()
	log := zap.L().With(
		zap.String("address_id", addressID),
		zap.String("prediction_run_id", runID),
		zap.String("model_version", s.opts.ModelVersion),
	)
	summary := &model.RunSummary{PredictionRunID: runID, ModelVersion: s.opts.ModelVersion}
	createdAt := s.clock()

	for _, r := range out.Results {
		p := model.Prediction{
			ID:           uuid.NewString(),
			AddressID:    addressID,
			Field:        r.Field,
			Value:        r.Value,
			Confidence:   r.Confidence,
			Provenance:   r.Provenance,
			RunID:        runID,
			ModelVersion: s.opts.ModelVersion,
			CreatedAt:    createdAt,
		}
		if err := s.savePrediction(ctx, p); err != nil {
			log.Error("pipeline: prediction not saved", zap.String("field", r.Field), zap.Error(err))
			continue
		}
		summary.PredictionsGenerated++
	}

	log.Info("pipeline: predictions complete",
		zap.String("climate_zone", string(out.ClimateZone)),
		zap.Int("generated", summary.PredictionsGenerated),
		zap.Int("failed_fields", len(out.Failures)),
	)
	return summary, nil
}

// savePrediction upserts p, retrying transient errors, and falls back to a
// plain insert when the upsert keeps failing.
func (s *Service) savePrediction(ctx context.Context, p model.Prediction) error {
	retry := s.opts.Retry
	retry.OnRetry = resilience.RetryLogger("upsert_prediction", zap.String("field", p.Field))

	err := resilience.Do(ctx, retry, func(ctx context.Context) error {
		return s.store.UpsertPrediction(ctx, p)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	zap.L().Warn("pipeline: upsert failed, falling back to insert",
		zap.String("address_id", p.AddressID),
		zap.String("field", p.Field),
		zap.Error(err),
	)
	if ierr := s.store.InsertPrediction(ctx, p); ierr != nil {
		return eris.Wrap(ierr, "pipeline: insert fallback")
	}
	return nil
}
