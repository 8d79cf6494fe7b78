package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchOptions bounds a batch prediction run.
type BatchOptions struct {
	MaxConcurrent int
	RatePerSecond float64 // 0 disables throttling
}

// BatchResult counts the outcome of a batch.
type BatchResult struct {
	Properties  int `json:"properties"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	Predictions int `json:"predictions_generated"`
}

// RunBatch runs predictions for every id concurrently. A failing property is
// logged and counted; it does not stop the batch.
func (s *Service) RunBatch(ctx context.Context, ids []string, opts BatchOptions) (BatchResult, error) {
	res := BatchResult{Properties: len(ids)}
	if len(ids) == 0 {
		zap.L().Info("pipeline: no properties to predict")
		return res, nil
	}
	concurrency := opts.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 1
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), concurrency)
	}

	zap.L().Info("pipeline: starting batch",
		zap.Int("properties", len(ids)),
		zap.Int("concurrency", concurrency),
		zap.Float64("rate_per_second", opts.RatePerSecond),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	var succeeded, failed, predictions atomic.Int64

	for _, id := range ids {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return eris.Wrap(err, "pipeline: batch rate limit")
				}
			}
			summary, err := s.RunPredictions(gctx, id)
			if err != nil {
				failed.Add(1)
				zap.L().Error("pipeline: batch property failed", zap.String("address_id", id), zap.Error(err))
				return nil
			}
			succeeded.Add(1)
			predictions.Add(int64(summary.PredictionsGenerated))
			return nil
		})
	}

	err := g.Wait()
	res.Succeeded = int(succeeded.Load())
	res.Failed = int(failed.Load())
	res.Predictions = int(predictions.Load())
	if err != nil {
		return res, err
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("predictions", res.Predictions),
	)
	return res, nil
}
