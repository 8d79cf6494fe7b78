package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/db"
	"github.com/sells-group/homesense/internal/pipeline"
	"github.com/sells-group/homesense/internal/predict"
	"github.com/sells-group/homesense/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "homesense.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, db.PoolConfig{
			URL:      cfg.Store.DatabaseURL,
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// serviceEnv holds the store and the service built on it.
type serviceEnv struct {
	Store   store.Store
	Service *pipeline.Service
}

// Close releases the store.
func (e *serviceEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initService validates config, opens and migrates the store, loads the
// lifespan reference, and builds the Service. Callers should defer env.Close().
func initService(ctx context.Context) (*serviceEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	table, err := pipeline.LoadReference(ctx, st, cfg.Predict.ReferenceSource, cfg.Predict.ReferencePath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc := pipeline.New(st, predict.NewEngine(table), pipeline.Options{
		ModelVersion:  cfg.Predict.ModelVersion,
		DefaultMonths: cfg.Planner.DefaultMonths,
		TLCThreshold:  cfg.Planner.TLCThreshold,
	})
	zap.L().Debug("service ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("model_version", svc.ModelVersion()),
		zap.String("reference_source", cfg.Predict.ReferenceSource),
	)

	return &serviceEnv{Store: st, Service: svc}, nil
}
