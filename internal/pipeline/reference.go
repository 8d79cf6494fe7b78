package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/lifespan"
	"github.com/sells-group/homesense/internal/store"
)

// Reference sources for the lifespan table.
const (
	ReferenceEmbedded = "embedded"
	ReferenceStore    = "store"
)

// LoadReference builds the lifespan table the engine runs on. An override
// path wins over the source. A store with no reference rows falls back to
// the embedded defaults.
func LoadReference(ctx context.Context, st store.Store, source, path string) (*lifespan.Table, error) {
	if path != "" {
		t, err := lifespan.LoadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load reference file")
		}
		return t, nil
	}
	if source != ReferenceStore {
		return lifespan.Default(), nil
	}

	refs, err := st.ListLifespans(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load lifespans")
	}
	factors, err := st.ListClimateFactors(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load climate factors")
	}
	if len(refs) == 0 {
		zap.L().Warn("pipeline: no reference rows in store, using embedded defaults")
		return lifespan.Default(), nil
	}
	return lifespan.New(refs, factors), nil
}

// SeedReference writes the embedded reference rows to the store.
func SeedReference(ctx context.Context, st store.Store) (int64, error) {
	refs, factors, err := lifespan.Rows()
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: read embedded reference")
	}
	n, err := st.SeedReference(ctx, refs, factors)
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: seed reference")
	}
	zap.L().Info("pipeline: reference seeded", zap.Int64("rows", n))
	return n, nil
}
