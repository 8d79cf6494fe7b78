package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homesense/internal/lifespan"
	"github.com/sells-group/homesense/internal/model"
	"github.com/sells-group/homesense/internal/predict"
	"github.com/sells-group/homesense/internal/resilience"
	"github.com/sells-group/homesense/internal/store"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func newService(st store.Store) *Service {
	return New(st, predict.NewEngine(lifespan.Default()), Options{Retry: fastRetry()}).WithNow(testNow)
}

func newSQLite(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "homesense.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedTampa(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	yb := 2001
	require.NoError(t, st.PutProperty(ctx, model.Property{ID: "home-1", Address: "100 Bayshore Blvd", City: "Tampa", State: "FL", YearBuilt: &yb}))
	require.NoError(t, st.AddSnapshot(ctx, model.EnrichmentSnapshot{
		PropertyID: "home-1",
		Provider:   model.ProviderAssessor,
		Payload:    json.RawMessage(`{"year_built": 2001, "roof_material": "Asphalt Shingle", "heating_type": "Heat Pump", "heating_fuel": "Electric"}`),
		FetchedAt:  testNow.AddDate(0, -1, 0),
	}))
}

func TestRunPredictions_UpsertIsIdempotent(t *testing.T) {
	st := newSQLite(t)
	seedTampa(t, st)
	svc := newService(st)
	ctx := context.Background()

	first, err := svc.RunPredictions(ctx, "home-1")
	require.NoError(t, err)
	assert.Equal(t, 6, first.PredictionsGenerated)
	assert.Equal(t, DefaultModelVersion, first.ModelVersion)
	assert.NotEmpty(t, first.PredictionRunID)

	second, err := svc.RunPredictions(ctx, "home-1")
	require.NoError(t, err)
	assert.Equal(t, 6, second.PredictionsGenerated)
	assert.NotEqual(t, first.PredictionRunID, second.PredictionRunID)

	stored, err := st.ListPredictions(ctx, "home-1")
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for _, p := range stored {
		assert.Equal(t, second.PredictionRunID, p.RunID, p.Field)
		assert.NotEmpty(t, p.Provenance.Tier, p.Field)
		assert.Equal(t, "high_heat", p.Provenance.ClimateZone, p.Field)
	}
}

func TestRunPredictions_InvalidAndMissing(t *testing.T) {
	st := newSQLite(t)
	svc := newService(st)

	_, err := svc.RunPredictions(context.Background(), "  ")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.RunPredictions(context.Background(), "nope")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRunPredictions_FallsBackToInsert(t *testing.T) {
	st := &mockStore{}
	st.On("GetProperty", mock.Anything, "p1").Return(&model.Property{ID: "p1", State: "MN", City: "Duluth"}, nil)
	st.On("ListSnapshots", mock.Anything, "p1").Return(nil, nil)
	st.On("UpsertPrediction", mock.Anything, mock.Anything).Return(errors.New("no unique constraint"))
	st.On("InsertPrediction", mock.Anything, mock.MatchedBy(func(p model.Prediction) bool {
		return p.Field != model.FieldHVACType
	})).Return(nil)
	st.On("InsertPrediction", mock.Anything, mock.MatchedBy(func(p model.Prediction) bool {
		return p.Field == model.FieldHVACType
	})).Return(errors.New("insert failed"))

	summary, err := newService(st).RunPredictions(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.PredictionsGenerated)
	st.AssertNumberOfCalls(t, "UpsertPrediction", 6)
	st.AssertNumberOfCalls(t, "InsertPrediction", 6)
}

func TestRunPredictions_RetriesTransientUpsert(t *testing.T) {
	st := &mockStore{}
	st.On("GetProperty", mock.Anything, "p1").Return(&model.Property{ID: "p1"}, nil)
	st.On("ListSnapshots", mock.Anything, "p1").Return(nil, nil)
	st.On("UpsertPrediction", mock.Anything, mock.Anything).Return(&pgconn.PgError{Code: "40P01"}).Once()
	st.On("UpsertPrediction", mock.Anything, mock.Anything).Return(nil)

	summary, err := newService(st).RunPredictions(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, summary.PredictionsGenerated)
	st.AssertNotCalled(t, "InsertPrediction", mock.Anything, mock.Anything)
}

func TestGenerateSeasonalPlan_DedupAndForce(t *testing.T) {
	st := newSQLite(t)
	seedTampa(t, st)
	require.NoError(t, st.AddHomeSystem(context.Background(), "home-1", model.SystemPool))
	svc := newService(st)
	ctx := context.Background()

	first, err := svc.GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "home-1"})
	require.NoError(t, err)
	assert.True(t, first.OK)
	assert.Equal(t, "high_heat", first.ClimateZone)
	assert.Equal(t, 8, first.Considered)
	assert.Equal(t, 8, first.Inserted)

	second, err := svc.GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "home-1"})
	require.NoError(t, err)
	assert.Equal(t, 8, second.Considered)
	assert.Zero(t, second.Inserted)

	forced, err := svc.GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "home-1", Force: true})
	require.NoError(t, err)
	assert.Equal(t, forced.Considered, forced.Inserted)
}

func TestGenerateSeasonalPlan_PermitRevealsOptionalSystem(t *testing.T) {
	st := newSQLite(t)
	seedTampa(t, st)
	require.NoError(t, st.AddSnapshot(context.Background(), model.EnrichmentSnapshot{
		PropertyID: "home-1",
		Provider:   model.ProviderPermits,
		Payload:    json.RawMessage(`[{"id": "G-1", "description": "Install standby generator", "issue_date": "2024-02-01"}]`),
		FetchedAt:  testNow,
	}))

	res, err := newService(st).GenerateSeasonalPlan(context.Background(), PlanRequest{HomeID: "home-1", Months: 12})
	require.NoError(t, err)
	assert.Equal(t, 8, res.Considered)
}

func TestGenerateSeasonalPlan_TLCAndRenovations(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()
	tlc := 72.0
	require.NoError(t, st.PutProperty(ctx, model.Property{ID: "home-2", Address: "1 Lake Ave", City: "Duluth", State: "MN", TLCScore: &tlc}))
	require.NoError(t, st.PutRenovationItem(ctx, model.RenovationItem{ID: "r1", HomeID: "home-2", Title: "Repair porch steps", Urgency: "high"}))

	res, err := newService(st).GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "home-2", Months: 1})
	require.NoError(t, err)
	assert.Equal(t, "freeze_thaw", res.ClimateZone)
	// three condition inspections, the renovation and "Clean gutters before winter"
	assert.Equal(t, 5, res.Considered)
	assert.Equal(t, 5, res.Inserted)
}

func TestGenerateSeasonalPlan_Validation(t *testing.T) {
	svc := newService(newSQLite(t))
	ctx := context.Background()

	_, err := svc.GenerateSeasonalPlan(ctx, PlanRequest{})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "h", Months: -1})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "h", Months: MaxPlanMonths + 1})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.GenerateSeasonalPlan(ctx, PlanRequest{HomeID: "missing"})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestRunBatch(t *testing.T) {
	st := newSQLite(t)
	seedTampa(t, st)
	svc := newService(st)

	res, err := svc.RunBatch(context.Background(), []string{"home-1", "missing"}, BatchOptions{MaxConcurrent: 2, RatePerSecond: 100})
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Properties: 2, Succeeded: 1, Failed: 1, Predictions: 6}, res)
}

func TestLoadReference(t *testing.T) {
	st := newSQLite(t)
	ctx := context.Background()

	table, err := LoadReference(ctx, st, ReferenceStore, "")
	require.NoError(t, err)
	assert.Equal(t, lifespan.Default().Len(), table.Len())

	n, err := SeedReference(ctx, st)
	require.NoError(t, err)
	assert.Positive(t, n)

	table, err = LoadReference(ctx, st, ReferenceStore, "")
	require.NoError(t, err)
	assert.Equal(t, lifespan.Default().Len(), table.Len())

	_, err = LoadReference(ctx, st, ReferenceEmbedded, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
