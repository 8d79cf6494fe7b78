package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/homesense/internal/config"
	"github.com/sells-group/homesense/internal/lifespan"
	"github.com/sells-group/homesense/internal/model"
	"github.com/sells-group/homesense/internal/pipeline"
	"github.com/sells-group/homesense/internal/predict"
	"github.com/sells-group/homesense/internal/store"
)

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	ctx := context.Background()
	yb := 2001
	require.NoError(t, st.PutProperty(ctx, model.Property{ID: "home-1", Address: "100 Bayshore Blvd", City: "Tampa", State: "FL", YearBuilt: &yb}))
	require.NoError(t, st.AddSnapshot(ctx, model.EnrichmentSnapshot{
		PropertyID: "home-1",
		Provider:   model.ProviderAssessor,
		Payload:    json.RawMessage(`{"year_built": 2001, "roof_material": "Asphalt Shingle", "heating_type": "Heat Pump"}`),
		FetchedAt:  testNow.AddDate(0, -1, 0),
	}))
	return st
}

func newTestRouter(t *testing.T, cfg config.ServerConfig) (http.Handler, *store.SQLiteStore) {
	t.Helper()
	st := newTestStore(t)
	svc := pipeline.New(st, predict.NewEngine(lifespan.Default()), pipeline.Options{}).WithNow(testNow)
	return NewRouter(NewHandler(svc, st), cfg), st
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{APIKey: "secret"})

	rr := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])
}

func TestAPIKey(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{APIKey: "secret"})
	body := map[string]string{"address_id": "home-1"}

	rr := do(t, h, http.MethodPost, "/v1/predictions/run", body)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthorized", decode[errorResponse](t, rr).Code)

	rr = do(t, h, http.MethodPost, "/v1/predictions/run", body, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/predictions/run", body, "Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRunPredictions(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/v1/predictions/run", map[string]string{"address_id": "home-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	summary := decode[model.RunSummary](t, rr)
	assert.Equal(t, 6, summary.PredictionsGenerated)
	assert.Equal(t, pipeline.DefaultModelVersion, summary.ModelVersion)
	assert.NotEmpty(t, summary.PredictionRunID)

	rr = do(t, h, http.MethodPost, "/v1/predictions/run", map[string]string{"address_id": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_input", decode[errorResponse](t, rr).Code)

	rr = do(t, h, http.MethodPost, "/v1/predictions/run", map[string]string{"address_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/predictions/run", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "bad_request", decode[errorResponse](t, rr).Code)
}

func TestListPredictions(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})

	rr := do(t, h, http.MethodGet, "/v1/properties/home-1/predictions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[predictionsResponse](t, rr).Predictions)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/v1/predictions/run", map[string]string{"address_id": "home-1"}).Code)

	rr = do(t, h, http.MethodGet, "/v1/properties/home-1/predictions", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[predictionsResponse](t, rr)
	assert.Equal(t, "home-1", resp.AddressID)
	require.Len(t, resp.Predictions, 6)
	for _, p := range resp.Predictions {
		assert.True(t, p.State.Valid(), p.Field)
		assert.NotEmpty(t, p.Value, p.Field)
	}

	rr = do(t, h, http.MethodGet, "/v1/properties/missing/predictions", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSeasonalPlan(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/v1/seasonal-plan", map[string]any{"homeId": "home-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	first := decode[model.PlanResult](t, rr)
	assert.True(t, first.OK)
	assert.Equal(t, "high_heat", first.ClimateZone)
	assert.Positive(t, first.Considered)
	assert.Equal(t, first.Considered, first.Inserted)

	rr = do(t, h, http.MethodPost, "/v1/seasonal-plan", map[string]any{"homeId": "home-1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decode[model.PlanResult](t, rr).Inserted)

	rr = do(t, h, http.MethodPost, "/v1/seasonal-plan", map[string]any{"homeId": "home-1", "months": 30})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/seasonal-plan", map[string]any{"months": 6})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/seasonal-plan", map[string]any{"homeId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInstallConfidence(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/v1/confidence/install", map[string]any{"source": "heuristic", "has_photo": true})
	require.Equal(t, http.StatusOK, rr.Code)
	var score struct {
		Score     float64 `json:"score"`
		Level     string  `json:"level"`
		Breakdown []struct {
			Name string `json:"name"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &score))
	assert.InDelta(t, 0.37, score.Score, 1e-9)
	assert.Equal(t, "low", score.Level)
	assert.Len(t, score.Breakdown, 2)

	rr = do(t, h, http.MethodPost, "/v1/confidence/install", map[string]any{"source": "guess"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInstallConfidence_InstalledLine(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/v1/confidence/install", map[string]any{
		"source":             "owner_reported",
		"install_year":       2015,
		"replacement_status": "replaced",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[installResponse](t, rr)
	assert.Equal(t, "Replaced 2015 · reported by owner", resp.InstalledLine)
	assert.InDelta(t, 0.50, resp.Score, 1e-9)

	rr = do(t, h, http.MethodPost, "/v1/confidence/install", map[string]any{"source": "heuristic"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Install year unknown", decode[installResponse](t, rr).InstalledLine)

	rr = do(t, h, http.MethodPost, "/v1/confidence/install", map[string]any{"source": "inspection", "replacement_status": "new"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_input", decode[errorResponse](t, rr).Code)
}

func TestConfidenceState(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{"score": 0.5})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[stateResponse](t, rr)
	assert.Equal(t, "estimated", string(resp.State))
	assert.Empty(t, resp.Transitions)
	assert.Nil(t, resp.Copy)

	rr = do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{
		"score":  0.3,
		"system": "roof",
		"events": []map[string]any{{"trigger": "manual_confirmation", "at": testNow}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp = decode[stateResponse](t, rr)
	assert.Equal(t, "high", string(resp.State))
	assert.InDelta(t, 0.55, resp.Score, 1e-9)
	require.Len(t, resp.Transitions, 1)
	require.NotNil(t, resp.Copy)
	assert.NotEmpty(t, resp.Copy.Headline)

	rr = do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{
		"score":  0.5,
		"events": []map[string]any{{"trigger": "rumor", "at": testNow}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{"score": 1.5})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{"score": 0.9, "system": "chimney"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestConfidenceState_Decay(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{})
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gap := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	rr := do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{
		"score": 0.6,
		"decay": map[string]any{"created_at": created, "data_gap_since": gap},
		"now":   now,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[stateResponse](t, rr)
	require.Len(t, resp.Transitions, 2)
	assert.Equal(t, "no_confirmation_decay", string(resp.Transitions[0].Trigger))
	assert.Equal(t, "persistent_data_gap", string(resp.Transitions[1].Trigger))
	assert.InDelta(t, 0.53, resp.Score, 1e-9)
	assert.Equal(t, "estimated", string(resp.State))
	require.NotNil(t, resp.Decay)
	require.NotNil(t, resp.Decay.LastNoConfirmationDecayAt)
	assert.True(t, now.Equal(*resp.Decay.LastNoConfirmationDecayAt))

	// Replaying the returned state at the same instant applies nothing new.
	rr = do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{
		"score": resp.Score,
		"decay": resp.Decay,
		"now":   now,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	again := decode[stateResponse](t, rr)
	assert.Empty(t, again.Transitions)
	assert.InDelta(t, 0.53, again.Score, 1e-9)

	rr = do(t, h, http.MethodPost, "/v1/confidence/state", map[string]any{
		"score":  0.6,
		"decay":  map[string]any{"created_at": created},
		"now":    now,
		"events": []map[string]any{{"trigger": "manual_confirmation", "at": now}},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decode[stateResponse](t, rr)
	assert.Equal(t, "high", string(resp.State))
	assert.InDelta(t, 0.83, resp.Score, 1e-9)
	require.NotNil(t, resp.Decay.LastConfirmedAt)
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t, config.ServerConfig{AllowedOrigins: []string{"https://app.example.com"}})

	rr := do(t, h, http.MethodOptions, "/v1/predictions/run", nil,
		"Origin", "https://app.example.com",
		"Access-Control-Request-Method", http.MethodPost,
	)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = do(t, h, http.MethodGet, "/health", nil, "Origin", "https://evil.example.com")
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

type failingPlanner struct{}

func (failingPlanner) RunPredictions(context.Context, string) (*model.RunSummary, error) {
	return nil, errors.New("db exploded")
}

func (failingPlanner) GenerateSeasonalPlan(context.Context, pipeline.PlanRequest) (*model.PlanResult, error) {
	return nil, errors.New("db exploded")
}

func TestInternalError(t *testing.T) {
	st := newTestStore(t)
	h := NewRouter(NewHandler(failingPlanner{}, st), config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/v1/predictions/run", map[string]string{"address_id": "home-1"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode[errorResponse](t, rr)
	assert.Equal(t, "internal_error", resp.Code)
	assert.NotContains(t, resp.Error, "exploded")

	rr = do(t, h, http.MethodPost, "/v1/seasonal-plan", map[string]any{"homeId": "home-1"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
