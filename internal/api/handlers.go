package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/homesense/internal/confidence"
	"github.com/sells-group/homesense/internal/model"
	"github.com/sells-group/homesense/internal/pipeline"
)

// Planner runs predictions and seasonal plans.
type Planner interface {
	RunPredictions(ctx context.Context, addressID string) (*model.RunSummary, error)
	GenerateSeasonalPlan(ctx context.Context, req pipeline.PlanRequest) (*model.PlanResult, error)
}

// PredictionReader reads stored predictions.
type PredictionReader interface {
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	ListPredictions(ctx context.Context, addressID string) ([]model.Prediction, error)
}

// Handler serves the prediction, planning, and confidence endpoints.
type Handler struct {
	planner Planner
	reader  PredictionReader
}

// NewHandler creates a Handler.
func NewHandler(planner Planner, reader PredictionReader) *Handler {
	return &Handler{planner: planner, reader: reader}
}

// GET /health
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runRequest struct {
	AddressID string `json:"address_id"`
}

// POST /v1/predictions/run
func (h *Handler) HandleRunPredictions(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	summary, err := h.planner.RunPredictions(r.Context(), strings.TrimSpace(req.AddressID))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// POST /v1/seasonal-plan
func (h *Handler) HandleSeasonalPlan(w http.ResponseWriter, r *http.Request) {
	var req pipeline.PlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	req.HomeID = strings.TrimSpace(req.HomeID)
	res, err := h.planner.GenerateSeasonalPlan(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type predictionView struct {
	model.Prediction
	State confidence.State `json:"confidence_state"`
}

type predictionsResponse struct {
	AddressID   string           `json:"address_id"`
	Predictions []predictionView `json:"predictions"`
}

// GET /v1/properties/{id}/predictions
func (h *Handler) HandleListPredictions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.reader.GetProperty(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	preds, err := h.reader.ListPredictions(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]predictionView, 0, len(preds))
	for _, p := range preds {
		views = append(views, predictionView{
			Prediction: p,
			State:      confidence.ResolveState(p.Confidence, false),
		})
	}
	writeJSON(w, http.StatusOK, predictionsResponse{AddressID: id, Predictions: views})
}

type installRequest struct {
	confidence.InstallInput
	InstallYear *int                         `json:"install_year,omitempty"`
	Status      confidence.ReplacementStatus `json:"replacement_status,omitempty"`
}

type installResponse struct {
	confidence.InstallScore
	InstalledLine string `json:"installed_line"`
}

// POST /v1/confidence/install
func (h *Handler) HandleInstallConfidence(w http.ResponseWriter, r *http.Request) {
	var req installRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Status == "" {
		req.Status = confidence.StatusUnknown
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_input", "unknown replacement_status "+string(req.Status))
		return
	}
	score, err := confidence.ScoreInstallConfidence(req.InstallInput)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, installResponse{
		InstallScore:  score,
		InstalledLine: confidence.FormatInstalledLine(req.InstallYear, req.Source, req.Status),
	})
}

type stateRequest struct {
	Score          float64              `json:"score"`
	UserConfirmed  bool                 `json:"user_confirmed"`
	Events         []confidence.Event   `json:"events,omitempty"`
	System         confidence.SystemKey `json:"system,omitempty"`
	YearsRemaining *int                 `json:"years_remaining,omitempty"`
	// Decay, when present, applies the time-based decay due at Now before
	// the events. Now defaults to the current time.
	Decay *confidence.DecayState `json:"decay,omitempty"`
	Now   *time.Time             `json:"now,omitempty"`
}

type stateResponse struct {
	Score       float64                 `json:"score"`
	State       confidence.State        `json:"state"`
	Transitions []confidence.Transition `json:"transitions"`
	Copy        *confidence.Copy        `json:"copy,omitempty"`
	Decay       *confidence.DecayState  `json:"decay,omitempty"`
}

// POST /v1/confidence/state
func (h *Handler) HandleConfidenceState(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Score < 0 || req.Score > 1 {
		writeError(w, http.StatusBadRequest, "invalid_input", "score must be between 0 and 1")
		return
	}

	var (
		score       float64
		transitions []confidence.Transition
		decay       *confidence.DecayState
		err         error
	)
	if req.Decay != nil {
		now := time.Now().UTC()
		if req.Now != nil {
			now = *req.Now
		}
		var next confidence.DecayState
		score, transitions, next, err = confidence.Advance(req.Score, *req.Decay, req.Events, now)
		decay = &next
	} else {
		score, transitions, err = confidence.ApplyAll(req.Score, req.Events)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	confirmed := req.UserConfirmed
	for _, ev := range req.Events {
		if ev.Trigger.Confirms() {
			confirmed = true
		}
	}

	resp := stateResponse{
		Score:       score,
		State:       confidence.ResolveState(score, confirmed),
		Transitions: transitions,
		Decay:       decay,
	}
	if req.System != "" {
		c, err := confidence.GateCopy(req.System, resp.State, req.YearsRemaining)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		resp.Copy = &c
	}
	writeJSON(w, http.StatusOK, resp)
}
