// Package store persists properties, enrichment snapshots, reference data,
// predictions and maintenance tasks.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/homesense/internal/model"
)

// ErrNotFound is returned when a property or home does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for predictions and planning.
type Store interface {
	// Properties and enrichment
	GetProperty(ctx context.Context, id string) (*model.Property, error)
	PutProperty(ctx context.Context, p model.Property) error
	ListPropertyIDs(ctx context.Context, limit int) ([]string, error)
	AddSnapshot(ctx context.Context, s model.EnrichmentSnapshot) error
	ListSnapshots(ctx context.Context, propertyID string) ([]model.EnrichmentSnapshot, error)

	// Reference data
	ListLifespans(ctx context.Context) ([]model.LifespanReference, error)
	ListClimateFactors(ctx context.Context) ([]model.ClimateFactor, error)
	SeedReference(ctx context.Context, refs []model.LifespanReference, factors []model.ClimateFactor) (int64, error)

	// Predictions
	UpsertPrediction(ctx context.Context, p model.Prediction) error
	InsertPrediction(ctx context.Context, p model.Prediction) error
	ListPredictions(ctx context.Context, addressID string) ([]model.Prediction, error)

	// Planner
	ListHomeSystems(ctx context.Context, homeID string) ([]string, error)
	AddHomeSystem(ctx context.Context, homeID, systemType string) error
	ListRenovationItems(ctx context.Context, homeID string) ([]model.RenovationItem, error)
	PutRenovationItem(ctx context.Context, item model.RenovationItem) error
	ListTaskKeys(ctx context.Context, homeID string, from, to time.Time) ([]model.TaskKey, error)
	InsertTasks(ctx context.Context, tasks []model.MaintenanceTask) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// orNewID returns id, or a fresh UUID when id is empty.
func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func taskStatus(t model.MaintenanceTask) string {
	if t.Status == "" {
		return model.TaskStatusPending
	}
	return t.Status
}
