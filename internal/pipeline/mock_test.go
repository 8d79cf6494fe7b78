package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/homesense/internal/model"
	"github.com/sells-group/homesense/internal/store"
)

// mockStore mocks the store methods the pipeline calls. Unmocked methods
// panic through the nil embedded interface.
type mockStore struct {
	store.Store
	mock.Mock
}

func (m *mockStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *mockStore) ListSnapshots(ctx context.Context, propertyID string) ([]model.EnrichmentSnapshot, error) {
	args := m.Called(ctx, propertyID)
	snaps, _ := args.Get(0).([]model.EnrichmentSnapshot)
	return snaps, args.Error(1)
}

func (m *mockStore) UpsertPrediction(ctx context.Context, p model.Prediction) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) InsertPrediction(ctx context.Context, p model.Prediction) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) ListHomeSystems(ctx context.Context, homeID string) ([]string, error) {
	args := m.Called(ctx, homeID)
	systems, _ := args.Get(0).([]string)
	return systems, args.Error(1)
}

func (m *mockStore) ListRenovationItems(ctx context.Context, homeID string) ([]model.RenovationItem, error) {
	args := m.Called(ctx, homeID)
	items, _ := args.Get(0).([]model.RenovationItem)
	return items, args.Error(1)
}

func (m *mockStore) ListTaskKeys(ctx context.Context, homeID string, from, to time.Time) ([]model.TaskKey, error) {
	args := m.Called(ctx, homeID, from, to)
	keys, _ := args.Get(0).([]model.TaskKey)
	return keys, args.Error(1)
}

func (m *mockStore) InsertTasks(ctx context.Context, tasks []model.MaintenanceTask) (int64, error) {
	args := m.Called(ctx, tasks)
	return args.Get(0).(int64), args.Error(1)
}
