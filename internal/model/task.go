package model

import (
	"strings"
	"time"
)

// TaskPriority ranks maintenance tasks.
type TaskPriority string

const (
	PriorityUrgent TaskPriority = "urgent"
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// TaskStatusPending is the status of every newly inserted task.
const TaskStatusPending = "pending"

// MaintenanceTask is a scheduled maintenance item for a home. The planner
// builds candidates in memory; the store persists them.
type MaintenanceTask struct {
	ID          string       `json:"id,omitempty"`
	HomeID      string       `json:"home_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	SystemType  string       `json:"system_type,omitempty"`
	Priority    TaskPriority `json:"priority"`
	DueDate     time.Time    `json:"due_date"`
	Cost        *float64     `json:"cost,omitempty"`
	Status      string       `json:"status"`
}

// Key returns the deduplication key of the task.
func (t MaintenanceTask) Key() TaskKey {
	return NewTaskKey(t.Title, t.DueDate)
}

// TaskKey identifies a scheduled task by title and due date.
type TaskKey struct {
	Title   string
	DueDate string
}

// NewTaskKey builds a normalized key: lower-cased trimmed title and the
// calendar date of due.
func NewTaskKey(title string, due time.Time) TaskKey {
	return TaskKey{
		Title:   strings.ToLower(strings.TrimSpace(title)),
		DueDate: due.Format(time.DateOnly),
	}
}

// RenovationItem is a recommended repair recorded against a home.
type RenovationItem struct {
	ID            string   `json:"id"`
	HomeID        string   `json:"home_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Urgency       string   `json:"urgency"`
	SystemType    string   `json:"system_type,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
}

// PlanResult summarizes one seasonal plan generation.
type PlanResult struct {
	OK          bool   `json:"ok"`
	Inserted    int    `json:"inserted"`
	Considered  int    `json:"considered"`
	ClimateZone string `json:"climateZone"`
}
