package seasonal

import (
	"strings"
	"time"

	"github.com/sells-group/homesense/internal/climate"
	"github.com/sells-group/homesense/internal/model"
)

// Planner defaults.
const (
	DefaultMonths       = 12
	DefaultTLCThreshold = 60.0
)

// OptionalSystems are systems a home may not have. Tasks tied to them are
// only generated when the home is known to have the system.
var OptionalSystems = map[string]bool{
	model.SystemPool:      true,
	model.SystemSolar:     true,
	model.SystemSprinkler: true,
	model.SystemSpa:       true,
	model.SystemGenerator: true,
	model.SystemSeptic:    true,
	model.SystemWell:      true,
	model.SystemEVCharger: true,
}

// Input drives candidate generation for one home.
type Input struct {
	HomeID string
	Zone   climate.Zone
	// TLCScore is the 0-100 condition score; at or above TLCThreshold the
	// home needs attention.
	TLCScore     *float64
	TLCThreshold float64
	Renovations  []model.RenovationItem
	// KnownSystems gates optional-system tasks. Nil disables the filter.
	KnownSystems map[string]bool
	Months       int
	Now          time.Time
}

// Candidates builds the task candidates for a home: urgent condition tasks
// first, then renovation items, then the zone's seasonal templates. Tasks
// due after the horizon and tasks for optional systems the home lacks are
// dropped.
func Candidates(in Input) []model.MaintenanceTask {
	months := in.Months
	if months <= 0 {
		months = DefaultMonths
	}
	threshold := in.TLCThreshold
	if threshold <= 0 {
		threshold = DefaultTLCThreshold
	}
	today := dateOnly(in.Now)
	horizon := today.AddDate(0, months, 0)

	var out []model.MaintenanceTask
	add := func(t model.MaintenanceTask) {
		if t.DueDate.After(horizon) {
			return
		}
		if in.KnownSystems != nil && OptionalSystems[t.SystemType] && !in.KnownSystems[t.SystemType] {
			return
		}
		out = append(out, t)
	}

	if in.TLCScore != nil && *in.TLCScore >= threshold {
		for _, tpl := range tlcTemplates {
			add(fromTemplate(in.HomeID, tpl, today.AddDate(0, 0, 7)))
		}
	}
	for _, item := range in.Renovations {
		add(FromRenovation(in.HomeID, item, today))
	}
	for _, tpl := range ZoneTemplates(in.Zone) {
		add(fromTemplate(in.HomeID, tpl, NextOccurrence(tpl.Month, in.Now)))
	}
	return out
}

func fromTemplate(homeID string, tpl Template, due time.Time) model.MaintenanceTask {
	t := model.MaintenanceTask{
		HomeID:      homeID,
		Title:       tpl.Title,
		Description: tpl.Description,
		Category:    tpl.Category,
		SystemType:  tpl.SystemType,
		Priority:    tpl.Priority,
		DueDate:     due,
		Status:      model.TaskStatusPending,
	}
	if tpl.Cost > 0 {
		c := tpl.Cost
		t.Cost = &c
	}
	return t
}

// RenovationPriority maps a renovation urgency to a task priority.
func RenovationPriority(urgency string) model.TaskPriority {
	switch strings.ToLower(strings.TrimSpace(urgency)) {
	case "high":
		return model.PriorityUrgent
	case "medium":
		return model.PriorityHigh
	}
	return model.PriorityMedium
}

var priorityDueDays = map[model.TaskPriority]int{
	model.PriorityUrgent: 7,
	model.PriorityHigh:   14,
	model.PriorityMedium: 30,
}

// FromRenovation converts a renovation item to a dated task.
func FromRenovation(homeID string, item model.RenovationItem, today time.Time) model.MaintenanceTask {
	p := RenovationPriority(item.Urgency)
	return model.MaintenanceTask{
		HomeID:      homeID,
		Title:       item.Title,
		Description: item.Description,
		Category:    CategoryRenovation,
		SystemType:  item.SystemType,
		Priority:    p,
		DueDate:     dateOnly(today).AddDate(0, 0, priorityDueDays[p]),
		Cost:        item.EstimatedCost,
		Status:      model.TaskStatusPending,
	}
}

// Dedup drops candidates whose title and due date match an existing task or
// an earlier candidate. With force set the candidates are returned as is.
func Dedup(candidates []model.MaintenanceTask, existing []model.TaskKey, force bool) []model.MaintenanceTask {
	if force {
		return candidates
	}
	seen := make(map[model.TaskKey]bool, len(existing)+len(candidates))
	for _, k := range existing {
		seen[model.TaskKey{Title: strings.ToLower(strings.TrimSpace(k.Title)), DueDate: k.DueDate}] = true
	}
	out := make([]model.MaintenanceTask, 0, len(candidates))
	for _, c := range candidates {
		k := c.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// Horizon returns the first and last due dates a plan covers.
func Horizon(now time.Time, months int) (time.Time, time.Time) {
	if months <= 0 {
		months = DefaultMonths
	}
	today := dateOnly(now)
	return today, today.AddDate(0, months, 0)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
