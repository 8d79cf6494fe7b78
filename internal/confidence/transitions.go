package confidence

import (
	"math"
	"time"

	"github.com/rotisserie/eris"
)

// Trigger is a named cause of a confidence change. The set is closed: a
// score changes only through one of these.
type Trigger string

const (
	TriggerUserProvidedData        Trigger = "user_provided_data"
	TriggerPhotoAnalysis           Trigger = "photo_analysis"
	TriggerManualConfirmation      Trigger = "manual_confirmation"
	TriggerPermitVerification      Trigger = "permit_verification"
	TriggerQuarterlyReconfirmation Trigger = "quarterly_stable_reconfirmation"
	TriggerExternalDataMatch       Trigger = "external_data_match"
	TriggerTimeDecay               Trigger = "time_decay"
	TriggerPersistentDataGap       Trigger = "persistent_data_gap"
	TriggerContradictorySignal     Trigger = "contradictory_signal"
	TriggerNoConfirmationDecay     Trigger = "no_confirmation_decay"
)

var triggerDelta = map[Trigger]float64{
	TriggerUserProvidedData:        0.10,
	TriggerPhotoAnalysis:           0.15,
	TriggerManualConfirmation:      0.25,
	TriggerPermitVerification:      0.20,
	TriggerQuarterlyReconfirmation: 0.05,
	TriggerExternalDataMatch:       0.08,
	TriggerTimeDecay:               -0.01,
	TriggerPersistentDataGap:       -0.05,
	TriggerContradictorySignal:     -0.10,
	TriggerNoConfirmationDecay:     -0.02,
}

// Triggers returns every trigger in a stable order.
func Triggers() []Trigger {
	return []Trigger{
		TriggerUserProvidedData, TriggerPhotoAnalysis, TriggerManualConfirmation,
		TriggerPermitVerification, TriggerQuarterlyReconfirmation, TriggerExternalDataMatch,
		TriggerTimeDecay, TriggerPersistentDataGap, TriggerContradictorySignal,
		TriggerNoConfirmationDecay,
	}
}

// Delta returns the fixed delta of t.
func (t Trigger) Delta() (float64, bool) {
	d, ok := triggerDelta[t]
	return d, ok
}

// Confirms reports whether t counts as a confirmation event.
func (t Trigger) Confirms() bool {
	return t == TriggerManualConfirmation || t == TriggerQuarterlyReconfirmation
}

// Transition is the audit record of one applied trigger.
type Transition struct {
	Trigger Trigger   `json:"trigger"`
	Delta   float64   `json:"delta"`
	Before  float64   `json:"before"`
	After   float64   `json:"after"`
	At      time.Time `json:"at"`
}

// Apply applies trigger to score at time at. The result is clamped to
// [0, 1]; unknown triggers are rejected.
func Apply(score float64, trigger Trigger, at time.Time) (Transition, error) {
	d, ok := triggerDelta[trigger]
	if !ok {
		return Transition{}, eris.Errorf("confidence: unknown trigger %q", trigger)
	}
	after := round(math.Min(math.Max(score+d, 0), 1))
	return Transition{Trigger: trigger, Delta: d, Before: score, After: after, At: at}, nil
}

// Event is a trigger that occurred at a point in time.
type Event struct {
	Trigger Trigger   `json:"trigger"`
	At      time.Time `json:"at"`
}

// ApplyAll applies events in order and returns the final score with one
// transition per event. It stops at the first unknown trigger.
func ApplyAll(score float64, events []Event) (float64, []Transition, error) {
	out := make([]Transition, 0, len(events))
	for _, ev := range events {
		tr, err := Apply(score, ev.Trigger, ev.At)
		if err != nil {
			return score, out, err
		}
		out = append(out, tr)
		score = tr.After
	}
	return score, out, nil
}
