package confidence

import "time"

// Decay windows.
const (
	NoConfirmationWindow = 90 * 24 * time.Hour
	DataGapWindow        = 30 * 24 * time.Hour
)

// DecayState is the stored timestamps decay is computed from. There is no
// background timer: callers pass now explicitly.
type DecayState struct {
	// CreatedAt anchors the confirmation window when nothing was ever confirmed.
	CreatedAt       time.Time  `json:"created_at"`
	LastConfirmedAt *time.Time `json:"last_confirmed_at,omitempty"`
	// DataGapSince is set while a required input is missing.
	DataGapSince              *time.Time `json:"data_gap_since,omitempty"`
	LastNoConfirmationDecayAt *time.Time `json:"last_no_confirmation_decay_at,omitempty"`
	LastDataGapDecayAt        *time.Time `json:"last_data_gap_decay_at,omitempty"`
}

// CheckDecay returns the decay triggers due at now. Each fires at most once
// per elapsed window, measured from the later of its anchor and its last
// application.
func CheckDecay(s DecayState, now time.Time) []Trigger {
	var due []Trigger

	anchor := s.CreatedAt
	if s.LastConfirmedAt != nil {
		anchor = later(anchor, *s.LastConfirmedAt)
	}
	if s.LastNoConfirmationDecayAt != nil {
		anchor = later(anchor, *s.LastNoConfirmationDecayAt)
	}
	if !anchor.IsZero() && now.Sub(anchor) >= NoConfirmationWindow {
		due = append(due, TriggerNoConfirmationDecay)
	}

	if s.DataGapSince != nil {
		gap := *s.DataGapSince
		if s.LastDataGapDecayAt != nil {
			gap = later(gap, *s.LastDataGapDecayAt)
		}
		if now.Sub(gap) >= DataGapWindow {
			due = append(due, TriggerPersistentDataGap)
		}
	}
	return due
}

// Record updates the stored timestamps after trigger was applied at at.
func (s *DecayState) Record(trigger Trigger, at time.Time) {
	switch {
	case trigger.Confirms():
		s.LastConfirmedAt = &at
	case trigger == TriggerNoConfirmationDecay:
		s.LastNoConfirmationDecayAt = &at
	case trigger == TriggerPersistentDataGap:
		s.LastDataGapDecayAt = &at
	case trigger == TriggerUserProvidedData, trigger == TriggerExternalDataMatch:
		s.DataGapSince = nil
		s.LastDataGapDecayAt = nil
	}
}

// Decay applies every decay trigger due at now and records it.
func Decay(score float64, s DecayState, now time.Time) (float64, []Transition, DecayState) {
	var out []Transition
	for _, trig := range CheckDecay(s, now) {
		tr, err := Apply(score, trig, now)
		if err != nil {
			continue
		}
		out = append(out, tr)
		score = tr.After
		s.Record(trig, now)
	}
	return score, out, s
}

// Advance applies the decay due at now, then events in order, and records
// every applied trigger in the returned state. It stops at the first unknown
// trigger.
func Advance(score float64, s DecayState, events []Event, now time.Time) (float64, []Transition, DecayState, error) {
	score, out, s := Decay(score, s, now)
	for _, ev := range events {
		tr, err := Apply(score, ev.Trigger, ev.At)
		if err != nil {
			return score, out, s, err
		}
		out = append(out, tr)
		score = tr.After
		s.Record(ev.Trigger, ev.At)
	}
	return score, out, s, nil
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
