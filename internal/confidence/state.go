package confidence

import "github.com/rotisserie/eris"

// State is the disclosure tier that decides which language may be shown for
// a fact.
type State string

const (
	StateHigh              State = "high"
	StateEstimated         State = "estimated"
	StateNeedsConfirmation State = "needs_confirmation"
)

// States lists every state.
var States = []State{StateHigh, StateEstimated, StateNeedsConfirmation}

// State thresholds.
const (
	HighStateMin      = 0.75
	EstimatedStateMin = 0.40
)

// ResolveState maps a score to a state. A user confirmation always yields
// StateHigh, whatever the score.
func ResolveState(score float64, userConfirmed bool) State {
	switch {
	case userConfirmed, score >= HighStateMin:
		return StateHigh
	case score >= EstimatedStateMin:
		return StateEstimated
	}
	return StateNeedsConfirmation
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateHigh, StateEstimated, StateNeedsConfirmation:
		return true
	}
	return false
}

// ParseState validates a state name.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", eris.Errorf("confidence: unknown state %q", s)
	}
	return st, nil
}
