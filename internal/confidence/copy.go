package confidence

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// SystemKey names a system that has homeowner-facing copy.
type SystemKey string

const (
	SystemRoof        SystemKey = "roof"
	SystemHVAC        SystemKey = "hvac"
	SystemWaterHeater SystemKey = "water_heater"
	SystemElectrical  SystemKey = "electrical"
	SystemPlumbing    SystemKey = "plumbing"
)

// SystemKeys lists every system with copy.
var SystemKeys = []SystemKey{SystemRoof, SystemHVAC, SystemWaterHeater, SystemElectrical, SystemPlumbing}

// Copy is gated homeowner-facing text.
type Copy struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
}

type copyRow struct {
	estimated Copy
	confirm   Copy
	noun      string
}

var copyTable = map[SystemKey]copyRow{
	SystemRoof: {
		noun: "roof",
		estimated: Copy{
			Headline: "Your roof is likely mid-life",
			Body:     "Based on your home's age and local climate, your roof may need attention in the coming years. Confirm its age for a sharper forecast.",
		},
		confirm: Copy{
			Headline: "When was your roof last replaced?",
			Body:     "We don't have enough information about your roof yet. Add a replacement year or a photo so we can plan ahead.",
		},
	},
	SystemHVAC: {
		noun: "heating and cooling system",
		estimated: Copy{
			Headline: "Your HVAC system may be aging",
			Body:     "Systems like yours often need replacement as they age. Regular service keeps it efficient while we learn more.",
		},
		confirm: Copy{
			Headline: "Tell us about your HVAC system",
			Body:     "We couldn't verify your heating and cooling system. Add its install year or a photo of the unit label.",
		},
	},
	SystemWaterHeater: {
		noun: "water heater",
		estimated: Copy{
			Headline: "Your water heater may be getting older",
			Body:     "Water heaters wear out over time. Flushing the tank each year helps it last longer.",
		},
		confirm: Copy{
			Headline: "How old is your water heater?",
			Body:     "We don't know your water heater's age yet. A photo of its label usually tells us.",
		},
	},
	SystemElectrical: {
		noun: "electrical panel",
		estimated: Copy{
			Headline: "Your electrical panel may be original",
			Body:     "Older panels can fall behind modern loads. An electrician can confirm its condition.",
		},
		confirm: Copy{
			Headline: "Has your electrical panel been updated?",
			Body:     "We couldn't find a record of panel work. Let us know if it has been upgraded.",
		},
	},
	SystemPlumbing: {
		noun: "plumbing",
		estimated: Copy{
			Headline: "Your plumbing may be original to the home",
			Body:     "Supply lines and fixtures age with the house. Watch for low pressure or slow leaks.",
		},
		confirm: Copy{
			Headline: "Has your home been repiped?",
			Body:     "We don't have a record of plumbing work. Let us know if the lines have been replaced.",
		},
	},
}

// GateCopy returns the copy for a system in a state. Only StateHigh may
// carry a time horizon such as "within 3 years"; yearsRemaining is ignored
// for every other state.
func GateCopy(system SystemKey, state State, yearsRemaining *int) (Copy, error) {
	row, ok := copyTable[system]
	if !ok {
		return Copy{}, eris.Errorf("confidence: no copy for system %q", system)
	}
	switch state {
	case StateHigh:
		return highCopy(row.noun, yearsRemaining), nil
	case StateEstimated:
		return row.estimated, nil
	case StateNeedsConfirmation:
		return row.confirm, nil
	}
	return Copy{}, eris.Errorf("confidence: unknown state %q", state)
}

func highCopy(noun string, yearsRemaining *int) Copy {
	switch {
	case yearsRemaining == nil:
		return Copy{
			Headline: fmt.Sprintf("Your %s is on track", noun),
			Body:     fmt.Sprintf("We have solid records for your %s. We'll remind you when it's time for service.", noun),
		}
	case *yearsRemaining <= 0:
		return Copy{
			Headline: fmt.Sprintf("Plan for a %s replacement now", noun),
			Body:     fmt.Sprintf("Your %s has reached the end of its expected life. Start collecting quotes.", noun),
		}
	case *yearsRemaining == 1:
		return Copy{
			Headline: fmt.Sprintf("Plan for a %s replacement within 1 year", noun),
			Body:     fmt.Sprintf("Your %s is close to the end of its expected life. Budget for a replacement soon.", noun),
		}
	}
	return Copy{
		Headline: fmt.Sprintf("Plan for a %s replacement within %d years", noun, *yearsRemaining),
		Body:     fmt.Sprintf("Your %s has about %d years of expected life left.", noun, *yearsRemaining),
	}
}

// ReplacementStatus is whether a system is known to have been replaced.
type ReplacementStatus string

const (
	StatusOriginal ReplacementStatus = "original"
	StatusReplaced ReplacementStatus = "replaced"
	StatusUnknown  ReplacementStatus = "unknown"
)

// Valid reports whether s is a known replacement status.
func (s ReplacementStatus) Valid() bool {
	switch s {
	case StatusOriginal, StatusReplaced, StatusUnknown:
		return true
	}
	return false
}

var sourceLabel = map[InstallSource]string{
	SourceHeuristic:      "estimated",
	SourceOwnerReported:  "reported by owner",
	SourceInspection:     "from inspection",
	SourcePermitVerified: "permit verified",
}

// FormatInstalledLine renders the one-line install summary. It depends only
// on its arguments.
func FormatInstalledLine(installYear *int, source InstallSource, status ReplacementStatus) string {
	if installYear == nil {
		switch status {
		case StatusReplaced:
			return "Replaced, year unknown"
		case StatusOriginal:
			return "Original to home, year unknown"
		}
		return "Install year unknown"
	}

	year := fmt.Sprintf("%d", *installYear)
	if source == SourceHeuristic {
		year = "~" + year
	}
	var line string
	switch status {
	case StatusReplaced:
		line = "Replaced " + year
	case StatusOriginal:
		line = "Original to home (" + year + ")"
	default:
		line = "Installed " + year
	}
	if label, ok := sourceLabel[source]; ok {
		line += " · " + label
	}
	return line
}
