package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/sells-group/homesense/internal/confidence"
)

var confidenceCmd = &cobra.Command{
	Use:   "confidence",
	Short: "Score install confidence and resolve disclosure states",
}

// stateReport is the result of applying triggers to a score.
type stateReport struct {
	Score       float64                 `json:"score"`
	State       confidence.State        `json:"state"`
	Transitions []confidence.Transition `json:"transitions"`
	Copy        *confidence.Copy        `json:"copy,omitempty"`
	Decay       *confidence.DecayState  `json:"decay,omitempty"`
}

// resolveConfidence applies triggers in order at time at and resolves the
// final state. A confirming trigger counts as a user confirmation. With a
// decay state, the decay due at at is applied first and the updated state is
// reported.
func resolveConfidence(score float64, confirmed bool, triggers []string, decay *confidence.DecayState, at time.Time) (stateReport, error) {
	if score < 0 || score > 1 {
		return stateReport{}, eris.Errorf("score must be between 0 and 1, got %v", score)
	}
	events := make([]confidence.Event, 0, len(triggers))
	for _, t := range triggers {
		tr := confidence.Trigger(t)
		if tr.Confirms() {
			confirmed = true
		}
		events = append(events, confidence.Event{Trigger: tr, At: at})
	}

	report := stateReport{}
	var err error
	if decay != nil {
		var next confidence.DecayState
		report.Score, report.Transitions, next, err = confidence.Advance(score, *decay, events, at)
		report.Decay = &next
	} else {
		report.Score, report.Transitions, err = confidence.ApplyAll(score, events)
	}
	if err != nil {
		return stateReport{}, err
	}
	report.State = confidence.ResolveState(report.Score, confirmed)
	return report, nil
}

// decayFromFlags builds a decay state from the timestamp flags. It returns
// nil when --created-at is not set.
func decayFromFlags(cmd *cobra.Command) (*confidence.DecayState, error) {
	if !cmd.Flags().Changed("created-at") {
		return nil, nil
	}
	var s confidence.DecayState
	var err error
	raw, _ := cmd.Flags().GetString("created-at")
	if s.CreatedAt, err = cast.ToTimeE(raw); err != nil {
		return nil, eris.Wrap(err, "confidence: parse --created-at")
	}
	if s.LastConfirmedAt, err = optionalTime(cmd, "last-confirmed"); err != nil {
		return nil, err
	}
	if s.DataGapSince, err = optionalTime(cmd, "data-gap-since"); err != nil {
		return nil, err
	}
	return &s, nil
}

func optionalTime(cmd *cobra.Command, flag string) (*time.Time, error) {
	if !cmd.Flags().Changed(flag) {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString(flag)
	t, err := cast.ToTimeE(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "confidence: parse --%s", flag)
	}
	return &t, nil
}

// installReport is an install score plus its display line.
type installReport struct {
	confidence.InstallScore
	InstalledLine string `json:"installed_line"`
}

func scoreInstall(in confidence.InstallInput, installYear *int, status confidence.ReplacementStatus) (installReport, error) {
	if status == "" {
		status = confidence.StatusUnknown
	}
	if !status.Valid() {
		return installReport{}, eris.Errorf("confidence: unknown replacement status %q", status)
	}
	score, err := confidence.ScoreInstallConfidence(in)
	if err != nil {
		return installReport{}, err
	}
	return installReport{
		InstallScore:  score,
		InstalledLine: confidence.FormatInstalledLine(installYear, in.Source, status),
	}, nil
}

var confidenceStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Apply triggers to a confidence score and print its state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		score, _ := cmd.Flags().GetFloat64("score")
		confirmed, _ := cmd.Flags().GetBool("confirmed")
		triggers, _ := cmd.Flags().GetStringSlice("trigger")
		system, _ := cmd.Flags().GetString("system")
		years, _ := cmd.Flags().GetInt("years-remaining")

		at := time.Now().UTC()
		if cmd.Flags().Changed("now") {
			raw, _ := cmd.Flags().GetString("now")
			t, err := cast.ToTimeE(raw)
			if err != nil {
				return eris.Wrap(err, "confidence: parse --now")
			}
			at = t
		}
		decay, err := decayFromFlags(cmd)
		if err != nil {
			return err
		}

		report, err := resolveConfidence(score, confirmed, triggers, decay, at)
		if err != nil {
			return err
		}
		if system != "" {
			var yr *int
			if cmd.Flags().Changed("years-remaining") {
				yr = &years
			}
			c, err := confidence.GateCopy(confidence.SystemKey(system), report.State, yr)
			if err != nil {
				return err
			}
			report.Copy = &c
		}
		return printJSON(os.Stdout, report)
	},
}

var confidenceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Score confidence in a system's install date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		source, _ := cmd.Flags().GetString("source")
		in := confidence.InstallInput{Source: confidence.InstallSource(source)}
		in.HasMonth, _ = cmd.Flags().GetBool("has-month")
		in.HasCorroboration, _ = cmd.Flags().GetBool("has-corroboration")
		in.HasBrand, _ = cmd.Flags().GetBool("has-brand")
		in.HasModel, _ = cmd.Flags().GetBool("has-model")
		in.HasPhoto, _ = cmd.Flags().GetBool("has-photo")
		in.ConflictingDates, _ = cmd.Flags().GetBool("conflicting-dates")
		in.ImplausibleDate, _ = cmd.Flags().GetBool("implausible-date")

		var year *int
		if cmd.Flags().Changed("install-year") {
			y, _ := cmd.Flags().GetInt("install-year")
			year = &y
		}
		status, _ := cmd.Flags().GetString("status")

		report, err := scoreInstall(in, year, confidence.ReplacementStatus(status))
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, report)
	},
}

func init() {
	confidenceStateCmd.Flags().Float64("score", 0, "current confidence score in [0, 1]")
	confidenceStateCmd.Flags().Bool("confirmed", false, "the homeowner confirmed the fact")
	confidenceStateCmd.Flags().StringSlice("trigger", nil, "trigger to apply, repeatable and applied in order")
	confidenceStateCmd.Flags().String("system", "", "also print gated copy for this system (roof, hvac, water_heater, electrical, plumbing)")
	confidenceStateCmd.Flags().Int("years-remaining", 0, "estimated years of life left, shown only in the high state")
	confidenceStateCmd.Flags().String("now", "", "evaluation time (default: current time)")
	confidenceStateCmd.Flags().String("created-at", "", "when the fact was first recorded; enables time-based decay")
	confidenceStateCmd.Flags().String("last-confirmed", "", "when the fact was last confirmed")
	confidenceStateCmd.Flags().String("data-gap-since", "", "when a required input went missing")

	confidenceInstallCmd.Flags().String("source", string(confidence.SourceHeuristic), "install source (heuristic, owner_reported, inspection, permit_verified)")
	confidenceInstallCmd.Flags().Bool("has-month", false, "install month is known")
	confidenceInstallCmd.Flags().Bool("has-corroboration", false, "a second source agrees")
	confidenceInstallCmd.Flags().Bool("has-brand", false, "brand is known")
	confidenceInstallCmd.Flags().Bool("has-model", false, "model number is known")
	confidenceInstallCmd.Flags().Bool("has-photo", false, "a photo of the unit exists")
	confidenceInstallCmd.Flags().Bool("conflicting-dates", false, "sources disagree on the date")
	confidenceInstallCmd.Flags().Bool("implausible-date", false, "the date is implausible")
	confidenceInstallCmd.Flags().Int("install-year", 0, "install year for the summary line")
	confidenceInstallCmd.Flags().String("status", string(confidence.StatusUnknown), "replacement status (original, replaced, unknown)")

	confidenceCmd.AddCommand(confidenceStateCmd)
	confidenceCmd.AddCommand(confidenceInstallCmd)
	rootCmd.AddCommand(confidenceCmd)
}
