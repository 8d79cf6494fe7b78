package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/homesense/internal/pipeline"
)

// predictOptions selects which properties a predict run covers.
type predictOptions struct {
	AddressID string
	All       bool
	Limit     int
	Batch     pipeline.BatchOptions
}

func (o predictOptions) validate() error {
	switch {
	case o.AddressID != "" && o.All:
		return eris.New("--address-id and --all are mutually exclusive")
	case o.AddressID == "" && !o.All:
		return eris.New("either --address-id or --all is required")
	case o.Limit < 0:
		return eris.New("--limit must not be negative")
	}
	return nil
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run system predictions for one property or all of them",
	Long:  "Computes roof, HVAC, and water-heater predictions from stored evidence and upserts them under the configured model version.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		addressID, _ := cmd.Flags().GetString("address-id")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		opts := predictOptions{
			AddressID: addressID,
			All:       all,
			Limit:     limit,
			Batch: pipeline.BatchOptions{
				MaxConcurrent: concurrency,
				RatePerSecond: cfg.Batch.RatePerSecond,
			},
		}
		if err := opts.validate(); err != nil {
			return err
		}

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return runPredict(ctx, env, opts, os.Stdout)
	},
}

func runPredict(ctx context.Context, env *serviceEnv, opts predictOptions, out io.Writer) error {
	if opts.AddressID != "" {
		summary, err := env.Service.RunPredictions(ctx, opts.AddressID)
		if err != nil {
			return eris.Wrapf(err, "predict %s", opts.AddressID)
		}
		return printJSON(out, summary)
	}

	ids, err := env.Store.ListPropertyIDs(ctx, opts.Limit)
	if err != nil {
		return eris.Wrap(err, "predict: list properties")
	}
	res, err := env.Service.RunBatch(ctx, ids, opts.Batch)
	if err != nil {
		return eris.Wrap(err, "predict: batch")
	}
	return printJSON(out, res)
}

func init() {
	predictCmd.Flags().String("address-id", "", "property to predict")
	predictCmd.Flags().Bool("all", false, "predict every stored property")
	predictCmd.Flags().Int("limit", 0, "max properties with --all (0 = no limit)")
	predictCmd.Flags().Int("concurrency", 0, "concurrent properties with --all (default from config)")
	rootCmd.AddCommand(predictCmd)
}
