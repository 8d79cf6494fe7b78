package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/pipeline"
)

var referenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Manage lifespan and climate reference data",
}

var referenceSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk upsert the embedded lifespan and climate-factor tables into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := pipeline.SeedReference(ctx, st)
		if err != nil {
			return err
		}
		zap.L().Info("reference seed complete", zap.Int64("rows", n))
		return nil
	},
}

func init() {
	referenceCmd.AddCommand(referenceSeedCmd)
	rootCmd.AddCommand(referenceCmd)
}
