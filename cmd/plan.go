package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/homesense/internal/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a seasonal maintenance plan for a home",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		homeID, _ := cmd.Flags().GetString("home-id")
		months, _ := cmd.Flags().GetInt("months")
		force, _ := cmd.Flags().GetBool("force")
		if homeID == "" {
			return eris.New("--home-id is required")
		}

		env, err := initService(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Service.GenerateSeasonalPlan(ctx, pipeline.PlanRequest{
			HomeID: homeID,
			Months: months,
			Force:  force,
		})
		if err != nil {
			return eris.Wrapf(err, "plan %s", homeID)
		}
		return printJSON(os.Stdout, res)
	},
}

func init() {
	planCmd.Flags().String("home-id", "", "home to plan for")
	planCmd.Flags().Int("months", 0, "planning horizon in months (default from config)")
	planCmd.Flags().Bool("force", false, "insert tasks even if already scheduled")
	rootCmd.AddCommand(planCmd)
}
