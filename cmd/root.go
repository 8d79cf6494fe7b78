package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/homesense/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "homesense",
	Short: "Property system predictions and seasonal maintenance plans",
	Long:  "Infers the age and type of a home's major systems from public-record evidence, scores confidence in each fact, and generates climate-aware seasonal maintenance plans.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
