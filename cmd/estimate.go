package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate crawl pages and run time for the enabled competitors",
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().Int("max-minutes", 0, "Time budget in minutes (default from PIPELINE_TIMEOUT_MINUTES)")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	competitors, err := loadCompetitors()
	if err != nil {
		return err
	}

	maxMinutes := cfg.PipelineTimeoutMinutes
	if v, _ := cmd.Flags().GetInt("max-minutes"); v > 0 {
		maxMinutes = v
	}

	if ok := printEstimate(cmd.OutOrStdout(), competitors, maxMinutes); !ok {
		return fmt.Errorf("estimated run time exceeds %d minutes", maxMinutes)
	}
	return nil
}
