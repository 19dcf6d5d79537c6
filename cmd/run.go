package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lukman83/compintel/internal/export"
	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/pipeline"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/lukman83/compintel/internal/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect products and promotions from every enabled competitor",
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().String("competitor", "", "Only process this competitor (case-insensitive, enabled or not)")
	runCmd.Flags().Int("max-new-urls", -1, "New-arrival URLs per competitor (default from config)")
	runCmd.Flags().Int("max-promo-urls", -1, "Promotion URLs per competitor (default from config)")
	runCmd.Flags().Int("max-competitors", -1, "Competitors to process, 0 for all (default from config)")
	runCmd.Flags().String("format", "table", "Summary format: table, json")
	runCmd.Flags().Bool("progress", false, "Show a progress spinner on stderr")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateBackend(); err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	competitors, err := loadCompetitors()
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("competitor"); name != "" {
		c, ok := competitors.CompetitorByName(name)
		if !ok {
			return fmt.Errorf("competitor %q not found in %s", name, cfg.CompetitorsFile)
		}
		c.Enabled = true
		competitors, err = models.NewCompetitorConfig([]models.Competitor{c}, competitors.GlobalSettings)
		if err != nil {
			return err
		}
	}

	reg, err := buildScrapers(competitors.GlobalSettings)
	if err != nil {
		return err
	}
	scraper, err := reg.Get(cfg.ScraperBackend)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, reg.List())
	}

	opts := pipeline.Options{
		MaxNewURLs:     flagOr(cmd, "max-new-urls", cfg.MaxNewURLs),
		MaxPromoURLs:   flagOr(cmd, "max-promo-urls", cfg.MaxPromoURLs),
		MaxCompetitors: flagOr(cmd, "max-competitors", cfg.MaxCompetitors),
		MaxMinutes:     cfg.PipelineTimeoutMinutes,
	}
	p := pipeline.New(scraper, buildExtractor(), export.NewWriter(cfg.ExportsDir), opts, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var spin *ui.Spinner
	if progress, _ := cmd.Flags().GetBool("progress"); progress {
		spin = ui.NewSpinner(os.Stderr)
		spin.Start("Starting pipeline...")
		ctx = platform.WithProgress(ctx, spin.Update)
	}

	res, runErr := p.Run(ctx, competitors)
	if spin != nil {
		spin.Stop()
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	default:
		printRunSummary(cmd.OutOrStdout(), res)
	}

	if runErr != nil {
		return fmt.Errorf("pipeline interrupted: %w", runErr)
	}
	return nil
}

// flagOr returns the int flag when set to zero or more, otherwise fallback.
func flagOr(cmd *cobra.Command, name string, fallback int) int {
	if v, _ := cmd.Flags().GetInt(name); v >= 0 {
		return v
	}
	return fallback
}
