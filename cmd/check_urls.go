package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lukman83/compintel/internal/httputil"
	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/validate"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var checkURLsCmd = &cobra.Command{
	Use:   "check-urls",
	Short: "Check that every configured competitor URL is reachable",
	RunE:  runCheckURLs,
}

func init() {
	checkURLsCmd.Flags().Int("timeout", 10, "Per-URL timeout in seconds")
	checkURLsCmd.Flags().String("format", "table", "Output format: table, json")
	rootCmd.AddCommand(checkURLsCmd)
}

func runCheckURLs(cmd *cobra.Command, args []string) error {
	competitors, err := loadCompetitors()
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetInt("timeout")
	client := httputil.NewHTTPClient(nil, time.Duration(timeout)*time.Second)
	checks := checkURLs(cmd.Context(), client, competitors, time.Duration(timeout)*time.Second)

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(checks); err != nil {
			return err
		}
	default:
		printURLChecks(cmd.OutOrStdout(), checks)
	}

	failed := 0
	for _, c := range checks {
		if !c.OK {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d URLs unreachable", failed, len(checks))
	}
	return nil
}

// checkURLs probes every URL of the enabled competitors, at most
// ConcurrentRequests at a time. Results keep configuration order.
func checkURLs(ctx context.Context, client *http.Client, competitors *models.CompetitorConfig, timeout time.Duration) []urlCheck {
	var checks []urlCheck
	for _, c := range competitors.EnabledCompetitors() {
		for _, u := range c.NewURLs {
			checks = append(checks, urlCheck{Competitor: c.Name, Kind: "new", URL: u})
		}
		for _, u := range c.PromoURLs {
			checks = append(checks, urlCheck{Competitor: c.Name, Kind: "promo", URL: u})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(competitors.GlobalSettings.ConcurrentRequests)
	for i := range checks {
		g.Go(func() error {
			checks[i].OK, checks[i].Reason = validate.CheckAccessible(ctx, client, checks[i].URL, timeout)
			return nil
		})
	}
	_ = g.Wait()
	return checks
}
