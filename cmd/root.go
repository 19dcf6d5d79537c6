package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/lukman83/compintel/config"
	"github.com/lukman83/compintel/internal/claude"
	"github.com/lukman83/compintel/internal/crawl"
	"github.com/lukman83/compintel/internal/direct"
	"github.com/lukman83/compintel/internal/firecrawl"
	"github.com/lukman83/compintel/internal/httputil"
	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "compintel",
	Short: "Competitor monitoring pipeline",
	Long: "Collects new-arrival products and current promotions from competitor " +
		"websites, validates them and writes CSV exports.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("competitors", "", "Path to competitors YAML (default config/competitors.yml)")
	rootCmd.PersistentFlags().String("exports-dir", "", "Directory for CSV exports (default data/exports)")
	rootCmd.PersistentFlags().String("scraper", "", "Scraper backend: firecrawl, direct, headless, chain")
	rootCmd.PersistentFlags().String("proxy-url", "", "Proxy for direct fetches (http, https or socks5)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("competitors"); v != "" {
		cfg.CompetitorsFile = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("exports-dir"); v != "" {
		cfg.ExportsDir = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("scraper"); v != "" {
		cfg.ScraperBackend = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("proxy-url"); v != "" {
		cfg.ProxyURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	logger = newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// buildHTTPClient creates the polite HTTP client used for direct page
// fetches: UA, robots.txt and a per-minute budget from global settings.
// The robots checker is returned for backends that bypass the client.
func buildHTTPClient(global models.GlobalSettings) (*http.Client, *crawl.RobotsChecker, error) {
	base, err := crawl.NewBaseTransport(cfg.ProxyURL)
	if err != nil {
		return nil, nil, err
	}

	// robots.txt goes out on a plain client; routing it through the
	// crawl transport would check robots.txt for robots.txt.
	robotsClient := httputil.NewHTTPClient(base, 10*time.Second)
	robots := crawl.NewRobotsChecker(robotsClient, global.RespectRobotsTxt)

	transport := &crawl.Transport{
		Base:        base,
		UserAgent:   global.UserAgent,
		Robots:      robots,
		RateLimiter: crawl.PerMinute(global.RateLimitPerMinute),
	}
	return httputil.NewHTTPClient(transport, time.Duration(global.Timeout)*time.Second), robots, nil
}

// buildScrapers registers every backend usable with the current
// credentials. The chain tries firecrawl, then direct, then headless.
func buildScrapers(global models.GlobalSettings) (*platform.Registry, error) {
	client, robots, err := buildHTTPClient(global)
	if err != nil {
		return nil, err
	}

	reg := platform.NewRegistry()
	static := direct.NewStatic(client)
	headless := direct.NewHeadless(cfg.BrowserBin, global.UserAgent, time.Duration(global.Timeout)*time.Second, robots)
	reg.Register(static)
	reg.Register(headless)

	chain := []platform.Scraper{static, headless}
	if cfg.FirecrawlAPIKey != "" {
		fc := firecrawl.New(cfg.FirecrawlBaseURL, cfg.FirecrawlAPIKey, cfg.FirecrawlTimeout)
		reg.Register(fc)
		chain = append([]platform.Scraper{fc}, chain...)
	}
	reg.Register(platform.NewChain(chain...))
	return reg, nil
}

func buildExtractor() *claude.Client {
	return claude.New(cfg.ClaudeBaseURL, cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeTimeout, logger)
}

// loadCompetitors reads the configured competitor file.
func loadCompetitors() (*models.CompetitorConfig, error) {
	competitors, err := config.LoadCompetitors(cfg.CompetitorsFile)
	if err != nil {
		return nil, fmt.Errorf("load competitors: %w", err)
	}
	return competitors, nil
}
