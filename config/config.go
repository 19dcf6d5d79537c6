package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingCredentials = errors.New("missing API credentials")
	ErrNoCompetitors      = errors.New("no competitors configured")
)

// Scraper backends selectable with ScraperBackend.
const (
	BackendFirecrawl = "firecrawl"
	BackendDirect    = "direct"
	BackendHeadless  = "headless"
	BackendChain     = "chain"
)

// Placeholder values shipped in .env.example.
const (
	firecrawlPlaceholder = "your_firecrawl_api_key_here"
	claudePlaceholder    = "your_anthropic_api_key_here"
)

// Config holds all application configuration.
type Config struct {
	// APIs
	FirecrawlAPIKey  string
	FirecrawlBaseURL string
	FirecrawlTimeout time.Duration
	ClaudeAPIKey     string
	ClaudeBaseURL    string
	ClaudeModel      string
	ClaudeTimeout    time.Duration

	// Scraping
	ScraperBackend string // "firecrawl", "direct", "headless", "chain"
	ProxyURL       string
	BrowserBin     string

	// Run
	CompetitorsFile        string
	ExportsDir             string
	PipelineTimeoutMinutes int
	MaxNewURLs             int
	MaxPromoURLs           int
	MaxCompetitors         int // 0 means all

	LogLevel string

	// HTTP server
	HTTPPort string
	APIKey   string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		FirecrawlBaseURL:       "https://api.firecrawl.dev/v0",
		FirecrawlTimeout:       60 * time.Second,
		ClaudeBaseURL:          "https://api.anthropic.com/v1",
		ClaudeModel:            "claude-3-haiku-20240307",
		ClaudeTimeout:          30 * time.Second,
		ScraperBackend:         BackendFirecrawl,
		CompetitorsFile:        "config/competitors.yml",
		ExportsDir:             "data/exports",
		PipelineTimeoutMinutes: 80,
		MaxNewURLs:             3,
		MaxPromoURLs:           2,
		LogLevel:               "info",
		HTTPPort:               "8080",
	}
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	setString(&c.FirecrawlAPIKey, "FIRECRAWL_API_KEY")
	setString(&c.FirecrawlBaseURL, "FIRECRAWL_BASE_URL")
	setSeconds(&c.FirecrawlTimeout, "FIRECRAWL_TIMEOUT")
	if !setString(&c.ClaudeAPIKey, "CLAUDE_API_KEY") {
		setString(&c.ClaudeAPIKey, "ANTHROPIC_API_KEY")
	}
	setString(&c.ClaudeBaseURL, "CLAUDE_BASE_URL")
	setString(&c.ClaudeModel, "CLAUDE_MODEL")
	setSeconds(&c.ClaudeTimeout, "CLAUDE_TIMEOUT")

	setString(&c.ScraperBackend, "COMPINTEL_SCRAPER")
	setString(&c.ProxyURL, "COMPINTEL_PROXY_URL")
	setString(&c.BrowserBin, "ROD_BROWSER_BIN")

	setString(&c.CompetitorsFile, "COMPINTEL_COMPETITORS_FILE")
	setString(&c.ExportsDir, "EXPORTS_DIR")
	setInt(&c.PipelineTimeoutMinutes, "PIPELINE_TIMEOUT_MINUTES")
	setInt(&c.MaxNewURLs, "COMPINTEL_MAX_NEW_URLS")
	setInt(&c.MaxPromoURLs, "COMPINTEL_MAX_PROMO_URLS")
	setInt(&c.MaxCompetitors, "COMPINTEL_MAX_COMPETITORS")

	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.HTTPPort, "PORT")
	setString(&c.APIKey, "COMPINTEL_API_KEY")
}

// ValidateCredentials reports every key the run needs that is unset or
// still the .env.example placeholder. Claude is always needed; Firecrawl
// only when a backend may call it.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.ScraperBackend == BackendFirecrawl || c.ScraperBackend == BackendChain {
		if isUnset(c.FirecrawlAPIKey, firecrawlPlaceholder) {
			missing = append(missing, "FIRECRAWL_API_KEY is missing or using placeholder value")
		}
	}
	if isUnset(c.ClaudeAPIKey, claudePlaceholder) {
		missing = append(missing, "CLAUDE_API_KEY is missing or using placeholder value")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, "; "))
	}
	return nil
}

// ValidateBackend rejects an unknown ScraperBackend.
func (c *Config) ValidateBackend() error {
	switch c.ScraperBackend {
	case BackendFirecrawl, BackendDirect, BackendHeadless, BackendChain:
		return nil
	}
	return fmt.Errorf("unknown scraper backend %q (want firecrawl, direct, headless or chain)", c.ScraperBackend)
}

func isUnset(v, placeholder string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == placeholder
}

func setString(dst *string, key string) bool {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return true
	}
	return false
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}
