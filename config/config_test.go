package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukman83/compintel/internal/models"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
competitors:
  - name: West Elm
    new_urls:
      - https://www.westelm.com/shop/new/
    promo_urls:
      - https://www.westelm.com/shop/sale/
    crawl_settings:
      depth: 3
      delay: 2.5
    priority: 2
    tags: [Furniture, modern, furniture]
    exclude_patterns: [gift-cards]
  - name: Article
    enabled: false
    new_urls: [https://www.article.com/new]
    promo_urls: [https://www.article.com/sale]
global_settings:
  user_agent: test-agent
  rate_limit_per_minute: 30
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "competitors.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCompetitors(t *testing.T) {
	cfg, err := LoadCompetitors(writeFile(t, sampleYAML))
	require.NoError(t, err)
	require.Len(t, cfg.Competitors, 2)

	we := cfg.Competitors[0]
	require.Equal(t, "West Elm", we.Name)
	require.True(t, we.Enabled, "enabled defaults to true")
	require.Equal(t, 3, we.Crawl.Depth)
	require.Equal(t, 2.5, we.Crawl.Delay)
	require.Equal(t, 50, we.Crawl.Limit, "unset crawl fields keep their defaults")
	require.Equal(t, 30, we.Crawl.Timeout)
	require.Equal(t, []string{"furniture", "modern"}, we.Tags)
	require.True(t, we.IsURLExcluded("https://www.westelm.com/gift-cards"))

	require.Equal(t, 2, we.Priority)

	require.False(t, cfg.Competitors[1].Enabled)
	require.Equal(t, models.DefaultPriority, cfg.Competitors[1].Priority, "omitted priority defaults")
	require.Equal(t, models.DefaultCrawlSettings(), cfg.Competitors[1].Crawl)
	require.Len(t, cfg.EnabledCompetitors(), 1)

	require.Equal(t, "test-agent", cfg.GlobalSettings.UserAgent)
	require.Equal(t, 30, cfg.GlobalSettings.RateLimitPerMinute)
	require.True(t, cfg.GlobalSettings.RespectRobotsTxt)
	require.Equal(t, 5, cfg.GlobalSettings.ConcurrentRequests)
}

func TestLoadCompetitorsFailures(t *testing.T) {
	_, err := LoadCompetitors(filepath.Join(t.TempDir(), "missing.yml"))
	require.ErrorContains(t, err, "not found")

	tests := []struct {
		name    string
		yaml    string
		wantErr error
		want    string
	}{
		{name: "empty file", yaml: "", wantErr: ErrNoCompetitors},
		{name: "no competitors key", yaml: "global_settings:\n  timeout: 30\n", wantErr: ErrNoCompetitors},
		{name: "empty list", yaml: "competitors: []\n", wantErr: ErrNoCompetitors},
		{name: "bad yaml", yaml: "competitors: [\n", want: "invalid YAML"},
		{name: "unknown key", yaml: "competitors: []\ncompetitor_typo: 1\n", want: "invalid YAML"},
		{
			name: "invalid competitor",
			yaml: "competitors:\n  - name: X\n    new_urls: [not-a-url]\n    promo_urls: [https://x.example.com/sale]\n",
			want: "new_urls[0]",
		},
		{
			name: "explicit zero priority",
			yaml: "competitors:\n  - name: X\n    new_urls: [https://x.example.com]\n    promo_urls: [https://x.example.com/sale]\n    priority: 0\n",
			want: "priority",
		},
		{
			name: "explicit zero crawl settings",
			yaml: "competitors:\n  - name: X\n    new_urls: [https://x.example.com]\n    promo_urls: [https://x.example.com/sale]\n    crawl_settings: {depth: 0, limit: 0, delay: 0, timeout: 0}\n",
			want: "crawl.depth",
		},
		{
			name: "invalid global settings",
			yaml: "competitors:\n  - name: X\n    new_urls: [https://x.example.com]\n    promo_urls: [https://x.example.com/sale]\nglobal_settings:\n  concurrent_requests: 99\n",
			want: "concurrent_requests",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCompetitors(writeFile(t, tt.yaml))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			if tt.want != "" {
				require.ErrorContains(t, err, tt.want)
			}
		})
	}
}

func TestInvalidCompetitorIsValidationError(t *testing.T) {
	_, err := ParseCompetitors([]byte("competitors:\n  - name: ''\n    new_urls: []\n    promo_urls: []\n"))
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	require.True(t, verr.Has("name"))
	require.True(t, verr.Has("new_urls"))
	require.True(t, verr.Has("promo_urls"))
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir()) // keep any real .env out of the test
	t.Setenv("FIRECRAWL_API_KEY", "fc-key")
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("FIRECRAWL_TIMEOUT", "90")
	t.Setenv("COMPINTEL_SCRAPER", "chain")
	t.Setenv("COMPINTEL_MAX_NEW_URLS", "5")
	t.Setenv("COMPINTEL_MAX_COMPETITORS", "not-a-number")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	require.Equal(t, "fc-key", cfg.FirecrawlAPIKey)
	require.Equal(t, "sk-ant", cfg.ClaudeAPIKey)
	require.Equal(t, 90*time.Second, cfg.FirecrawlTimeout)
	require.Equal(t, 30*time.Second, cfg.ClaudeTimeout)
	require.Equal(t, BackendChain, cfg.ScraperBackend)
	require.Equal(t, 5, cfg.MaxNewURLs)
	require.Equal(t, 0, cfg.MaxCompetitors)
	require.Equal(t, "config/competitors.yml", cfg.CompetitorsFile)
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		firecrawl string
		claude    string
		want      []string
	}{
		{name: "all set", backend: BackendFirecrawl, firecrawl: "fc", claude: "sk"},
		{name: "placeholders", backend: BackendFirecrawl, firecrawl: firecrawlPlaceholder, claude: claudePlaceholder,
			want: []string{"FIRECRAWL_API_KEY", "CLAUDE_API_KEY"}},
		{name: "direct needs no firecrawl", backend: BackendDirect, claude: "sk"},
		{name: "chain needs firecrawl", backend: BackendChain, claude: "sk", want: []string{"FIRECRAWL_API_KEY"}},
		{name: "claude always", backend: BackendHeadless, want: []string{"CLAUDE_API_KEY"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ScraperBackend = tt.backend
			cfg.FirecrawlAPIKey = tt.firecrawl
			cfg.ClaudeAPIKey = tt.claude

			err := cfg.ValidateCredentials()
			if len(tt.want) == 0 {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMissingCredentials)
			for _, w := range tt.want {
				require.ErrorContains(t, err, w)
			}
		})
	}
}

func TestValidateBackend(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateBackend())
	cfg.ScraperBackend = "selenium"
	require.ErrorContains(t, cfg.ValidateBackend(), "unknown scraper backend")
}
