package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lukman83/compintel/internal/models"
	"gopkg.in/yaml.v3"
)

// competitorsFile mirrors config/competitors.yml. Pointer fields tell an
// omitted key apart from an explicit zero so defaults apply only to the
// former.
type competitorsFile struct {
	Competitors    *[]competitorEntry `yaml:"competitors"`
	GlobalSettings *globalEntry       `yaml:"global_settings"`
}

type competitorEntry struct {
	Name            string            `yaml:"name"`
	NewURLs         []string          `yaml:"new_urls"`
	PromoURLs       []string          `yaml:"promo_urls"`
	Crawl           *crawlEntry       `yaml:"crawl_settings"`
	Description     string            `yaml:"description"`
	Website         string            `yaml:"website"`
	Priority        *int              `yaml:"priority"`
	Enabled         *bool             `yaml:"enabled"`
	Tags            []string          `yaml:"tags"`
	CustomHeaders   map[string]string `yaml:"custom_headers"`
	UserAgent       string            `yaml:"user_agent"`
	ExcludePatterns []string          `yaml:"exclude_patterns"`
}

type crawlEntry struct {
	Depth   *int     `yaml:"depth"`
	Limit   *int     `yaml:"limit"`
	Delay   *float64 `yaml:"delay"`
	Timeout *int     `yaml:"timeout"`
	Retries *int     `yaml:"retries"`
}

type globalEntry struct {
	UserAgent          string `yaml:"user_agent"`
	MaxRetries         *int   `yaml:"max_retries"`
	Timeout            *int   `yaml:"timeout"`
	RespectRobotsTxt   *bool  `yaml:"respect_robots_txt"`
	ConcurrentRequests *int   `yaml:"concurrent_requests"`
	RateLimitPerMinute *int   `yaml:"rate_limit_per_minute"`
}

// LoadCompetitors reads and validates the competitor file at path. A
// missing file, a missing competitors key and an empty list all fail, as
// does any competitor that does not validate.
func LoadCompetitors(path string) (*models.CompetitorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("competitor config file not found: %s", path)
		}
		return nil, fmt.Errorf("read competitor config: %w", err)
	}
	return ParseCompetitors(data)
}

// ParseCompetitors is LoadCompetitors for already-read YAML.
func ParseCompetitors(data []byte) (*models.CompetitorConfig, error) {
	var file competitorsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in competitor config: %w", err)
	}
	if file.Competitors == nil {
		return nil, fmt.Errorf("%w: config file must contain 'competitors' key", ErrNoCompetitors)
	}
	if len(*file.Competitors) == 0 {
		return nil, fmt.Errorf("%w: at least one competitor must be configured", ErrNoCompetitors)
	}

	global, err := models.NewGlobalSettings(file.GlobalSettings.settings())
	if err != nil {
		return nil, err
	}

	competitors := make([]models.Competitor, 0, len(*file.Competitors))
	for i, entry := range *file.Competitors {
		c, err := models.NewCompetitor(entry.competitor())
		if err != nil {
			return nil, fmt.Errorf("competitor %d (%q): %w", i+1, entry.Name, err)
		}
		competitors = append(competitors, c)
	}
	return models.NewCompetitorConfig(competitors, global)
}

func (e competitorEntry) competitor() models.Competitor {
	enabled := true
	pick(&enabled, e.Enabled)
	priority := models.DefaultPriority
	pick(&priority, e.Priority)
	return models.Competitor{
		Name:            e.Name,
		NewURLs:         e.NewURLs,
		PromoURLs:       e.PromoURLs,
		Crawl:           e.Crawl.settings(),
		Description:     e.Description,
		Website:         e.Website,
		Priority:        priority,
		Enabled:         enabled,
		Tags:            e.Tags,
		CustomHeaders:   e.CustomHeaders,
		UserAgent:       e.UserAgent,
		ExcludePatterns: e.ExcludePatterns,
	}
}

func (e *crawlEntry) settings() models.CrawlSettings {
	s := models.DefaultCrawlSettings()
	if e == nil {
		return s
	}
	pick(&s.Depth, e.Depth)
	pick(&s.Limit, e.Limit)
	pick(&s.Delay, e.Delay)
	pick(&s.Timeout, e.Timeout)
	pick(&s.Retries, e.Retries)
	return s
}

func (e *globalEntry) settings() models.GlobalSettings {
	g := models.DefaultGlobalSettings()
	if e == nil {
		return g
	}
	if e.UserAgent != "" {
		g.UserAgent = e.UserAgent
	}
	pick(&g.MaxRetries, e.MaxRetries)
	pick(&g.Timeout, e.Timeout)
	pick(&g.RespectRobotsTxt, e.RespectRobotsTxt)
	pick(&g.ConcurrentRequests, e.ConcurrentRequests)
	pick(&g.RateLimitPerMinute, e.RateLimitPerMinute)
	return g
}

func pick[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
