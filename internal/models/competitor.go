package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/lukman83/compintel/internal/validate"
)

// CrawlSettings controls how a competitor's pages are fetched. Retries is
// carried through configuration but nothing retries.
type CrawlSettings struct {
	Depth   int     `json:"depth"`
	Limit   int     `json:"limit"`
	Delay   float64 `json:"delay"`
	Timeout int     `json:"timeout"`
	Retries int     `json:"retries"`
}

func DefaultCrawlSettings() CrawlSettings {
	return CrawlSettings{
		Depth:   2,
		Limit:   50,
		Delay:   1.0,
		Timeout: 30,
		Retries: 3,
	}
}

// DelayDuration is Delay as a time.Duration.
func (s CrawlSettings) DelayDuration() time.Duration {
	return time.Duration(s.Delay * float64(time.Second))
}

// TimeoutDuration is Timeout as a time.Duration.
func (s CrawlSettings) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s CrawlSettings) check(v *violations) {
	v.intRange("crawl.depth", &s.Depth, 1, 5)
	v.intRange("crawl.limit", &s.Limit, 1, 1000)
	v.floatRange("crawl.delay", &s.Delay, 0.1, 10.0)
	v.intRange("crawl.timeout", &s.Timeout, 5, 300)
	v.intRange("crawl.retries", &s.Retries, 0, 10)
}

// Competitor is the monitoring configuration for one business.
type Competitor struct {
	Name            string            `json:"name"`
	NewURLs         []string          `json:"new_urls"`
	PromoURLs       []string          `json:"promo_urls"`
	Crawl           CrawlSettings     `json:"crawl"`
	Description     string            `json:"description,omitempty"`
	Website         string            `json:"website,omitempty"`
	Priority        int               `json:"priority"`
	Enabled         bool              `json:"enabled"`
	Tags            []string          `json:"tags,omitempty"`
	CustomHeaders   map[string]string `json:"custom_headers,omitempty"`
	UserAgent       string            `json:"user_agent,omitempty"`
	ExcludePatterns []string          `json:"exclude_patterns,omitempty"`
}

// DefaultPriority is the priority of a competitor whose config omits one.
const DefaultPriority = 1

// NewCompetitor validates c as given. Crawl and Priority are checked
// against their ranges; callers fill omitted values with
// DefaultCrawlSettings and DefaultPriority first.
func NewCompetitor(c Competitor) (Competitor, error) {
	v := newViolations("competitor")

	c.Name = strings.TrimSpace(c.Name)
	c.Website = strings.TrimSpace(c.Website)
	c.Tags = normalizeTags(c.Tags)
	c.NewURLs = trimAll(c.NewURLs)
	c.PromoURLs = trimAll(c.PromoURLs)

	if v.required("name", c.Name) {
		v.length("name", c.Name, 1, 100)
	}
	checkURLList(v, "new_urls", c.NewURLs)
	checkURLList(v, "promo_urls", c.PromoURLs)
	c.Crawl.check(v)
	v.maxLength("description", c.Description, 500)
	v.optionalURL("website", c.Website)
	v.intRange("priority", &c.Priority, 1, 5)

	if err := v.err(); err != nil {
		return Competitor{}, err
	}
	return c, nil
}

func checkURLList(v *violations, field string, urls []string) {
	if len(urls) == 0 {
		v.add(field, "URL list cannot be empty")
		return
	}
	for i, u := range urls {
		v.url(fmt.Sprintf("%s[%d]", field, i), u)
	}
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func trimAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// AllURLs returns new-arrival URLs followed by promotion URLs.
func (c Competitor) AllURLs() []string {
	all := make([]string, 0, c.TotalURLCount())
	all = append(all, c.NewURLs...)
	return append(all, c.PromoURLs...)
}

func (c Competitor) TotalURLCount() int {
	return len(c.NewURLs) + len(c.PromoURLs)
}

// EstimatedPages is a rough heuristic, not a measured crawl size: each
// configured URL counts once plus min(depth-1, limit/10) follow-on pages.
func (c Competitor) EstimatedPages() int {
	base := c.TotalURLCount()
	return base + base*min(c.Crawl.Depth-1, c.Crawl.Limit/10)
}

// EstimatedMinutes adds the crawl delay and half a second of processing
// per estimated page. Like EstimatedPages it is an approximation.
func (c Competitor) EstimatedMinutes() float64 {
	pages := float64(c.EstimatedPages())
	return (pages*c.Crawl.Delay + pages*0.5) / 60
}

// IsURLExcluded reports whether any exclude pattern is a substring of url.
func (c Competitor) IsURLExcluded(url string) bool {
	for _, pattern := range c.ExcludePatterns {
		if strings.Contains(url, pattern) {
			return true
		}
	}
	return false
}

// GlobalSettings is crawl policy shared by every competitor.
type GlobalSettings struct {
	UserAgent          string `json:"user_agent"`
	MaxRetries         int    `json:"max_retries"`
	Timeout            int    `json:"timeout"`
	RespectRobotsTxt   bool   `json:"respect_robots_txt"`
	ConcurrentRequests int    `json:"concurrent_requests"`
	RateLimitPerMinute int    `json:"rate_limit_per_minute"`
}

func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		UserAgent:          validate.DefaultUserAgent,
		MaxRetries:         3,
		Timeout:            30,
		RespectRobotsTxt:   true,
		ConcurrentRequests: 5,
		RateLimitPerMinute: 60,
	}
}

// NewGlobalSettings validates g, filling an empty UserAgent with the default.
func NewGlobalSettings(g GlobalSettings) (GlobalSettings, error) {
	v := newViolations("global_settings")
	g.UserAgent = strings.TrimSpace(g.UserAgent)
	if g.UserAgent == "" {
		g.UserAgent = validate.DefaultUserAgent
	}
	v.intRange("max_retries", &g.MaxRetries, 0, 10)
	v.intRange("timeout", &g.Timeout, 5, 300)
	v.intRange("concurrent_requests", &g.ConcurrentRequests, 1, 20)
	v.intRange("rate_limit_per_minute", &g.RateLimitPerMinute, 1, 1000)
	if err := v.err(); err != nil {
		return GlobalSettings{}, err
	}
	return g, nil
}

// DefaultMaxMinutes is the run-time ceiling used by ValidateTimeConstraint
// callers that have no configured budget.
const DefaultMaxMinutes = 80

// CompetitorConfig is every monitored competitor plus global policy.
type CompetitorConfig struct {
	Competitors    []Competitor   `json:"competitors"`
	GlobalSettings GlobalSettings `json:"global_settings"`
}

// NewCompetitorConfig requires at least one competitor. The competitors
// themselves are expected to have come through NewCompetitor.
func NewCompetitorConfig(competitors []Competitor, global GlobalSettings) (*CompetitorConfig, error) {
	if len(competitors) == 0 {
		v := newViolations("competitor_config")
		v.add("competitors", "at least one competitor is required")
		return nil, v.err()
	}
	return &CompetitorConfig{Competitors: competitors, GlobalSettings: global}, nil
}

func (c *CompetitorConfig) EnabledCompetitors() []Competitor {
	var enabled []Competitor
	for _, comp := range c.Competitors {
		if comp.Enabled {
			enabled = append(enabled, comp)
		}
	}
	return enabled
}

// CompetitorByName finds a competitor case-insensitively, enabled or not.
func (c *CompetitorConfig) CompetitorByName(name string) (Competitor, bool) {
	for _, comp := range c.Competitors {
		if strings.EqualFold(comp.Name, name) {
			return comp, true
		}
	}
	return Competitor{}, false
}

func (c *CompetitorConfig) TotalEstimatedMinutes() float64 {
	var total float64
	for _, comp := range c.EnabledCompetitors() {
		total += comp.EstimatedMinutes()
	}
	return total
}

func (c *CompetitorConfig) TotalEstimatedPages() int {
	var total int
	for _, comp := range c.EnabledCompetitors() {
		total += comp.EstimatedPages()
	}
	return total
}

// ValidateTimeConstraint compares the enabled competitors' estimated run
// time against maxMinutes.
func (c *CompetitorConfig) ValidateTimeConstraint(maxMinutes int) (bool, string) {
	estimated := c.TotalEstimatedMinutes()
	if estimated > float64(maxMinutes) {
		return false, fmt.Sprintf("Estimated time (%.1fmin) exceeds limit (%dmin)", estimated, maxMinutes)
	}
	return true, fmt.Sprintf("Estimated time (%.1fmin) within limit", estimated)
}
