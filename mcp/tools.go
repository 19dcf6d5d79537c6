package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/pipeline"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/lukman83/compintel/internal/validate"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Deps are the collaborators the tools need.
type Deps struct {
	// LoadCompetitors returns the current competitor configuration.
	LoadCompetitors func() (*models.CompetitorConfig, error)
	// Client probes URLs for check_url.
	Client *http.Client
	// MaxMinutes is the default budget for estimate_crawl.
	MaxMinutes int
}

type tools struct {
	deps Deps
	now  func() time.Time
}

func registerTools(s *server.MCPServer, deps Deps) {
	t := &tools{deps: deps, now: time.Now}
	if t.deps.MaxMinutes <= 0 {
		t.deps.MaxMinutes = models.DefaultMaxMinutes
	}

	// list_competitors
	listTool := mcp.NewTool("list_competitors",
		mcp.WithDescription("List configured competitors with their URLs and crawl settings"),
		mcp.WithBoolean("enabled_only",
			mcp.Description("Only enabled competitors (default: true)"),
		),
	)
	s.AddTool(listTool, t.handleListCompetitors)

	// estimate_crawl
	estimateTool := mcp.NewTool("estimate_crawl",
		mcp.WithDescription("Estimate pages and minutes a full run needs and check it against a time budget"),
		mcp.WithNumber("max_minutes",
			mcp.Description("Time budget in minutes (default: 80)"),
		),
	)
	s.AddTool(estimateTool, t.handleEstimateCrawl)

	// score_record
	scoreTool := mcp.NewTool("score_record",
		mcp.WithDescription("Score a raw extracted product or promotion record and report whether it validates"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Record kind: product or promotion"),
		),
		mcp.WithObject("record",
			mcp.Required(),
			mcp.Description("Raw record fields, e.g. product_name, price, product_url"),
		),
	)
	s.AddTool(scoreTool, t.handleScoreRecord)

	// normalize_url
	normalizeTool := mcp.NewTool("normalize_url",
		mcp.WithDescription("Normalize a URL the way records are deduplicated and report its domain"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL to normalize"),
		),
	)
	s.AddTool(normalizeTool, t.handleNormalizeURL)

	// check_url
	checkTool := mcp.NewTool("check_url",
		mcp.WithDescription("Check whether a URL is reachable (HEAD, falling back to GET)"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("URL to probe"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Timeout in seconds (default: 10)"),
		),
	)
	s.AddTool(checkTool, t.handleCheckURL)
}

func (t *tools) handleListCompetitors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := t.deps.LoadCompetitors()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("config error: %v", err)), nil
	}

	competitors := cfg.Competitors
	if request.GetBool("enabled_only", true) {
		competitors = cfg.EnabledCompetitors()
	}
	return jsonResult(competitors)
}

type competitorEstimate struct {
	Name    string  `json:"name"`
	URLs    int     `json:"urls"`
	Pages   int     `json:"estimated_pages"`
	Minutes float64 `json:"estimated_minutes"`
}

type crawlEstimate struct {
	Competitors  []competitorEstimate `json:"competitors"`
	TotalPages   int                  `json:"total_pages"`
	TotalMinutes float64              `json:"total_minutes"`
	WithinLimit  bool                 `json:"within_limit"`
	Message      string               `json:"message"`
}

func (t *tools) handleEstimateCrawl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := t.deps.LoadCompetitors()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("config error: %v", err)), nil
	}
	maxMinutes := request.GetInt("max_minutes", t.deps.MaxMinutes)
	if maxMinutes <= 0 {
		return mcp.NewToolResultError("max_minutes must be positive"), nil
	}
	return jsonResult(estimate(cfg, maxMinutes))
}

func estimate(cfg *models.CompetitorConfig, maxMinutes int) crawlEstimate {
	var out crawlEstimate
	for _, c := range cfg.EnabledCompetitors() {
		out.Competitors = append(out.Competitors, competitorEstimate{
			Name:    c.Name,
			URLs:    c.TotalURLCount(),
			Pages:   c.EstimatedPages(),
			Minutes: c.EstimatedMinutes(),
		})
	}
	out.TotalPages = cfg.TotalEstimatedPages()
	out.TotalMinutes = cfg.TotalEstimatedMinutes()
	out.WithinLimit, out.Message = cfg.ValidateTimeConstraint(maxMinutes)
	return out
}

func (t *tools) handleScoreRecord(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := pipeline.ParseKind(request.GetString("kind", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := recordArg(request.GetArguments()["record"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(pipeline.ScoreRecord(raw, kind, t.now()))
}

// recordArg accepts the record as a JSON object or as a string holding one.
func recordArg(v any) (platform.Raw, error) {
	switch rec := v.(type) {
	case map[string]any:
		return platform.Raw(rec), nil
	case string:
		dec := json.NewDecoder(bytes.NewReader([]byte(rec)))
		dec.UseNumber()
		var raw platform.Raw
		if err := dec.Decode(&raw); err != nil || raw == nil {
			return nil, fmt.Errorf("record must be a JSON object")
		}
		return raw, nil
	case nil:
		return nil, fmt.Errorf("record is required")
	}
	return nil, fmt.Errorf("record must be a JSON object")
}

type normalizedURL struct {
	URL        string `json:"url"`
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized"`
	Domain     string `json:"domain"`
}

func (t *tools) handleNormalizeURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u := request.GetString("url", "")
	if u == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	return jsonResult(normalizedURL{
		URL:        u,
		Valid:      validate.IsValidURL(u),
		Normalized: validate.NormalizeURL(u),
		Domain:     validate.Domain(u),
	})
}

type urlStatus struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Reason    string `json:"reason,omitempty"`
}

func (t *tools) handleCheckURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u := request.GetString("url", "")
	if u == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	if !validate.IsValidURL(u) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid URL %q", u)), nil
	}
	timeout := time.Duration(request.GetInt("timeout", 10)) * time.Second

	ok, reason := validate.CheckAccessible(ctx, t.deps.Client, u, timeout)
	return jsonResult(urlStatus{URL: u, Reachable: ok, Reason: reason})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
