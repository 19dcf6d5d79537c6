// Package claude extracts product and promotion records from page content
// with the Anthropic Messages API.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/lukman83/compintel/internal/platform"
)

const (
	DefaultBaseURL   = "https://api.anthropic.com/v1"
	DefaultModel     = "claude-3-haiku-20240307"
	APIVersion       = "2023-06-01"
	MaxContentRunes  = 3000
	defaultMaxTokens = 2000
)

type Client struct {
	http   *resty.Client
	model  string
	logger *slog.Logger
}

func New(baseURL, apiKey, model string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", APIVersion).
		SetHeader("Content-Type", "application/json")
	return &Client{http: rc, model: model, logger: logger}
}

func (c *Client) ExtractProducts(ctx context.Context, content, competitor string) []platform.Raw {
	records := c.extract(ctx, productPrompt(competitor, Truncate(content, MaxContentRunes)), "products")
	for _, r := range records {
		r["competitor"] = competitor
		if brand, _ := r["brand"].(string); strings.TrimSpace(brand) == "" {
			r["brand"] = competitor
		}
	}
	return records
}

func (c *Client) ExtractPromotions(ctx context.Context, content, competitor string) []platform.Raw {
	records := c.extract(ctx, promotionPrompt(competitor, Truncate(content, MaxContentRunes)), "promotions")
	for _, r := range records {
		r["competitor"] = competitor
	}
	return records
}

func (c *Client) extract(ctx context.Context, prompt, kind string) []platform.Raw {
	text, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.WarnContext(ctx, "extraction request failed", "kind", kind, "err", err)
		return nil
	}
	records, err := ParseRecords(text)
	if err != nil {
		c.logger.WarnContext(ctx, "unparsable extraction output", "kind", kind, "err", err)
		return nil
	}
	c.logger.DebugContext(ctx, "extracted records", "kind", kind, "count", len(records))
	return records
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var out messagesResponse
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(messagesRequest{
			Model:     c.model,
			MaxTokens: defaultMaxTokens,
			Messages:  []message{{Role: "user", Content: prompt}},
		}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/messages")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		if apiErr.Error.Message != "" {
			return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return "", fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	if len(out.Content) == 0 {
		return "", errors.New("empty response")
	}
	return out.Content[0].Text, nil
}

// ParseRecords decodes the JSON array spanning the first '[' to the last
// ']' of text. Elements that are not JSON objects are skipped.
func ParseRecords(text string) ([]platform.Raw, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON array in response")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &elems); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}

	records := make([]platform.Raw, 0, len(elems))
	for _, elem := range elems {
		dec := json.NewDecoder(bytes.NewReader(elem))
		dec.UseNumber()
		var r platform.Raw
		if err := dec.Decode(&r); err != nil || r == nil {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Truncate keeps the first n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
