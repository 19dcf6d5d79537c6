package pipeline

import (
	"time"

	"github.com/lukman83/compintel/internal/export"
	"github.com/lukman83/compintel/internal/models"
)

// CompetitorResult is one competitor's share of a run.
type CompetitorResult struct {
	Name         string                `json:"name"`
	PagesFetched int                   `json:"pages_fetched"`
	PagesFailed  int                   `json:"pages_failed"`
	PagesSkipped int                   `json:"pages_skipped"`
	Products     *models.ProductList   `json:"products"`
	Promotions   *models.PromotionList `json:"promotions"`
}

// SuccessRate combines product and promotion extraction outcomes.
func (c CompetitorResult) SuccessRate() float64 {
	ok := c.Products.Successful + c.Promotions.Successful
	total := ok + c.Products.Failed + c.Promotions.Failed
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

type Result struct {
	StartedAt         time.Time          `json:"started_at"`
	FinishedAt        time.Time          `json:"finished_at"`
	TimeCheckOK       bool               `json:"time_check_ok"`
	TimeCheckMessage  string             `json:"time_check_message"`
	Competitors       []CompetitorResult `json:"competitors"`
	Products          []models.Product   `json:"-"`
	Promotions        []models.Promotion `json:"-"`
	ProductsFile      string             `json:"products_file,omitempty"`
	PromotionsFile    string             `json:"promotions_file,omitempty"`
	ProductsSummary   export.Summary     `json:"products_summary"`
	PromotionsSummary export.Summary     `json:"promotions_summary"`
	ExportErrors      []string           `json:"export_errors,omitempty"`
}

func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
