package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/pipeline"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// printRunSummary prints per-competitor counts and the export outcome.
func printRunSummary(w io.Writer, res *pipeline.Result) {
	t := newTable(w)
	t.SetTitle("Pipeline summary")
	t.AppendHeader(table.Row{"Competitor", "Pages", "Failed", "Skipped", "Products", "Promotions", "Success"})
	for _, c := range res.Competitors {
		t.AppendRow(table.Row{
			c.Name,
			c.PagesFetched,
			c.PagesFailed,
			c.PagesSkipped,
			c.Products.Total,
			c.Promotions.Total,
			formatPercent(c.SuccessRate()),
		})
	}
	t.AppendFooter(table.Row{"Total", "", "", "", len(res.Products), len(res.Promotions), ""})
	t.Render()

	fmt.Fprintf(w, "Duration: %s\n", formatDuration(res.Duration()))
	fmt.Fprintf(w, "Time check: %s\n", res.TimeCheckMessage)
	printExport(w, "Products", res.ProductsFile, res.ProductsSummary.RowCount)
	printExport(w, "Promotions", res.PromotionsFile, res.PromotionsSummary.RowCount)
	for _, e := range res.ExportErrors {
		fmt.Fprintf(w, "Export error: %s\n", e)
	}
}

func printExport(w io.Writer, label, path string, rows int) {
	if path == "" {
		fmt.Fprintf(w, "%s: nothing exported\n", label)
		return
	}
	fmt.Fprintf(w, "%s: %d rows -> %s\n", label, rows, path)
}

// printEstimate prints the per-competitor crawl estimate and the budget check.
func printEstimate(w io.Writer, cfg *models.CompetitorConfig, maxMinutes int) bool {
	t := newTable(w)
	t.AppendHeader(table.Row{"Competitor", "URLs", "Depth", "Delay", "Est. pages", "Est. minutes"})
	for _, c := range cfg.EnabledCompetitors() {
		t.AppendRow(table.Row{
			c.Name,
			c.TotalURLCount(),
			c.Crawl.Depth,
			fmt.Sprintf("%.1fs", c.Crawl.Delay),
			c.EstimatedPages(),
			fmt.Sprintf("%.1f", c.EstimatedMinutes()),
		})
	}
	t.AppendFooter(table.Row{"Total", "", "", "", cfg.TotalEstimatedPages(), fmt.Sprintf("%.1f", cfg.TotalEstimatedMinutes())})
	t.Render()

	ok, msg := cfg.ValidateTimeConstraint(maxMinutes)
	fmt.Fprintln(w, msg)
	return ok
}

type urlCheck struct {
	Competitor string `json:"competitor"`
	Kind       string `json:"kind"`
	URL        string `json:"url"`
	OK         bool   `json:"ok"`
	Reason     string `json:"reason,omitempty"`
}

func printURLChecks(w io.Writer, checks []urlCheck) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Competitor", "Kind", "URL", "Status"})
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "FAIL " + c.Reason
		}
		t.AppendRow(table.Row{c.Competitor, c.Kind, truncate(c.URL, 70), status})
	}
	t.Render()
}

type scoredRecord struct {
	Index  int      `json:"index"`
	Label  string   `json:"label"`
	Score  float64  `json:"score"`
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func printScores(w io.Writer, scores []scoredRecord) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Record", "Score", "Valid", "Issues"})
	for _, s := range scores {
		issues := ""
		for i, is := range s.Issues {
			if i > 0 {
				issues += "; "
			}
			issues += is
		}
		t.AppendRow(table.Row{s.Index, truncate(s.Label, 40), fmt.Sprintf("%.2f", s.Score), s.Valid, truncate(issues, 60)})
	}
	t.Render()
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.0f%%", f*100)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1f seconds (%.1f minutes)", d.Seconds(), d.Minutes())
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
