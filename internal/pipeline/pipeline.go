// Package pipeline runs one collection pass over every enabled competitor:
// fetch each configured page, extract raw records, validate them and write
// the survivors to CSV.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lukman83/compintel/internal/crawl"
	"github.com/lukman83/compintel/internal/export"
	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/lukman83/compintel/internal/validate"
)

// Exporter receives the collected records at the end of a run.
type Exporter interface {
	WriteProducts(products []models.Product) (string, export.Summary, error)
	WritePromotions(promotions []models.Promotion) (string, export.Summary, error)
}

// Options bound a run. Zero values mean no cap.
type Options struct {
	MaxNewURLs     int
	MaxPromoURLs   int
	MaxCompetitors int
	MaxMinutes     int
}

type Pipeline struct {
	scraper   platform.Scraper
	extractor platform.Extractor
	exporter  Exporter
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func New(scraper platform.Scraper, extractor platform.Extractor, exporter Exporter, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxMinutes <= 0 {
		opts.MaxMinutes = models.DefaultMaxMinutes
	}
	return &Pipeline{
		scraper:   scraper,
		extractor: extractor,
		exporter:  exporter,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

type pageKind int

const (
	newArrivals pageKind = iota
	promoPage
)

func (k pageKind) String() string {
	if k == promoPage {
		return "promo"
	}
	return "new"
}

type target struct {
	url  string
	kind pageKind
}

// Run processes competitors strictly in order, one URL at a time. Fetch,
// extraction and per-record validation failures are logged and counted;
// only cancellation of ctx stops the run early, returning the partial
// result with ctx's error.
func (p *Pipeline) Run(ctx context.Context, cfg *models.CompetitorConfig) (*Result, error) {
	res := &Result{StartedAt: p.now()}

	ok, msg := cfg.ValidateTimeConstraint(p.opts.MaxMinutes)
	res.TimeCheckOK, res.TimeCheckMessage = ok, msg
	if ok {
		p.logger.InfoContext(ctx, "time budget check", "result", msg)
	} else {
		p.logger.WarnContext(ctx, "time budget check", "result", msg)
	}

	competitors := cfg.EnabledCompetitors()
	if p.opts.MaxCompetitors > 0 && len(competitors) > p.opts.MaxCompetitors {
		competitors = competitors[:p.opts.MaxCompetitors]
	}
	p.logger.InfoContext(ctx, "starting run", "competitors", len(competitors), "scraper", p.scraper.Name())

	var runErr error
	for i, comp := range competitors {
		platform.ReportProgressf(ctx, "Processing %s (%d/%d)...", comp.Name, i+1, len(competitors))
		cr, err := p.processCompetitor(ctx, comp, cfg.GlobalSettings)
		res.Competitors = append(res.Competitors, cr)
		res.Products = append(res.Products, cr.Products.Products...)
		res.Promotions = append(res.Promotions, cr.Promotions.Promotions...)
		if err != nil {
			runErr = err
			break
		}
	}

	p.export(ctx, res)
	res.FinishedAt = p.now()
	p.logger.InfoContext(ctx, "run finished",
		"duration", res.Duration().Round(time.Millisecond),
		"products", len(res.Products),
		"promotions", len(res.Promotions),
	)
	return res, runErr
}

func (p *Pipeline) targets(comp models.Competitor) []target {
	newURLs := capped(comp.NewURLs, p.opts.MaxNewURLs)
	promoURLs := capped(comp.PromoURLs, p.opts.MaxPromoURLs)
	out := make([]target, 0, len(newURLs)+len(promoURLs))
	for _, u := range newURLs {
		out = append(out, target{url: u, kind: newArrivals})
	}
	for _, u := range promoURLs {
		out = append(out, target{url: u, kind: promoPage})
	}
	return out
}

func capped(urls []string, n int) []string {
	if n > 0 && len(urls) > n {
		return urls[:n]
	}
	return urls
}

func (p *Pipeline) processCompetitor(ctx context.Context, comp models.Competitor, global models.GlobalSettings) (CompetitorResult, error) {
	log := p.logger.With("competitor", comp.Name)
	cr := CompetitorResult{
		Name:       comp.Name,
		Products:   models.NewProductList(comp.Name),
		Promotions: models.NewPromotionList(comp.Name),
	}

	userAgent := comp.UserAgent
	if userAgent == "" {
		userAgent = global.UserAgent
	}
	ctx = platform.WithFetchOptions(ctx, platform.FetchOptions{
		UserAgent: userAgent,
		Headers:   comp.CustomHeaders,
	})
	pacer := crawl.NewPacer(comp.Crawl.DelayDuration())

	for _, t := range p.targets(comp) {
		if comp.IsURLExcluded(t.url) {
			log.InfoContext(ctx, "skipping excluded url", "url", t.url)
			cr.PagesSkipped++
			continue
		}
		if err := pacer.Wait(ctx); err != nil {
			return cr, err
		}

		platform.ReportProgressf(ctx, "Fetching %s...", t.url)
		fetchCtx, cancel := context.WithTimeout(ctx, comp.Crawl.TimeoutDuration())
		page := p.scraper.Fetch(fetchCtx, t.url)
		cancel()
		if err := ctx.Err(); err != nil {
			return cr, err
		}

		content := page.Content()
		if !page.OK() || content == "" {
			cr.PagesFailed++
			log.WarnContext(ctx, "fetch failed", "url", t.url, "backend", page.Backend, "err", page.Error)
			continue
		}
		cr.PagesFetched++

		platform.ReportProgressf(ctx, "Extracting from %s...", t.url)
		switch t.kind {
		case newArrivals:
			p.collectProducts(ctx, log, comp.Name, page.URL, content, cr.Products)
		case promoPage:
			p.collectPromotions(ctx, log, comp.Name, page.URL, content, cr.Promotions)
		}
	}

	log.InfoContext(ctx, "competitor done",
		"products", cr.Products.Total,
		"promotions", cr.Promotions.Total,
		"pages_failed", cr.PagesFailed,
	)
	return cr, nil
}

func (p *Pipeline) collectProducts(ctx context.Context, log *slog.Logger, competitor, pageURL, content string, list *models.ProductList) {
	for _, raw := range p.extractor.ExtractProducts(ctx, content, competitor) {
		resolveURL(raw, "product_url", pageURL, false)
		resolveURL(raw, "image_url", pageURL, false)
		score := validate.QualityScore(raw, validate.KindProduct)
		log.DebugContext(ctx, "product quality", "score", score, "issues", validate.ProductIssues(raw))

		product, err := models.ParseProduct(raw, p.now())
		if err != nil {
			list.Failed++
			log.WarnContext(ctx, "dropping invalid product", "name", raw["product_name"], "err", err)
			continue
		}
		list.Add(product)
		list.Successful++
	}
}

func (p *Pipeline) collectPromotions(ctx context.Context, log *slog.Logger, competitor, pageURL, content string, list *models.PromotionList) {
	for _, raw := range p.extractor.ExtractPromotions(ctx, content, competitor) {
		resolveURL(raw, "promo_url", pageURL, true)
		resolveURL(raw, "image_url", pageURL, false)
		score := validate.QualityScore(raw, validate.KindPromotion)
		log.DebugContext(ctx, "promotion quality", "score", score, "issues", validate.PromotionIssues(raw))

		promo, err := models.ParsePromotion(raw, p.now())
		if err != nil {
			list.Failed++
			log.WarnContext(ctx, "dropping invalid promotion", "title", raw["promo_title"], "err", err)
			continue
		}
		list.Add(promo)
		list.Successful++
	}
}

// resolveURL makes a relative link in raw[key] absolute against pageURL.
// With fillMissing, an absent link becomes pageURL itself.
func resolveURL(raw platform.Raw, key, pageURL string, fillMissing bool) {
	ref, isString := raw[key].(string)
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if fillMissing && (raw[key] == nil || isString) {
			raw[key] = pageURL
		}
		return
	}
	if validate.IsValidURL(ref) {
		return
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	u, err := url.Parse(ref)
	if err != nil {
		return
	}
	raw[key] = base.ResolveReference(u).String()
}

func (p *Pipeline) export(ctx context.Context, res *Result) {
	if len(res.Products) == 0 {
		p.logger.InfoContext(ctx, "no products to export")
	} else {
		path, summary, err := p.exporter.WriteProducts(res.Products)
		if err != nil {
			p.logger.ErrorContext(ctx, "export products", "err", err)
			res.ExportErrors = append(res.ExportErrors, err.Error())
		} else {
			res.ProductsFile, res.ProductsSummary = path, summary
			p.logger.InfoContext(ctx, "exported products", "path", path, "rows", summary.RowCount)
		}
	}

	if len(res.Promotions) == 0 {
		p.logger.InfoContext(ctx, "no promotions to export")
	} else {
		path, summary, err := p.exporter.WritePromotions(res.Promotions)
		if err != nil {
			p.logger.ErrorContext(ctx, "export promotions", "err", err)
			res.ExportErrors = append(res.ExportErrors, err.Error())
		} else {
			res.PromotionsFile, res.PromotionsSummary = path, summary
			p.logger.InfoContext(ctx, "exported promotions", "path", path, "rows", summary.RowCount)
		}
	}
}
