package models

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validProduct() Product {
	return Product{
		Competitor:  "West Elm",
		ProductName: "Modern   Sofa",
		ProductURL:  "https://www.westelm.com/products/modern-sofa",
		Price:       ptr(899.0),
	}
}

func validPromotion() Promotion {
	return Promotion{
		Competitor:    "West Elm",
		PromoTitle:    "20% Off All Chairs",
		PromoURL:      "https://www.westelm.com/sale",
		PromoType:     PromoPercentageOff,
		DiscountValue: ptr(20.0),
	}
}

func requireFieldErrors(t *testing.T, err error, fields ...string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	for _, f := range fields {
		require.True(t, verr.Has(f), "expected violation on %q in %v", f, verr)
	}
}

func TestNewProduct(t *testing.T) {
	p, err := NewProduct(validProduct())
	require.NoError(t, err)
	require.Equal(t, "Modern Sofa", p.ProductName)
	require.True(t, p.IsValidForExport())
	require.False(t, p.CollectedAt.IsZero())
	require.Equal(t, time.UTC, p.CollectedAt.Location())
}

func TestNewProductPriceBounds(t *testing.T) {
	for _, price := range []float64{-0.01, -5, 100000.01, 250000, math.NaN(), math.Inf(1)} {
		in := validProduct()
		in.Price = ptr(price)
		_, err := NewProduct(in)
		requireFieldErrors(t, err, "price")
	}
	for _, price := range []float64{0, 0.01, 99.99, 100000} {
		in := validProduct()
		in.Price = ptr(price)
		_, err := NewProduct(in)
		require.NoError(t, err, "price %v", price)
	}

	in := validProduct()
	in.OriginalPrice = ptr(12.345)
	_, err := NewProduct(in)
	requireFieldErrors(t, err, "original_price")
}

func TestNewProductAggregatesEveryViolation(t *testing.T) {
	_, err := NewProduct(Product{
		ProductName: " x ",
		ProductURL:  "not-a-url",
		Rating:      ptr(7.5),
		ReviewCount: ptr(-1),
		ImageURL:    "ftp://img",
	})
	requireFieldErrors(t, err, "competitor", "product_name", "product_url", "rating", "review_count", "image_url")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 6)
	require.Contains(t, verr.Error(), "6 validation error(s) for product")
}

func TestCategoryCoercesUnknownToOther(t *testing.T) {
	in := validProduct()
	in.Category = "Spaceships"
	p, err := NewProduct(in)
	require.NoError(t, err, "an unknown category must not fail construction")
	require.Equal(t, CategoryOther, p.Category)

	in.Category = " Home_Decor "
	p, err = NewProduct(in)
	require.NoError(t, err)
	require.Equal(t, CategoryHomeDecor, p.Category)

	in.Category = ""
	p, err = NewProduct(in)
	require.NoError(t, err)
	require.Equal(t, Category(""), p.Category)
}

func TestProductUniqueKey(t *testing.T) {
	a := validProduct()
	b := validProduct()
	b.ProductName = "Completely different"
	b.Price = ptr(1.0)
	b.Brand = "Other"
	require.Equal(t, a.UniqueKey(), b.UniqueKey())
	require.Equal(t, "West Elm:https://www.westelm.com/products/modern-sofa", a.UniqueKey())
}

func TestProductCSVRecord(t *testing.T) {
	in := validProduct()
	in.LaunchDate = ptr(day(2024, time.March, 1))
	in.ReviewCount = ptr(12)
	in.CollectedAt = time.Date(2024, time.March, 2, 10, 30, 0, 0, time.UTC)
	p, err := NewProduct(in)
	require.NoError(t, err)

	rec := p.CSVRecord()
	require.Len(t, rec, len(ProductColumns))
	for _, col := range ProductColumns {
		require.Contains(t, rec, col)
	}
	require.Equal(t, "899", rec["price"])
	require.Equal(t, "", rec["original_price"])
	require.Equal(t, "2024-03-01", rec["launch_date"])
	require.Equal(t, "12", rec["review_count"])
	require.Equal(t, "2024-03-02 10:30:00", rec["collected_at"])
}

func TestNewPromotion(t *testing.T) {
	p, err := NewPromotion(validPromotion())
	require.NoError(t, err)
	require.Equal(t, StatusUnknown, p.Status)
	require.True(t, p.IsValidForExport())
}

func TestPromotionPercentageCeiling(t *testing.T) {
	in := validPromotion()
	in.DiscountValue = ptr(100.5)
	_, err := NewPromotion(in)
	requireFieldErrors(t, err, "discount_value")

	in.PromoType = PromoDollarOff
	_, err = NewPromotion(in)
	require.NoError(t, err, "the 100 ceiling only applies to percentage discounts")

	in.DiscountValue = ptr(10001.0)
	_, err = NewPromotion(in)
	requireFieldErrors(t, err, "discount_value")

	in.DiscountValue = ptr(-1.0)
	_, err = NewPromotion(in)
	requireFieldErrors(t, err, "discount_value")
}

func TestPromotionDateOrder(t *testing.T) {
	in := validPromotion()
	in.StartDate = ptr(day(2024, time.June, 10))
	in.EndDate = ptr(day(2024, time.June, 1))
	_, err := NewPromotion(in)
	requireFieldErrors(t, err, "end_date")

	in.EndDate = ptr(day(2024, time.June, 10))
	_, err = NewPromotion(in)
	require.NoError(t, err)
}

func TestPromotionTypeIsStrict(t *testing.T) {
	in := validPromotion()
	in.PromoType = "mystery_deal"
	_, err := NewPromotion(in)
	requireFieldErrors(t, err, "promo_type")

	in.PromoType = ""
	_, err = NewPromotion(in)
	requireFieldErrors(t, err, "promo_type")

	in.PromoType = " Free_Shipping "
	in.DiscountValue = nil
	p, err := NewPromotion(in)
	require.NoError(t, err)
	require.Equal(t, PromoFreeShipping, p.PromoType)
}

func TestPromoCodeCleaning(t *testing.T) {
	testCases := []struct {
		in, want string
	}{
		{"CODE: SAVE20", "SAVE20"},
		{"save10", "SAVE10"},
		{" promo:chair20 ", "CHAIR20"},
		{"Use: WELCOME", "WELCOME"},
		{"coupon:  X1", "X1"},
		{"   ", ""},
	}
	for _, tc := range testCases {
		in := validPromotion()
		in.PromoCode = tc.in
		p, err := NewPromotion(in)
		require.NoError(t, err)
		require.Equal(t, tc.want, p.PromoCode, tc.in)
	}

	in := validPromotion()
	in.PromoCode = "CODE: " + strings.Repeat("A", 51)
	_, err := NewPromotion(in)
	require.Error(t, err)
}

func TestPromotionActiveOn(t *testing.T) {
	today := time.Date(2024, time.June, 15, 18, 45, 0, 0, time.UTC)

	p := validPromotion()
	require.False(t, p.ActiveOn(today), "no dates and unknown status")
	p.Status = StatusActive
	require.True(t, p.ActiveOn(today), "no dates, status active")

	p.Status = StatusExpired
	p.StartDate = ptr(day(2024, time.June, 1))
	require.True(t, p.ActiveOn(today), "open end date")

	p.EndDate = ptr(day(2024, time.June, 15))
	require.True(t, p.ActiveOn(today), "end date is inclusive")

	p.EndDate = ptr(day(2024, time.June, 14))
	require.False(t, p.ActiveOn(today))

	p.StartDate = ptr(day(2024, time.June, 16))
	p.EndDate = nil
	require.False(t, p.ActiveOn(today), "not started yet")
}

func TestPromotionDaysRemaining(t *testing.T) {
	today := time.Date(2024, time.June, 15, 23, 0, 0, 0, time.UTC)
	p := validPromotion()
	require.Nil(t, p.DaysRemainingOn(today))

	p.EndDate = ptr(day(2024, time.June, 25))
	require.Equal(t, 10, *p.DaysRemainingOn(today))

	p.EndDate = ptr(day(2024, time.June, 1))
	require.Equal(t, 0, *p.DaysRemainingOn(today))
}

func TestPromotionUniqueKeyAndCSV(t *testing.T) {
	p, err := NewPromotion(validPromotion())
	require.NoError(t, err)
	require.Equal(t, "West Elm:https://www.westelm.com/sale:20% off all chairs", p.UniqueKey())

	p.EndDate = ptr(day(2024, time.June, 20))
	rec := p.csvRecordOn(day(2024, time.June, 15))
	require.Len(t, rec, len(PromotionColumns))
	require.Equal(t, "20", rec["discount_value"])
	require.Equal(t, "5", rec["days_remaining"])
	require.Equal(t, "true", rec["is_active"])
	require.Equal(t, "percentage_off", rec["promo_type"])
}

func validCompetitor() Competitor {
	return Competitor{
		Name:      "  West Elm ",
		NewURLs:   []string{"https://www.westelm.com/new"},
		PromoURLs: []string{"https://www.westelm.com/sale"},
		Crawl:     DefaultCrawlSettings(),
		Priority:  DefaultPriority,
		Enabled:   true,
	}
}

func TestNewCompetitor(t *testing.T) {
	c, err := NewCompetitor(validCompetitor())
	require.NoError(t, err)
	require.Equal(t, "West Elm", c.Name)
	require.Equal(t, DefaultCrawlSettings(), c.Crawl)
	require.Equal(t, 1, c.Priority)
	require.Equal(t, time.Second, c.Crawl.DelayDuration())
	require.Equal(t, 30*time.Second, c.Crawl.TimeoutDuration())
}

func TestNewCompetitorRejectsZeroValues(t *testing.T) {
	in := validCompetitor()
	in.Priority = 0
	in.Crawl = CrawlSettings{}
	_, err := NewCompetitor(in)
	requireFieldErrors(t, err, "priority", "crawl.depth", "crawl.limit", "crawl.delay", "crawl.timeout")
}

func TestNewCompetitorValidation(t *testing.T) {
	in := validCompetitor()
	in.NewURLs = nil
	in.PromoURLs = []string{"https://ok.example.com", "nope"}
	in.Crawl = CrawlSettings{Depth: 9, Limit: 50, Delay: 0.05, Timeout: 30, Retries: 3}
	in.Priority = 6
	_, err := NewCompetitor(in)
	requireFieldErrors(t, err, "new_urls", "promo_urls[1]", "crawl.depth", "crawl.delay", "priority")
}

func TestCompetitorTagsNormalized(t *testing.T) {
	in := validCompetitor()
	in.Tags = []string{" Furniture", "premium", "FURNITURE ", "", "Modern"}
	c, err := NewCompetitor(in)
	require.NoError(t, err)
	require.Equal(t, []string{"furniture", "premium", "modern"}, c.Tags)
}

func TestCompetitorEstimates(t *testing.T) {
	c := Competitor{
		NewURLs:   []string{"a", "b"},
		PromoURLs: []string{"c"},
		Crawl:     CrawlSettings{Depth: 3, Limit: 15, Delay: 1.5},
	}
	require.Equal(t, []string{"a", "b", "c"}, c.AllURLs())
	require.Equal(t, 3, c.TotalURLCount())
	// min(depth-1=2, 15/10=1) = 1 follow-on page per URL
	require.Equal(t, 6, c.EstimatedPages())
	require.InDelta(t, (6*1.5+6*0.5)/60, c.EstimatedMinutes(), 1e-9)

	c.Crawl.Depth = 1
	require.Equal(t, 3, c.EstimatedPages())
}

func TestCompetitorIsURLExcluded(t *testing.T) {
	c := Competitor{ExcludePatterns: []string{"/gift-card", "?page="}}
	require.True(t, c.IsURLExcluded("https://x.com/gift-card/balance"))
	require.True(t, c.IsURLExcluded("https://x.com/new?page=2"))
	require.False(t, c.IsURLExcluded("https://x.com/new"))
}

func TestCompetitorConfig(t *testing.T) {
	_, err := NewCompetitorConfig(nil, DefaultGlobalSettings())
	requireFieldErrors(t, err, "competitors")

	on := Competitor{Name: "West Elm", NewURLs: []string{"a"}, PromoURLs: []string{"b"}, Enabled: true, Crawl: CrawlSettings{Depth: 2, Limit: 50, Delay: 1}}
	off := on
	off.Name = "Crate & Barrel"
	off.Enabled = false

	cfg, err := NewCompetitorConfig([]Competitor{on, off}, DefaultGlobalSettings())
	require.NoError(t, err)
	require.Len(t, cfg.EnabledCompetitors(), 1)

	got, ok := cfg.CompetitorByName("crate & BARREL")
	require.True(t, ok)
	require.Equal(t, "Crate & Barrel", got.Name)
	_, ok = cfg.CompetitorByName("IKEA")
	require.False(t, ok)

	// 2 urls * (1 + min(1, 5)) = 4 pages; (4*1 + 4*0.5)/60 = 0.1 min
	require.Equal(t, 4, cfg.TotalEstimatedPages())
	require.InDelta(t, 0.1, cfg.TotalEstimatedMinutes(), 1e-9)

	ok, msg := cfg.ValidateTimeConstraint(DefaultMaxMinutes)
	require.True(t, ok)
	require.Equal(t, "Estimated time (0.1min) within limit", msg)

	ok, msg = cfg.ValidateTimeConstraint(0)
	require.False(t, ok)
	require.Equal(t, "Estimated time (0.1min) exceeds limit (0min)", msg)
}

func TestNewGlobalSettings(t *testing.T) {
	g, err := NewGlobalSettings(GlobalSettings{Timeout: 30, ConcurrentRequests: 5, RateLimitPerMinute: 60})
	require.NoError(t, err)
	require.NotEmpty(t, g.UserAgent)

	_, err = NewGlobalSettings(GlobalSettings{Timeout: 1, ConcurrentRequests: 50, RateLimitPerMinute: 0, MaxRetries: 11})
	requireFieldErrors(t, err, "timeout", "concurrent_requests", "rate_limit_per_minute", "max_retries")
}

func TestProductListSuccessRate(t *testing.T) {
	l := NewProductList("West Elm")
	require.Equal(t, 0.0, l.SuccessRate())

	l.Successful, l.Failed = 8, 2
	require.InDelta(t, 0.8, l.SuccessRate(), 1e-9)

	p, err := NewProduct(validProduct())
	require.NoError(t, err)
	l.Add(p)
	l.Add(Product{Competitor: "West Elm", ProductURL: "https://x.com"})
	require.Equal(t, 2, l.Total)
	require.Len(t, l.ValidProducts(), 1)
}

func TestPromotionListRecountsOnAdd(t *testing.T) {
	today := day(2024, time.June, 15)
	l := NewPromotionList("West Elm")
	l.now = func() time.Time { return today }

	running := validPromotion()
	running.StartDate = ptr(day(2024, time.June, 1))
	running.EndDate = ptr(day(2024, time.June, 30))
	l.Add(running)
	require.Equal(t, 1, l.Active)

	upcoming := validPromotion()
	upcoming.Status = StatusUpcoming
	l.Add(upcoming)

	expired := validPromotion()
	expired.Status = StatusExpired
	expired.EndDate = ptr(day(2024, time.May, 1))
	l.Add(expired)

	require.Equal(t, 3, l.Total)
	require.Equal(t, 1, l.Active)
	require.Equal(t, 1, l.Upcoming)
	require.Equal(t, 1, l.Expired)
	require.Len(t, l.ActivePromotions(), 1)
	require.Len(t, l.ValidPromotions(), 3)
	require.Equal(t, 0.0, l.SuccessRate())
}

func TestParseProduct(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	var raw Raw
	require.NoError(t, json.Unmarshal([]byte(`{
		"competitor": "West Elm",
		"product_name": "Dining  Table",
		"product_url": "https://www.westelm.com/table",
		"brand": "West Elm",
		"category": "tables",
		"price": "$1,299",
		"rating": 4.5,
		"review_count": 12,
		"launch_date": "January 15, 2024"
	}`), &raw))

	p, err := ParseProduct(raw, now)
	require.NoError(t, err)
	require.Equal(t, "Dining Table", p.ProductName)
	require.Equal(t, CategoryOther, p.Category)
	require.InDelta(t, 1299.0, *p.Price, 1e-9)
	require.Equal(t, 12, *p.ReviewCount)
	require.True(t, day(2024, time.January, 15).Equal(*p.LaunchDate))
	require.Equal(t, now, p.CollectedAt)
}

func TestParseProductJSONNumbers(t *testing.T) {
	p, err := ParseProduct(Raw{
		"competitor":   "West Elm",
		"product_name": "Lamp",
		"product_url":  "https://www.westelm.com/lamp",
		"price":        json.Number("49.99"),
		"review_count": json.Number("3"),
	}, time.Time{})
	require.NoError(t, err)
	require.InDelta(t, 49.99, *p.Price, 1e-9)
	require.Equal(t, 3, *p.ReviewCount)
	require.False(t, p.CollectedAt.IsZero())
}

func TestParseProductCollectsCoercionErrors(t *testing.T) {
	_, err := ParseProduct(Raw{
		"competitor":   "West Elm",
		"product_name": "Lamp",
		"product_url":  "https://www.westelm.com/lamp",
		"price":        "call for price",
		"review_count": 2.5,
		"launch_date":  "someday",
		"sku":          []any{"a"},
	}, time.Now())
	requireFieldErrors(t, err, "price", "review_count", "launch_date", "sku")
}

func TestParsePromotion(t *testing.T) {
	p, err := ParsePromotion(Raw{
		"competitor":     "West Elm",
		"promo_title":    "20% Off All Chairs",
		"promo_type":     "percentage_off",
		"promo_url":      "https://www.westelm.com/sale",
		"discount_value": 20.0,
		"promo_code":     "CODE: CHAIR20",
		"start_date":     "2024-06-01",
		"end_date":       "2024-06-30T00:00:00Z",
		"priority":       json.Number("2"),
	}, time.Now())
	require.NoError(t, err)
	require.Equal(t, "CHAIR20", p.PromoCode)
	require.Equal(t, 2, *p.Priority)
	require.True(t, day(2024, time.June, 30).Equal(*p.EndDate))

	_, err = ParsePromotion(Raw{
		"competitor":     "West Elm",
		"promo_title":    "Big",
		"promo_type":     "percentage_off",
		"promo_url":      "https://www.westelm.com/sale",
		"discount_value": "150",
	}, time.Now())
	requireFieldErrors(t, err, "discount_value")
}
