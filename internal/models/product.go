package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Category is the product classification. Unrecognized values coerce to
// CategoryOther instead of failing validation.
type Category string

const (
	CategoryFurniture Category = "furniture"
	CategoryHomeDecor Category = "home_decor"
	CategoryBedding   Category = "bedding"
	CategoryLighting  Category = "lighting"
	CategoryRugs      Category = "rugs"
	CategoryKitchen   Category = "kitchen"
	CategoryOutdoor   Category = "outdoor"
	CategoryStorage   Category = "storage"
	CategoryOffice    Category = "office"
	CategoryKids      Category = "kids"
	CategoryOther     Category = "other"
)

var categories = []Category{
	CategoryFurniture, CategoryHomeDecor, CategoryBedding, CategoryLighting,
	CategoryRugs, CategoryKitchen, CategoryOutdoor, CategoryStorage,
	CategoryOffice, CategoryKids, CategoryOther,
}

// ParseCategory lowercases s and maps it onto a Category. An empty string
// stays unset; anything else unknown becomes CategoryOther.
func ParseCategory(s string) Category {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	for _, c := range categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryOther
}

// MaxPrice is the hard ceiling for Price and OriginalPrice.
const MaxPrice = 100000.0

// Product is one item found on a competitor's new-arrivals page.
type Product struct {
	Competitor           string     `json:"competitor"`
	ProductName          string     `json:"product_name"`
	ProductURL           string     `json:"product_url"`
	Brand                string     `json:"brand,omitempty"`
	Category             Category   `json:"category,omitempty"`
	Price                *float64   `json:"price,omitempty"`
	OriginalPrice        *float64   `json:"original_price,omitempty"`
	LaunchDate           *time.Time `json:"launch_date,omitempty"`
	ImageURL             string     `json:"image_url,omitempty"`
	Description          string     `json:"description,omitempty"`
	Availability         string     `json:"availability,omitempty"`
	Rating               *float64   `json:"rating,omitempty"`
	ReviewCount          *int       `json:"review_count,omitempty"`
	SKU                  string     `json:"sku,omitempty"`
	CollectedAt          time.Time  `json:"collected_at"`
	ExtractionConfidence *float64   `json:"extraction_confidence,omitempty"`
	SourceHTMLSnippet    string     `json:"source_html_snippet,omitempty"`
}

// NewProduct normalizes and validates p. Either every constraint holds and
// the normalized product is returned, or a *ValidationError lists them all.
func NewProduct(p Product) (Product, error) {
	v := newViolations("product")
	p = p.normalized()
	p.check(v)
	if err := v.err(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (p Product) normalized() Product {
	p.Competitor = strings.TrimSpace(p.Competitor)
	p.ProductName = collapse(p.ProductName)
	p.ProductURL = strings.TrimSpace(p.ProductURL)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.Category = ParseCategory(string(p.Category))
	if p.CollectedAt.IsZero() {
		p.CollectedAt = time.Now().UTC()
	}
	return p
}

func (p Product) check(v *violations) {
	if v.required("competitor", p.Competitor) {
		v.length("competitor", p.Competitor, 1, 100)
	}
	if v.required("product_name", p.ProductName) {
		v.length("product_name", p.ProductName, 2, 500)
	}
	v.url("product_url", p.ProductURL)
	v.maxLength("brand", p.Brand, 100)
	checkPrice(v, "price", p.Price)
	checkPrice(v, "original_price", p.OriginalPrice)
	v.optionalURL("image_url", p.ImageURL)
	v.maxLength("description", p.Description, 2000)
	v.maxLength("availability", p.Availability, 50)
	v.floatRange("rating", p.Rating, 0, 5)
	if p.ReviewCount != nil && *p.ReviewCount < 0 {
		v.add("review_count", "must not be negative")
	}
	v.maxLength("sku", p.SKU, 100)
	v.floatRange("extraction_confidence", p.ExtractionConfidence, 0, 1)
	v.maxLength("source_html_snippet", p.SourceHTMLSnippet, 5000)
}

func checkPrice(v *violations, field string, price *float64) {
	if price == nil {
		return
	}
	switch f := *price; {
	case math.IsNaN(f) || math.IsInf(f, 0):
		v.add(field, "must be a finite number")
	case f < 0:
		v.add(field, "price cannot be negative")
	case f > MaxPrice:
		v.add(field, "price seems unreasonably high")
	case !hasAtMostTwoDecimals(f):
		v.add(field, "must have at most 2 decimal places")
	}
}

// IsValidForExport is the weaker predicate gating CSV output.
func (p Product) IsValidForExport() bool {
	return p.Competitor != "" &&
		p.ProductName != "" &&
		p.ProductURL != "" &&
		len([]rune(strings.TrimSpace(p.ProductName))) >= 2
}

// UniqueKey identifies a product for caller-side deduplication.
func (p Product) UniqueKey() string {
	return p.Competitor + ":" + p.ProductURL
}

// ProductColumns is the CSV column order for products.
var ProductColumns = []string{
	"competitor", "product_name", "brand", "category", "price", "original_price",
	"launch_date", "product_url", "image_url", "description", "availability",
	"rating", "review_count", "sku", "collected_at",
}

// CSVRecord flattens p into string cells keyed by ProductColumns.
func (p Product) CSVRecord() map[string]string {
	return map[string]string{
		"competitor":     p.Competitor,
		"product_name":   p.ProductName,
		"brand":          p.Brand,
		"category":       string(p.Category),
		"price":          formatFloat(p.Price),
		"original_price": formatFloat(p.OriginalPrice),
		"launch_date":    formatDate(p.LaunchDate),
		"product_url":    p.ProductURL,
		"image_url":      p.ImageURL,
		"description":    p.Description,
		"availability":   p.Availability,
		"rating":         formatFloat(p.Rating),
		"review_count":   formatInt(p.ReviewCount),
		"sku":            p.SKU,
		"collected_at":   p.CollectedAt.Format(TimestampLayout),
	}
}

// Layouts used by CSV projections.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
