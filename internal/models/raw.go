package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lukman83/compintel/internal/validate"
)

// Raw is an untyped record as decoded from extractor output. Numbers may
// arrive as float64, int or json.Number, and any field may be a string.
type Raw map[string]any

// ParseProduct coerces r into a Product and validates it. Coercion and
// constraint failures are reported together in one *ValidationError.
// now stamps CollectedAt when r carries none.
func ParseProduct(r Raw, now time.Time) (Product, error) {
	v := newViolations("product")
	c := coercer{raw: r, v: v}

	p := Product{
		Competitor:           c.str("competitor"),
		ProductName:          c.str("product_name"),
		ProductURL:           c.str("product_url"),
		Brand:                c.str("brand"),
		Category:             Category(c.str("category")),
		Price:                c.price("price"),
		OriginalPrice:        c.price("original_price"),
		LaunchDate:           c.date("launch_date"),
		ImageURL:             c.str("image_url"),
		Description:          c.str("description"),
		Availability:         c.str("availability"),
		Rating:               c.float("rating"),
		ReviewCount:          c.int("review_count"),
		SKU:                  c.str("sku"),
		CollectedAt:          c.timestamp("collected_at", now),
		ExtractionConfidence: c.float("extraction_confidence"),
		SourceHTMLSnippet:    c.str("source_html_snippet"),
	}
	p = p.normalized()
	p.check(v)
	if err := v.err(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// ParsePromotion is ParseProduct for promotions.
func ParsePromotion(r Raw, now time.Time) (Promotion, error) {
	v := newViolations("promotion")
	c := coercer{raw: r, v: v}

	p := Promotion{
		Competitor:           c.str("competitor"),
		PromoTitle:           c.str("promo_title"),
		PromoURL:             c.str("promo_url"),
		PromoType:            PromotionType(c.str("promo_type")),
		PromoCode:            c.str("promo_code"),
		DiscountValue:        c.price("discount_value"),
		MinimumPurchase:      c.price("minimum_purchase"),
		StartDate:            c.date("start_date"),
		EndDate:              c.date("end_date"),
		Status:               PromotionStatus(c.str("status")),
		ApplicableProducts:   c.str("applicable_products"),
		Exclusions:           c.str("exclusions"),
		ImageURL:             c.str("image_url"),
		Description:          c.str("description"),
		TermsAndConditions:   c.str("terms_and_conditions"),
		Priority:             c.int("priority"),
		CollectedAt:          c.timestamp("collected_at", now),
		ExtractionConfidence: c.float("extraction_confidence"),
		SourceHTMLSnippet:    c.str("source_html_snippet"),
	}
	p = p.normalized()
	p.check(v)
	if err := v.err(); err != nil {
		return Promotion{}, err
	}
	return p, nil
}

type coercer struct {
	raw Raw
	v   *violations
}

func (c coercer) str(key string) string {
	switch val := c.raw[key].(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		c.v.add(key, "must be a string")
		return ""
	}
}

func (c coercer) number(key string, text func(string) (float64, bool)) *float64 {
	var f float64
	switch val := c.raw[key].(type) {
	case nil:
		return nil
	case float64:
		f = val
	case int:
		f = float64(val)
	case json.Number:
		n, err := val.Float64()
		if err != nil {
			c.v.add(key, "must be a number")
			return nil
		}
		f = n
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		n, ok := text(s)
		if !ok {
			c.v.add(key, "must be a number")
			return nil
		}
		f = n
	default:
		c.v.add(key, "must be a number")
		return nil
	}
	return &f
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func (c coercer) float(key string) *float64 {
	return c.number(key, parseFloat)
}

// price also accepts currency text such as "$1,299".
func (c coercer) price(key string) *float64 {
	return c.number(key, func(s string) (float64, bool) {
		if f, ok := parseFloat(strings.ReplaceAll(s, ",", "")); ok {
			return f, true
		}
		return validate.ExtractPrice(s)
	})
}

func (c coercer) int(key string) *int {
	f := c.float(key)
	if f == nil {
		return nil
	}
	if *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		c.v.add(key, "must be a whole number")
		return nil
	}
	n := int(*f)
	return &n
}

func (c coercer) date(key string) *time.Time {
	switch val := c.raw[key].(type) {
	case nil:
		return nil
	case time.Time:
		return &val
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return &t
		}
		if t, ok := validate.ParseDate(s); ok {
			return &t
		}
		c.v.add(key, "unrecognized date %q", s)
		return nil
	default:
		c.v.add(key, "must be a date")
		return nil
	}
}

func (c coercer) timestamp(key string, fallback time.Time) time.Time {
	if t := c.date(key); t != nil {
		return t.UTC()
	}
	return fallback.UTC()
}
