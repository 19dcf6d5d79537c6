package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

type PromotionType string

const (
	PromoPercentageOff  PromotionType = "percentage_off"
	PromoDollarOff      PromotionType = "dollar_off"
	PromoBuyOneGetOne   PromotionType = "buy_one_get_one"
	PromoFreeShipping   PromotionType = "free_shipping"
	PromoFlashSale      PromotionType = "flash_sale"
	PromoClearance      PromotionType = "clearance"
	PromoBundleDeal     PromotionType = "bundle_deal"
	PromoNewCustomer    PromotionType = "new_customer"
	PromoLoyaltyProgram PromotionType = "loyalty_program"
	PromoSeasonalSale   PromotionType = "seasonal_sale"
	PromoOther          PromotionType = "other"
)

var promotionTypes = []PromotionType{
	PromoPercentageOff, PromoDollarOff, PromoBuyOneGetOne, PromoFreeShipping,
	PromoFlashSale, PromoClearance, PromoBundleDeal, PromoNewCustomer,
	PromoLoyaltyProgram, PromoSeasonalSale, PromoOther,
}

func (t PromotionType) valid() bool {
	for _, known := range promotionTypes {
		if t == known {
			return true
		}
	}
	return false
}

type PromotionStatus string

const (
	StatusActive   PromotionStatus = "active"
	StatusUpcoming PromotionStatus = "upcoming"
	StatusExpired  PromotionStatus = "expired"
	StatusUnknown  PromotionStatus = "unknown"
)

func (s PromotionStatus) valid() bool {
	switch s {
	case StatusActive, StatusUpcoming, StatusExpired, StatusUnknown:
		return true
	}
	return false
}

// Discount ceilings by promotion type.
const (
	MaxPercentageDiscount = 100.0
	MaxDollarDiscount     = 10000.0
)

var promoCodePrefixes = []string{"CODE:", "PROMO:", "USE:", "COUPON:"}

// CleanPromoCode uppercases a code and strips a leading "CODE:", "PROMO:",
// "USE:" or "COUPON:" label picked up during extraction.
func CleanPromoCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, prefix := range promoCodePrefixes {
		if strings.HasPrefix(code, prefix) {
			code = strings.TrimSpace(code[len(prefix):])
		}
	}
	return code
}

// Promotion is one promotional offer found on a competitor's sale pages.
// StartDate and EndDate are calendar dates at UTC midnight.
type Promotion struct {
	Competitor           string          `json:"competitor"`
	PromoTitle           string          `json:"promo_title"`
	PromoURL             string          `json:"promo_url"`
	PromoType            PromotionType   `json:"promo_type"`
	PromoCode            string          `json:"promo_code,omitempty"`
	DiscountValue        *float64        `json:"discount_value,omitempty"`
	MinimumPurchase      *float64        `json:"minimum_purchase,omitempty"`
	StartDate            *time.Time      `json:"start_date,omitempty"`
	EndDate              *time.Time      `json:"end_date,omitempty"`
	Status               PromotionStatus `json:"status"`
	ApplicableProducts   string          `json:"applicable_products,omitempty"`
	Exclusions           string          `json:"exclusions,omitempty"`
	ImageURL             string          `json:"image_url,omitempty"`
	Description          string          `json:"description,omitempty"`
	TermsAndConditions   string          `json:"terms_and_conditions,omitempty"`
	Priority             *int            `json:"priority,omitempty"`
	CollectedAt          time.Time       `json:"collected_at"`
	ExtractionConfidence *float64        `json:"extraction_confidence,omitempty"`
	SourceHTMLSnippet    string          `json:"source_html_snippet,omitempty"`
}

// NewPromotion normalizes and validates p, all or nothing.
func NewPromotion(p Promotion) (Promotion, error) {
	v := newViolations("promotion")
	p = p.normalized()
	p.check(v)
	if err := v.err(); err != nil {
		return Promotion{}, err
	}
	return p, nil
}

func (p Promotion) normalized() Promotion {
	p.Competitor = strings.TrimSpace(p.Competitor)
	p.PromoTitle = collapse(p.PromoTitle)
	p.PromoURL = strings.TrimSpace(p.PromoURL)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	p.PromoType = PromotionType(strings.ToLower(strings.TrimSpace(string(p.PromoType))))
	p.PromoCode = CleanPromoCode(p.PromoCode)
	p.Status = PromotionStatus(strings.ToLower(strings.TrimSpace(string(p.Status))))
	if p.Status == "" {
		p.Status = StatusUnknown
	}
	p.StartDate = dateOnly(p.StartDate)
	p.EndDate = dateOnly(p.EndDate)
	if p.CollectedAt.IsZero() {
		p.CollectedAt = time.Now().UTC()
	}
	return p
}

func (p Promotion) check(v *violations) {
	if v.required("competitor", p.Competitor) {
		v.length("competitor", p.Competitor, 1, 100)
	}
	if v.required("promo_title", p.PromoTitle) {
		v.length("promo_title", p.PromoTitle, 2, 500)
	}
	v.url("promo_url", p.PromoURL)

	if v.required("promo_type", string(p.PromoType)) && !p.PromoType.valid() {
		v.add("promo_type", "unknown promotion type %q", p.PromoType)
	}
	v.maxLength("promo_code", p.PromoCode, 50)

	if d := p.DiscountValue; d != nil {
		switch {
		case math.IsNaN(*d) || math.IsInf(*d, 0):
			v.add("discount_value", "must be a finite number")
		case *d < 0:
			v.add("discount_value", "must not be negative")
		case p.PromoType == PromoPercentageOff && *d > MaxPercentageDiscount:
			v.add("discount_value", "percentage discount cannot exceed 100%%")
		case p.PromoType == PromoDollarOff && *d > MaxDollarDiscount:
			v.add("discount_value", "dollar discount seems unreasonably high")
		}
	}
	if m := p.MinimumPurchase; m != nil && (math.IsNaN(*m) || *m < 0) {
		v.add("minimum_purchase", "must not be negative")
	}

	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		v.add("end_date", "end date cannot be before start date")
	}
	if !p.Status.valid() {
		v.add("status", "unknown promotion status %q", p.Status)
	}

	v.maxLength("applicable_products", p.ApplicableProducts, 1000)
	v.maxLength("exclusions", p.Exclusions, 1000)
	v.optionalURL("image_url", p.ImageURL)
	v.maxLength("description", p.Description, 2000)
	v.maxLength("terms_and_conditions", p.TermsAndConditions, 3000)
	v.intRange("priority", p.Priority, 1, 5)
	v.floatRange("extraction_confidence", p.ExtractionConfidence, 0, 1)
	v.maxLength("source_html_snippet", p.SourceHTMLSnippet, 5000)
}

// IsCurrentlyActive reports whether the promotion runs today in local time.
func (p Promotion) IsCurrentlyActive() bool {
	return p.ActiveOn(time.Now())
}

// ActiveOn reports whether the promotion runs on the calendar day of t.
// Without dates, the extracted status decides; a missing bound is open.
func (p Promotion) ActiveOn(t time.Time) bool {
	if p.StartDate == nil && p.EndDate == nil {
		return p.Status == StatusActive
	}
	day := civilDate(t)
	if p.StartDate != nil && day.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && day.After(*p.EndDate) {
		return false
	}
	return true
}

// DaysRemaining returns the whole days left until EndDate, never negative,
// or nil when the promotion has no end date.
func (p Promotion) DaysRemaining() *int {
	return p.DaysRemainingOn(time.Now())
}

func (p Promotion) DaysRemainingOn(t time.Time) *int {
	if p.EndDate == nil {
		return nil
	}
	days := int(p.EndDate.Sub(civilDate(t)).Hours() / 24)
	days = max(0, days)
	return &days
}

func (p Promotion) IsValidForExport() bool {
	return p.Competitor != "" &&
		p.PromoTitle != "" &&
		p.PromoURL != "" &&
		p.PromoType != "" &&
		len([]rune(strings.TrimSpace(p.PromoTitle))) >= 2
}

// UniqueKey identifies a promotion for caller-side deduplication.
func (p Promotion) UniqueKey() string {
	return p.Competitor + ":" + p.PromoURL + ":" + strings.ToLower(p.PromoTitle)
}

// PromotionColumns is the CSV column order for promotions.
var PromotionColumns = []string{
	"competitor", "promo_title", "promo_type", "promo_code", "discount_value",
	"minimum_purchase", "start_date", "end_date", "status", "applicable_products",
	"exclusions", "promo_url", "image_url", "description", "terms_and_conditions",
	"priority", "collected_at", "days_remaining", "is_active",
}

func (p Promotion) CSVRecord() map[string]string {
	return p.csvRecordOn(time.Now())
}

func (p Promotion) csvRecordOn(t time.Time) map[string]string {
	return map[string]string{
		"competitor":           p.Competitor,
		"promo_title":          p.PromoTitle,
		"promo_type":           string(p.PromoType),
		"promo_code":           p.PromoCode,
		"discount_value":       formatFloat(p.DiscountValue),
		"minimum_purchase":     formatFloat(p.MinimumPurchase),
		"start_date":           formatDate(p.StartDate),
		"end_date":             formatDate(p.EndDate),
		"status":               string(p.Status),
		"applicable_products":  p.ApplicableProducts,
		"exclusions":           p.Exclusions,
		"promo_url":            p.PromoURL,
		"image_url":            p.ImageURL,
		"description":          p.Description,
		"terms_and_conditions": p.TermsAndConditions,
		"priority":             formatInt(p.Priority),
		"collected_at":         p.CollectedAt.Format(TimestampLayout),
		"days_remaining":       formatInt(p.DaysRemainingOn(t)),
		"is_active":            strconv.FormatBool(p.ActiveOn(t)),
	}
}

// civilDate drops the clock of t, keeping its calendar day in t's location,
// and returns that day at UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := civilDate(*t)
	return &d
}
