package validate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RecordKind selects the checklist used by QualityScore.
type RecordKind string

const (
	KindProduct   RecordKind = "product"
	KindPromotion RecordKind = "promotion"
)

// Checklist sizes used as the score denominator.
const (
	productChecks   = 8
	promotionChecks = 7
)

// ProductIssues runs the product data-quality checklist against an untyped
// record and returns one message per failed check.
func ProductIssues(data map[string]any) []string {
	var issues []string

	for _, field := range []string{"competitor", "product_name", "product_url"} {
		if !present(data[field]) {
			issues = append(issues, "Missing required field: "+field)
		}
	}

	if v := data["product_url"]; present(v) && !IsValidURL(asString(v)) {
		issues = append(issues, "Invalid product URL")
	}

	if v := data["price"]; present(v) {
		price, ok := asFloat(v)
		switch {
		case !ok:
			issues = append(issues, "Invalid price format")
		case !IsReasonablePrice(price):
			issues = append(issues, "Price outside reasonable range")
		}
	}

	if v := data["product_name"]; present(v) && !IsMeaningfulText(asString(v), DefaultMinTextLength) {
		issues = append(issues, "Product name is not meaningful")
	}

	return issues
}

// PromotionIssues is the promotion counterpart of ProductIssues.
func PromotionIssues(data map[string]any) []string {
	var issues []string

	for _, field := range []string{"competitor", "promo_title", "promo_url", "promo_type"} {
		if !present(data[field]) {
			issues = append(issues, "Missing required field: "+field)
		}
	}

	if v := data["promo_url"]; present(v) && !IsValidURL(asString(v)) {
		issues = append(issues, "Invalid promotion URL")
	}

	if v := data["discount_value"]; present(v) {
		discount, ok := asFloat(v)
		promoType := strings.ToLower(asString(data["promo_type"]))
		switch {
		case !ok:
			issues = append(issues, "Invalid discount value format")
		case strings.Contains(promoType, "percentage") && discount > 100:
			issues = append(issues, "Percentage discount cannot exceed 100%")
		case discount < 0:
			issues = append(issues, "Discount value cannot be negative")
		case discount > 10000:
			issues = append(issues, "Discount value seems unreasonably high")
		}
	}

	if v := data["promo_title"]; present(v) && !IsMeaningfulText(asString(v), DefaultMinTextLength) {
		issues = append(issues, "Promotion title is not meaningful")
	}

	return issues
}

// QualityScore maps the number of failed checks onto [0, 1]. Unknown kinds
// score 0.
func QualityScore(data map[string]any, kind RecordKind) float64 {
	var issues []string
	var total int
	switch kind {
	case KindProduct:
		issues, total = ProductIssues(data), productChecks
	case KindPromotion:
		issues, total = PromotionIssues(data), promotionChecks
	default:
		return 0
	}
	return max(0, float64(total-len(issues))/float64(total))
}

// present mirrors the loose truthiness LLM output is judged by: nil, empty
// strings, zero numbers, false and empty collections all count as absent.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
