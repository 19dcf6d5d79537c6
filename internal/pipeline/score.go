package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/lukman83/compintel/internal/models"
	"github.com/lukman83/compintel/internal/platform"
	"github.com/lukman83/compintel/internal/validate"
)

// ScoreReport is the verdict on one raw record: its quality score, the
// soft issues behind it and whether strict construction accepts it.
type ScoreReport struct {
	Score  float64             `json:"score"`
	Issues []string            `json:"issues,omitempty"`
	Valid  bool                `json:"valid"`
	Errors []models.FieldError `json:"errors,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// ParseKind maps "product" or "promotion" to a record kind.
func ParseKind(s string) (validate.RecordKind, error) {
	switch s {
	case "product", "products":
		return validate.KindProduct, nil
	case "promotion", "promotions", "promo":
		return validate.KindPromotion, nil
	}
	return "", fmt.Errorf("unknown record kind %q (want product or promotion)", s)
}

// ScoreRecord runs raw through the same checks the pipeline applies
// before accepting a record.
func ScoreRecord(raw platform.Raw, kind validate.RecordKind, now time.Time) ScoreReport {
	rep := ScoreReport{Score: validate.QualityScore(raw, kind)}

	var err error
	switch kind {
	case validate.KindPromotion:
		rep.Issues = validate.PromotionIssues(raw)
		_, err = models.ParsePromotion(raw, now)
	default:
		rep.Issues = validate.ProductIssues(raw)
		_, err = models.ParseProduct(raw, now)
	}

	rep.Valid = err == nil
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			rep.Errors = verr.Errors
		}
		rep.Error = err.Error()
	}
	return rep
}
