package models

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/lukman83/compintel/internal/validate"
)

// FieldError is one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError lists every constraint a candidate record violated.
// Constructors return it instead of a partially valid value.
type ValidationError struct {
	Record string       `json:"record"`
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%d validation error(s) for %s: %s", len(e.Errors), e.Record, strings.Join(msgs, "; "))
}

// Has reports whether field has at least one violation.
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

type violations struct {
	record string
	list   []FieldError
}

func newViolations(record string) *violations {
	return &violations{record: record}
}

func (v *violations) add(field, format string, args ...any) {
	v.list = append(v.list, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *violations) err() error {
	if len(v.list) == 0 {
		return nil
	}
	return &ValidationError{Record: v.record, Errors: v.list}
}

func (v *violations) required(field, s string) bool {
	if s == "" {
		v.add(field, "field required")
		return false
	}
	return true
}

func (v *violations) length(field, s string, min, max int) {
	n := utf8.RuneCountInString(s)
	if n < min {
		v.add(field, "must be at least %d characters", min)
	}
	if n > max {
		v.add(field, "must be at most %d characters", max)
	}
}

func (v *violations) maxLength(field, s string, max int) {
	if utf8.RuneCountInString(s) > max {
		v.add(field, "must be at most %d characters", max)
	}
}

func (v *violations) url(field, s string) {
	if !validate.IsValidURL(s) {
		v.add(field, "invalid or missing URL")
	}
}

func (v *violations) optionalURL(field, s string) {
	if s != "" {
		v.url(field, s)
	}
}

func (v *violations) floatRange(field string, f *float64, min, max float64) {
	if f == nil {
		return
	}
	if math.IsNaN(*f) || *f < min || *f > max {
		v.add(field, "must be between %g and %g", min, max)
	}
}

func (v *violations) intRange(field string, n *int, min, max int) {
	if n == nil {
		return
	}
	if *n < min || *n > max {
		v.add(field, "must be between %d and %d", min, max)
	}
}

// collapse joins whitespace-separated words with single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func hasAtMostTwoDecimals(f float64) bool {
	scaled := f * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}
