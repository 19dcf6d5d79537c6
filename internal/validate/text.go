package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinTextLength is the shortest text IsMeaningfulText accepts by default.
const DefaultMinTextLength = 2

// CleanText collapses whitespace runs into single spaces, trims the result
// and drops C0/C1 control characters.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if r <= 0x1f || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, s)
}

// IsMeaningfulText reports whether the cleaned text is at least minLength
// characters long and contains an ASCII letter or digit.
func IsMeaningfulText(s string, minLength int) bool {
	if s == "" {
		return false
	}
	cleaned := CleanText(s)
	if utf8.RuneCountInString(cleaned) < minLength {
		return false
	}
	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return true
		}
	}
	return false
}

// HTMLToText returns the cleaned visible text of an HTML document with
// script and style elements removed. It returns "" if the document cannot
// be parsed.
func HTMLToText(html string) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	return CleanText(doc.Text())
}
