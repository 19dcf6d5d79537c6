package validate

import (
	"strings"
	"time"
)

// dateLayouts are attempted in priority order. US month-first wins over
// day-first for ambiguous slash dates.
var dateLayouts = []string{
	"2006-1-2",          // 2024-01-15
	"1/2/2006",          // 01/15/2024
	"2/1/2006",          // 15/01/2024
	"January 2, 2006",   // January 15, 2024
	"Jan 2, 2006",       // Jan 15, 2024
	"2 January 2006",    // 15 January 2024
	"2 Jan 2006",        // 15 Jan 2024
	"2006-1-2 15:04:05", // 2024-01-15 10:30:45
}

// ParseDate parses s with the first matching layout. The result is in UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
