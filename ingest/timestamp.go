package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ParseFilenameTimestamp recovers a start timestamp embedded in a filename
// using a position code: each code character consumes one filename
// character, with 'x' skipping and the runs YYYY, mm, DD, HH, MM, SS
// capturing year, month, day, hour, minute and second digits.
//
// Example: "BOP_2018_0607_1620" with code "xxxxYYYYxmmDDxHHMM" parses to
// 2018-06-07 16:20.
func ParseFilenameTimestamp(filename, code string) (time.Time, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if len(base) < len(code) {
		return time.Time{}, fmt.Errorf("filename %q shorter than timestamp code %q", base, code)
	}

	year, month, day := 0, 1, 1
	hour, minute, second := 0, 0, 0
	seenYear := false

	i := 0
	for i < len(code) {
		var field *int
		var width int

		switch {
		case strings.HasPrefix(code[i:], "YYYY"):
			field, width = &year, 4
			seenYear = true
		case strings.HasPrefix(code[i:], "mm"):
			field, width = &month, 2
		case strings.HasPrefix(code[i:], "DD"):
			field, width = &day, 2
		case strings.HasPrefix(code[i:], "HH"):
			field, width = &hour, 2
		case strings.HasPrefix(code[i:], "MM"):
			field, width = &minute, 2
		case strings.HasPrefix(code[i:], "SS"):
			field, width = &second, 2
		case code[i] == 'x':
			i++
			continue
		default:
			return time.Time{}, fmt.Errorf("invalid timestamp code character %q in %q", code[i], code)
		}

		digits := base[i : i+width]
		v, err := strconv.Atoi(digits)
		if err != nil {
			return time.Time{}, fmt.Errorf("non-numeric %q at position %d of %q", digits, i, base)
		}
		*field = v
		i += width
	}

	if !seenYear {
		return time.Time{}, fmt.Errorf("timestamp code %q has no year field", code)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("out-of-range date fields in %q", base)
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// rowTimestampLayouts are tried in order when parsing an embedded
// first-column timestamp.
var rowTimestampLayouts = []string{
	"02-Jan-2006 15:04:05.000",
	"02-Jan-2006 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006 15:04:05",
}

// parseRowTimestamp attempts to parse a first-column value as an absolute
// timestamp.
func parseRowTimestamp(value string) (time.Time, bool) {
	for _, layout := range rowTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
