package analytics

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// isoMillis matches the JSON timestamp shape used by the chart layer.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Layouts tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
	"2006/1/2",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// parseNumber accepts finite decimal numbers with optional surrounding
// whitespace.
func parseNumber(v string) (float64, bool) {
	t := strings.TrimSpace(v)
	if t == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseDate(v string) (time.Time, bool) {
	t := strings.TrimSpace(v)
	if t == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.ParseInLocation(layout, t, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func formatDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
