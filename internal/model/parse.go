package model

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var amountReplacer = strings.NewReplacer(",", "", "원", "", "₩", "", " ", "")

// ParseAmount converts a spreadsheet cell into whole won.
// Unparsable input yields 0, signs are dropped, and fractions are truncated.
func ParseAmount(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return absInt(int64(n))
	case int64:
		return absInt(n)
	case float64:
		return floatAmount(n)
	case string:
		return parseAmountString(n)
	default:
		return 0
	}
}

func parseAmountString(s string) int64 {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return absInt(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return floatAmount(f)
}

// floatAmount truncates f to whole won. Magnitudes that do not fit in int64 yield 0.
func floatAmount(f float64) int64 {
	f = math.Abs(math.Trunc(f))
	if math.IsNaN(f) || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// absInt saturates at math.MaxInt64 so the result is never negative.
func absInt(i int64) int64 {
	switch {
	case i == math.MinInt64:
		return math.MaxInt64
	case i < 0:
		return -i
	default:
		return i
	}
}

var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"20060102",
}

// ParseDate accepts the date layouts card issuers export, with or without a
// trailing time. It returns nil when nothing matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}
