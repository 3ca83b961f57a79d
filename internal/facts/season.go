package facts

import (
	"strings"
	"time"
)

// Seasons.
const (
	Winter = "Winter"
	Spring = "Spring"
	Summer = "Summer"
	Fall   = "Fall"
)

// SeasonOf maps a month to its meteorological season (northern hemisphere).
func SeasonOf(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Fall
	}
}

// canonicalSeason returns the canonical spelling of s, or "" when s is not
// a season name.
func canonicalSeason(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "winter":
		return Winter
	case "spring":
		return Spring
	case "summer":
		return Summer
	case "fall", "autumn":
		return Fall
	}
	return ""
}

// timestampLayouts are tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// DateKeyLayout formats Sale.DateKey.
const DateKeyLayout = "2006-01-02"

// ParseTimestamp parses the timestamp spellings seen across sources.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
