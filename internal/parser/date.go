package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var monthsIcelandic = map[string]int{
	"janúar":    1,
	"febrúar":   2,
	"mars":      3,
	"apríl":     4,
	"maí":       5,
	"júní":      6,
	"júlí":      7,
	"ágúst":     8,
	"september": 9,
	"október":   10,
	"nóvember":  11,
	"desember":  12,
}

var (
	// "Gildir frá 24. október 2025" / "tekur gildi 1. maí 2025"
	announcedDatePattern = regexp.MustCompile(`(?:gildir|tekur\s+gildi)\s+(?:frá\s+)?(\d{1,2})\.\s*([\p{L}]+)\s+(\d{4})`)
	// Any "24. október 2025" occurrence; used when no announcement phrasing exists.
	bareDatePattern = regexp.MustCompile(`(\d{1,2})\.\s*([\p{L}]+)\s+(\d{4})`)
)

// EffectiveDate extracts the date the published rates apply from, as stated
// by the source document. Best-effort: when the text is indeterminate the
// fallback (normally the date of fetch) is returned.
func EffectiveDate(text string, fallback civil.Date) civil.Date {
	lowered := strings.ToLower(text)

	for _, pattern := range []*regexp.Regexp{announcedDatePattern, bareDatePattern} {
		if date, ok := matchIcelandicDate(pattern, lowered); ok {
			return date
		}
	}
	return fallback
}

func matchIcelandicDate(pattern *regexp.Regexp, text string) (civil.Date, bool) {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return civil.Date{}, false
	}

	day, err := strconv.Atoi(match[1])
	if err != nil {
		return civil.Date{}, false
	}
	month, ok := monthsIcelandic[match[2]]
	if !ok {
		return civil.Date{}, false
	}
	year, err := strconv.Atoi(match[3])
	if err != nil {
		return civil.Date{}, false
	}

	date := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !date.IsValid() {
		return civil.Date{}, false
	}
	return date, true
}
