package temporal

import (
	"regexp"
	"strings"
	"time"

	"github.com/styx8114/threatlens/internal/model"
)

// datePattern recognizes one absolute date shape and knows how precise a
// match of that shape is.
type datePattern struct {
	re        *regexp.Regexp
	layouts   []string
	precision model.Precision
}

var datePatterns = []datePattern{
	// 2023-06-15
	{
		re:        regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
		layouts:   []string{"2006-01-02"},
		precision: model.PrecisionDay,
	},
	// June 15, 2023 / Jun 15, 2023 / June 15 2023
	{
		re:        regexp.MustCompile(`(?i)\b((?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4})\b`),
		layouts:   []string{"January 2, 2006", "January 2 2006", "Jan 2, 2006", "Jan 2 2006"},
		precision: model.PrecisionDay,
	},
	// 15 June 2023 / 15 Jun 2023
	{
		re:        regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{4})\b`),
		layouts:   []string{"2 January 2006", "2 Jan 2006"},
		precision: model.PrecisionDay,
	},
	// 6/15/2023 and 15/6/2023; month-first is tried before day-first
	{
		re:        regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`),
		layouts:   []string{"1/2/2006", "2/1/2006"},
		precision: model.PrecisionDay,
	},
	// June 2023
	{
		re:        regexp.MustCompile(`(?i)\b((?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{4})\b`),
		layouts:   []string{"January 2006", "Jan 2006"},
		precision: model.PrecisionMonth,
	},
	// 2023-06
	{
		re:        regexp.MustCompile(`\b(\d{4}-\d{2})\b`),
		layouts:   []string{"2006-01"},
		precision: model.PrecisionMonth,
	},
	// mid-2023, early 2023, in 2023
	{
		re:        regexp.MustCompile(`(?i)\b(?:in|during|since|early|mid|late|mid-|early-|late-)[\s-]?(\d{4})\b`),
		layouts:   []string{"2006"},
		precision: model.PrecisionYear,
	},
}

// parsedDate is one absolute date found in a unit's text.
type parsedDate struct {
	resolved  time.Time
	precision model.Precision
	surface   string
	offset    int
}

// extractDates scans a unit's text for absolute dates. Later, less precise
// patterns skip regions already claimed so "June 15, 2023" is not reparsed
// as the month-only "June 2023".
func extractDates(text string) []parsedDate {
	var out []parsedDate
	claimed := make([]bool, len(text))

	for _, p := range datePatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			if start < 0 {
				continue
			}
			if overlapsClaimed(claimed, start, end) {
				continue
			}

			surface := text[start:end]
			t, ok := parseSurface(surface, p.layouts)
			if !ok {
				continue
			}
			for i := start; i < end; i++ {
				claimed[i] = true
			}
			out = append(out, parsedDate{
				resolved:  t,
				precision: p.precision,
				surface:   surface,
				offset:    start,
			})
		}
	}
	return out
}

func overlapsClaimed(claimed []bool, start, end int) bool {
	for i := start; i < end && i < len(claimed); i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

func parseSurface(surface string, layouts []string) (time.Time, bool) {
	s := cleanSurface(surface)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// cleanSurface strips ordinal suffixes and trailing month-abbreviation dots
// so the time layouts apply.
func cleanSurface(s string) string {
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}

var ordinalSuffix = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)\b`)
