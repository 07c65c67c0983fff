package geocoding

import (
	"strings"
	"unicode"
)

// shortenedVariants returns progressively shorter forms of an address to
// retry when the full text found nothing: the first comma segment, then
// the bare city name taken from the tail (or head) of the string.
func shortenedVariants(text string) []string {
	text = strings.TrimSpace(text)
	var variants []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || v == text {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	segments := splitSegments(text)
	if len(segments) > 1 {
		add(segments[0])
	}
	add(cityName(segments))
	return variants
}

func splitSegments(text string) []string {
	raw := strings.Split(text, ",")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// cityName picks the last segment that still has letters once postal codes
// and house numbers are removed; a single-segment address uses its head.
func cityName(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	if len(segments) == 1 {
		return stripDigits(segments[0])
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if isCountry(segments[i]) {
			continue
		}
		if name := stripDigits(segments[i]); name != "" {
			return name
		}
	}
	return stripDigits(segments[0])
}

func stripDigits(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(cleaned), " ")
}

var countryNames = map[string]struct{}{
	"česko":           {},
	"česká republika": {},
	"czechia":         {},
	"czech republic":  {},
	"cz":              {},
}

func isCountry(s string) bool {
	_, ok := countryNames[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
