package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultVanPassengerThreshold is the passenger count above which van
// pricing applies when a tariff does not configure its own threshold.
const DefaultVanPassengerThreshold = 4

// Tariff holds the pricing configuration of the dispatch office.
// Flat rates take precedence over time windows, which take precedence
// over the default per-km rate.
type Tariff struct {
	StartingFee           float64
	PricePerKmCar         float64
	PricePerKmVan         float64
	FlatRates             []FlatRateRule
	TimeRules             []TimeWindowRule
	VanPassengerThreshold int // 0 means DefaultVanPassengerThreshold
}

// VanThreshold returns the effective van pricing threshold.
func (t Tariff) VanThreshold() int {
	if t.VanPassengerThreshold > 0 {
		return t.VanPassengerThreshold
	}
	return DefaultVanPassengerThreshold
}

// FlatRateRule gives a fixed price when both pickup and destination
// mention the rule's keyword.
type FlatRateRule struct {
	Name     string
	Keyword  string // Falls back to Name when empty
	PriceCar float64
	PriceVan float64
}

// zonePrefixes introduce a locality in zone names ("V rámci Mikulova").
var zonePrefixes = []string{"v rámci ", "v ramci "}

// MatchKeyword returns the keyword used for address matching. Without an
// explicit Keyword it is derived from Name: the zone prefix is dropped and
// a trailing case ending is cut, so "V rámci Mikulova" yields "Mikulov".
func (r FlatRateRule) MatchKeyword() string {
	if kw := strings.TrimSpace(r.Keyword); kw != "" {
		return kw
	}
	return localityStem(r.Name)
}

func localityStem(name string) string {
	s := strings.TrimSpace(name)
	for _, prefix := range zonePrefixes {
		if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	last, size := utf8.DecodeLastRuneInString(s)
	if utf8.RuneCountInString(s) > 3 && strings.ContainsRune("aeiouyěáéíýů", last) {
		s = s[:len(s)-size]
	}
	return s
}

// TimeWindowRule overrides the default rates between Start and End
// (clock times "HH:MM"). Start after End wraps through midnight.
type TimeWindowRule struct {
	Name          string
	Start         string
	End           string
	StartingFee   float64
	PricePerKmCar float64
	PricePerKmVan float64
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}
