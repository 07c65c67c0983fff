package service

import (
	"math"
	"strings"
	"time"

	"dispatch/internal/domain"
)

// PriceRequest holds the ride facts a price depends on.
type PriceRequest struct {
	Pickup      string
	Destination string
	DistanceKm  float64
	VehicleType domain.VehicleType
	Passengers  int
}

// TariffPricer resolves prices from a tariff: a matching flat-rate zone
// first, then a matching time window, then the default per-km rate.
type TariffPricer struct {
	now          func() time.Time
	loc          *time.Location
	vanThreshold int
}

// PricerConfig holds the office-wide pricing defaults.
type PricerConfig struct {
	Location     *time.Location // Zone of time-window clock times; nil means time.Local
	VanThreshold int            // Used when a tariff sets none; 0 means domain.DefaultVanPassengerThreshold
}

// NewTariffPricer creates a TariffPricer. A nil clock uses time.Now.
func NewTariffPricer(now func() time.Time, cfg PricerConfig) *TariffPricer {
	if now == nil {
		now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.VanThreshold <= 0 {
		cfg.VanThreshold = domain.DefaultVanPassengerThreshold
	}
	return &TariffPricer{now: now, loc: cfg.Location, vanThreshold: cfg.VanThreshold}
}

// Price returns the rounded price of a ride. It never fails.
func (p *TariffPricer) Price(req PriceRequest, tariff domain.Tariff) int {
	threshold := p.vanThreshold
	if tariff.VanPassengerThreshold > 0 {
		threshold = tariff.VanPassengerThreshold
	}
	van := req.VehicleType == domain.VehicleTypeVan || req.Passengers > threshold

	if rule, ok := matchFlatRate(tariff.FlatRates, req.Pickup, req.Destination); ok {
		if van {
			return roundPrice(rule.PriceVan)
		}
		return roundPrice(rule.PriceCar)
	}

	fee, carRate, vanRate := tariff.StartingFee, tariff.PricePerKmCar, tariff.PricePerKmVan
	if rule, ok := matchTimeWindow(tariff.TimeRules, p.now().In(p.loc)); ok {
		fee, carRate, vanRate = rule.StartingFee, rule.PricePerKmCar, rule.PricePerKmVan
	}

	rate := carRate
	if van {
		rate = vanRate
	}
	return roundPrice(fee + req.DistanceKm*rate)
}

func roundPrice(v float64) int {
	return int(math.Round(v))
}

// matchFlatRate returns the first rule whose keyword occurs in both
// addresses, ignoring case.
func matchFlatRate(rules []domain.FlatRateRule, pickup, destination string) (domain.FlatRateRule, bool) {
	from := strings.ToLower(domain.DisplayAddress(pickup))
	to := strings.ToLower(domain.DisplayAddress(destination))
	for _, rule := range rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.MatchKeyword()))
		if keyword == "" {
			continue
		}
		if strings.Contains(from, keyword) && strings.Contains(to, keyword) {
			return rule, true
		}
	}
	return domain.FlatRateRule{}, false
}

// matchTimeWindow returns the first rule whose [start, end] window holds
// the clock time of now. Rules with unparseable times are skipped.
func matchTimeWindow(rules []domain.TimeWindowRule, now time.Time) (domain.TimeWindowRule, bool) {
	minutes := now.Hour()*60 + now.Minute()
	for _, rule := range rules {
		start, err := domain.ParseClock(rule.Start)
		if err != nil {
			continue
		}
		end, err := domain.ParseClock(rule.End)
		if err != nil {
			continue
		}
		if inWindow(minutes, start, end) {
			return rule, true
		}
	}
	return domain.TimeWindowRule{}, false
}

func inWindow(minutes, start, end int) bool {
	if start <= end {
		return minutes >= start && minutes <= end
	}
	// Overnight window.
	return minutes >= start || minutes <= end
}
