package service

import (
	"strings"
	"time"

	"golang.org/x/text/message"

	"dispatch/internal/domain"
	"dispatch/internal/i18n"
)

const routeSeparator = " → "

// pickupLayouts are the timestamp forms accepted as pickup times.
var pickupLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// BuildSMS renders the driver-facing SMS. Lines, in order: route, customer,
// pickup time, optional note, optional navigation link. Pickup times are
// shown on the wall clock of loc.
func BuildSMS(ride domain.RideRequest, navigationURL, language string, loc *time.Location) string {
	p := i18n.Printer(language)

	stops := make([]string, len(ride.Stops))
	for i, s := range ride.Stops {
		stops[i] = domain.DisplayAddress(s)
	}

	lines := []string{
		strings.Join(stops, routeSeparator),
		p.Sprintf(i18n.SMSCustomer, ride.CustomerName, ride.CustomerPhone, ride.Passengers),
		p.Sprintf(i18n.SMSPickupTime, FormatPickupTime(ride.PickupTime, p, loc)),
	}
	if note := strings.TrimSpace(ride.Notes); note != "" {
		lines = append(lines, p.Sprintf(i18n.SMSNote, note))
	}
	if navigationURL != "" {
		lines = append(lines, p.Sprintf(i18n.SMSNavigation, navigationURL))
	}
	return strings.Join(lines, "\n")
}

// FormatPickupTime normalizes a stored pickup time for display. ASAP
// markers, including catalog keys saved as data, render as the localized
// ASAP word; timestamps render as HH:MM in loc; anything else is kept
// verbatim. Timestamps without an offset are read as loc wall-clock time.
// A nil loc means time.Local.
func FormatPickupTime(value string, p *message.Printer, loc *time.Location) string {
	v := strings.TrimSpace(value)
	if isASAP(v) {
		return p.Sprintf(i18n.SMSASAP)
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range pickupLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t.In(loc).Format("15:04")
		}
	}
	return v
}

func isASAP(v string) bool {
	lower := strings.ToLower(v)
	switch lower {
	case "", domain.PickupTimeASAP, i18n.SMSASAP, "form.asap":
		return true
	}
	return strings.HasPrefix(lower, "time.")
}
