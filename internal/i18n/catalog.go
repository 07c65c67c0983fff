// Package i18n holds the localized strings for SMS texts and error messages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	SMSCustomer   = "sms.customer"
	SMSPickupTime = "sms.pickupTime"
	SMSASAP       = "sms.asap"
	SMSNote       = "sms.note"
	SMSNavigation = "sms.navigation"

	ErrMissingAPIKey              = "error.missingApiKey"
	ErrNoVehiclesInService        = "error.noVehiclesInService"
	ErrInsufficientCapacity       = "error.insufficientCapacity"
	ErrMainRouteCalculationFailed = "error.mainRouteCalculationFailed"
	ErrGeocodingFailed            = "error.geocodingFailed"
)

// The first tag is the fallback for unsupported languages.
var supported = []language.Tag{language.Czech, language.English}

var matcher = language.NewMatcher(supported)

var entries = map[language.Tag]map[string]string{
	language.Czech: {
		SMSCustomer:   "Zákazník: %s, tel.: %s, osob: %d",
		SMSPickupTime: "Vyzvednutí: %s",
		SMSASAP:       "ihned",
		SMSNote:       "Poznámka: %s",
		SMSNavigation: "Navigace: %s",

		ErrMissingAPIKey:              "Chybí API klíč pro asistovaný režim",
		ErrNoVehiclesInService:        "Žádné vozidlo není v provozu",
		ErrInsufficientCapacity:       "Žádné vozidlo nemá dostatečnou kapacitu",
		ErrMainRouteCalculationFailed: "Trasu se nepodařilo vypočítat",
		ErrGeocodingFailed:            "Adresu se nepodařilo najít",
	},
	language.English: {
		SMSCustomer:   "Customer: %s, phone: %s, passengers: %d",
		SMSPickupTime: "Pickup: %s",
		SMSASAP:       "ASAP",
		SMSNote:       "Note: %s",
		SMSNavigation: "Navigation: %s",

		ErrMissingAPIKey:              "API key for assisted mode is missing",
		ErrNoVehiclesInService:        "No vehicles in service",
		ErrInsufficientCapacity:       "No vehicle has enough capacity",
		ErrMainRouteCalculationFailed: "Route calculation failed",
		ErrGeocodingFailed:            "Address could not be found",
	},
}

func init() {
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}

// Tag returns the supported language closest to lang.
func Tag(lang string) language.Tag {
	_, idx, _ := matcher.Match(language.Make(lang))
	return supported[idx]
}

// Printer returns a message printer for lang.
func Printer(lang string) *message.Printer {
	return message.NewPrinter(Tag(lang))
}
