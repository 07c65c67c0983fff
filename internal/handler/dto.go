package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// EpochMillis is a timestamp carried as milliseconds since the Unix epoch.
// RFC 3339 strings are accepted on input.
type EpochMillis int64

// NewEpochMillis converts t, dropping sub-millisecond precision.
func NewEpochMillis(t time.Time) EpochMillis {
	return EpochMillis(t.UnixMilli())
}

// Time returns the timestamp in UTC.
func (m EpochMillis) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

// UnmarshalJSON accepts a JSON number of milliseconds or an RFC 3339 string.
func (m *EpochMillis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			*m = EpochMillis(ms)
			return nil
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("epoch millis: %w", err)
		}
		*m = NewEpochMillis(t)
		return nil
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("epoch millis: %w", err)
	}
	*m = EpochMillis(ms)
	return nil
}

// VehicleDTO is the wire form of a fleet vehicle.
type VehicleDTO struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	LicensePlate    string       `json:"licensePlate,omitempty"`
	Type            string       `json:"type"`
	Status          string       `json:"status"`
	Location        string       `json:"location"`
	Capacity        int          `json:"capacity"`
	DriverID        string       `json:"driverId,omitempty"`
	FreeAt          *EpochMillis `json:"freeAt,omitempty"`
	FuelType        string       `json:"fuelType,omitempty"`
	FuelConsumption float64      `json:"fuelConsumption,omitempty"`
}

// FlatRateDTO is the wire form of a flat-rate rule.
type FlatRateDTO struct {
	Name     string  `json:"name"`
	Keyword  string  `json:"keyword,omitempty"`
	PriceCar float64 `json:"priceCar"`
	PriceVan float64 `json:"priceVan"`
}

// TimeRuleDTO is the wire form of a time-window rule.
type TimeRuleDTO struct {
	Name          string  `json:"name"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	StartingFee   float64 `json:"startingFee"`
	PricePerKmCar float64 `json:"pricePerKmCar"`
	PricePerKmVan float64 `json:"pricePerKmVan"`
}

// TariffDTO is the wire form of a tariff.
type TariffDTO struct {
	StartingFee           float64       `json:"startingFee"`
	PricePerKmCar         float64       `json:"pricePerKmCar"`
	PricePerKmVan         float64       `json:"pricePerKmVan"`
	FlatRates             []FlatRateDTO `json:"flatRates"`
	TimeRules             []TimeRuleDTO `json:"timeRules"`
	VanPassengerThreshold int           `json:"vanPassengerThreshold,omitempty"`
}

// AlternativeDTO is one ranked vehicle in an assignment response.
type AlternativeDTO struct {
	Vehicle        VehicleDTO `json:"vehicle"`
	ETA            int        `json:"eta"`
	WaitTime       int        `json:"waitTime"`
	EstimatedPrice int        `json:"estimatedPrice"`
}

// AssignmentResponse is the HTTP response of a successful vehicle search.
type AssignmentResponse struct {
	ID             string           `json:"id"`
	Recommended    AlternativeDTO   `json:"recommended"`
	RideDuration   int              `json:"rideDuration"`
	RideDistance   float64          `json:"rideDistance"`
	SMSText        string           `json:"smsText"`
	NavigationURL  string           `json:"navigationUrl"`
	Alternatives   []AlternativeDTO `json:"alternatives"`
	OptimizedStops []string         `json:"optimizedStops,omitempty"`
}

func toVehicleDTO(v domain.Vehicle) VehicleDTO {
	dto := VehicleDTO{
		ID:              v.ID,
		Name:            v.Name,
		LicensePlate:    v.LicensePlate,
		Type:            string(v.Type),
		Status:          string(v.Status),
		Location:        v.Location,
		Capacity:        v.Capacity,
		DriverID:        v.DriverID,
		FuelType:        string(v.FuelType),
		FuelConsumption: v.FuelConsumption,
	}
	if !v.FreeAt.IsZero() {
		freeAt := NewEpochMillis(v.FreeAt)
		dto.FreeAt = &freeAt
	}
	return dto
}

// toVehicle converts an inline vehicle snapshot. Unknown types and fuel
// types are rejected; unknown statuses mean Out of service.
func toVehicle(dto VehicleDTO) (domain.Vehicle, error) {
	vehicleType, err := domain.ParseVehicleType(dto.Type)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("vehicle %s: %w", dto.ID, service.ErrInvalidVehicleType)
	}
	fuelType, err := domain.ParseFuelType(dto.FuelType)
	if err != nil {
		return domain.Vehicle{}, fmt.Errorf("vehicle %s: %w", dto.ID, service.ErrInvalidFuelType)
	}
	status, err := domain.ParseVehicleStatus(dto.Status)
	if err != nil {
		status = domain.VehicleStatusOutOfService
	}

	v := domain.Vehicle{
		ID:              dto.ID,
		Name:            dto.Name,
		LicensePlate:    dto.LicensePlate,
		Type:            vehicleType,
		Status:          status,
		Location:        dto.Location,
		Capacity:        dto.Capacity,
		DriverID:        dto.DriverID,
		FuelType:        fuelType,
		FuelConsumption: dto.FuelConsumption,
	}
	if dto.FreeAt != nil {
		v.FreeAt = dto.FreeAt.Time()
	}
	return v, nil
}

func toTariffDTO(t domain.Tariff) TariffDTO {
	dto := TariffDTO{
		StartingFee:           t.StartingFee,
		PricePerKmCar:         t.PricePerKmCar,
		PricePerKmVan:         t.PricePerKmVan,
		FlatRates:             make([]FlatRateDTO, 0, len(t.FlatRates)),
		TimeRules:             make([]TimeRuleDTO, 0, len(t.TimeRules)),
		VanPassengerThreshold: t.VanPassengerThreshold,
	}
	for _, r := range t.FlatRates {
		dto.FlatRates = append(dto.FlatRates, FlatRateDTO(r))
	}
	for _, r := range t.TimeRules {
		dto.TimeRules = append(dto.TimeRules, TimeRuleDTO(r))
	}
	return dto
}

func toTariff(dto TariffDTO) domain.Tariff {
	t := domain.Tariff{
		StartingFee:           dto.StartingFee,
		PricePerKmCar:         dto.PricePerKmCar,
		PricePerKmVan:         dto.PricePerKmVan,
		VanPassengerThreshold: dto.VanPassengerThreshold,
	}
	for _, r := range dto.FlatRates {
		t.FlatRates = append(t.FlatRates, domain.FlatRateRule(r))
	}
	for _, r := range dto.TimeRules {
		t.TimeRules = append(t.TimeRules, domain.TimeWindowRule(r))
	}
	return t
}

func toAlternativeDTO(a domain.AssignmentAlternative) AlternativeDTO {
	return AlternativeDTO{
		Vehicle:        toVehicleDTO(a.Vehicle),
		ETA:            a.ETA,
		WaitTime:       a.WaitTime,
		EstimatedPrice: a.EstimatedPrice,
	}
}

func toAssignmentResponse(r *domain.AssignmentResult) AssignmentResponse {
	resp := AssignmentResponse{
		ID:             r.ID,
		Recommended:    toAlternativeDTO(r.Recommended),
		RideDuration:   r.RideDuration,
		RideDistance:   r.RideDistance,
		SMSText:        r.SMSText,
		NavigationURL:  r.NavigationURL,
		Alternatives:   make([]AlternativeDTO, 0, len(r.Alternatives)),
		OptimizedStops: r.OptimizedStops,
	}
	for _, a := range r.Alternatives {
		resp.Alternatives = append(resp.Alternatives, toAlternativeDTO(a))
	}
	return resp
}
