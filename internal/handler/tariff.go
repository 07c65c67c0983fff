package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// TariffHandler handles HTTP requests for the tariff and price quotes.
type TariffHandler struct {
	tariffs Tariffs
}

// NewTariffHandler creates a new TariffHandler.
func NewTariffHandler(tariffs Tariffs) *TariffHandler {
	return &TariffHandler{tariffs: tariffs}
}

// QuoteRequest is the HTTP request body for a price quote.
type QuoteRequest struct {
	Pickup      string     `json:"pickup"`
	Destination string     `json:"destination"`
	DistanceKm  float64    `json:"distanceKm"`
	VehicleType string     `json:"vehicleType"`
	Passengers  int        `json:"passengers"`
	Tariff      *TariffDTO `json:"tariff"`
}

// QuoteResponse is the HTTP response for a price quote.
type QuoteResponse struct {
	Price int `json:"price"`
}

// GetActive handles GET /v1/tariff
func (h *TariffHandler) GetActive(c *gin.Context) {
	tariff, err := h.tariffs.Active(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTariffDTO(*tariff))
}

// Quote handles POST /v1/quotes
func (h *TariffHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicleType := domain.VehicleTypeCar
	if strings.TrimSpace(req.VehicleType) != "" {
		parsed, err := domain.ParseVehicleType(req.VehicleType)
		if err != nil {
			respondError(c, service.ErrInvalidVehicleType)
			return
		}
		vehicleType = parsed
	}

	var tariff *domain.Tariff
	if req.Tariff != nil {
		inline := toTariff(*req.Tariff)
		tariff = &inline
	}

	price, err := h.tariffs.Quote(c.Request.Context(), service.PriceRequest{
		Pickup:      req.Pickup,
		Destination: req.Destination,
		DistanceKm:  req.DistanceKm,
		VehicleType: vehicleType,
		Passengers:  req.Passengers,
	}, tariff)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{Price: price})
}
