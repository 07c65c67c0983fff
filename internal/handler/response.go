package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/i18n"
	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// languageKey is the gin context key holding the caller's language.
const languageKey = "language"

// ErrorResponse represents an error response. MessageKey and Message are
// set for assignment failures only.
type ErrorResponse struct {
	Error      string `json:"error"`
	MessageKey string `json:"messageKey,omitempty"`
	Message    string `json:"message,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	if res, ok := service.AsErrorResult(err); ok {
		printer := i18n.Printer(c.GetString(languageKey))
		c.JSON(mapErrorResultToHTTPStatus(res), ErrorResponse{
			Error:      printer.Sprintf(res.MessageKey),
			MessageKey: res.MessageKey,
			Message:    res.Message,
		})
		return
	}

	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorResultToHTTPStatus maps assignment failures to HTTP status codes.
func mapErrorResultToHTTPStatus(res *service.ErrorResult) int {
	switch res.MessageKey {
	case i18n.ErrMissingAPIKey:
		return http.StatusBadRequest
	case i18n.ErrNoVehiclesInService, i18n.ErrInsufficientCapacity:
		return http.StatusUnprocessableEntity
	case i18n.ErrMainRouteCalculationFailed, i18n.ErrGeocodingFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRideRequest),
		errors.Is(err, service.ErrInvalidPassengers),
		errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidVehicleStatus),
		errors.Is(err, service.ErrInvalidVehicleType),
		errors.Is(err, service.ErrInvalidFuelType),
		errors.Is(err, service.ErrInvalidAcceptance),
		errors.Is(err, service.ErrInvalidDistance):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrVehicleLocked):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
