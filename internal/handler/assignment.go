package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// AssignmentFinder runs a vehicle search.
type AssignmentFinder interface {
	FindBestVehicle(ctx context.Context, req service.AssignmentRequest) (*domain.AssignmentResult, error)
}

// Fleet reads and mutates the vehicle store.
type Fleet interface {
	List(ctx context.Context) ([]*domain.Vehicle, error)
	Snapshot(ctx context.Context) ([]domain.Vehicle, error)
	UpdateStatus(ctx context.Context, vehicleID string, status domain.VehicleStatus) (*domain.Vehicle, error)
	Accept(ctx context.Context, req service.AcceptRequest) (*domain.Vehicle, error)
}

// Tariffs reads the tariff store and prices quotes.
type Tariffs interface {
	Active(ctx context.Context) (*domain.Tariff, error)
	Quote(ctx context.Context, req service.PriceRequest, tariff *domain.Tariff) (int, error)
}

var (
	_ AssignmentFinder = (*service.AssignmentService)(nil)
	_ Fleet            = (*service.VehicleService)(nil)
	_ Tariffs          = (*service.TariffService)(nil)
)

// AssignmentHandler handles HTTP requests for vehicle assignment.
type AssignmentHandler struct {
	finder          AssignmentFinder
	fleet           Fleet
	tariffs         Tariffs
	defaultLanguage string
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(finder AssignmentFinder, fleet Fleet, tariffs Tariffs, defaultLanguage string) *AssignmentHandler {
	return &AssignmentHandler{
		finder:          finder,
		fleet:           fleet,
		tariffs:         tariffs,
		defaultLanguage: defaultLanguage,
	}
}

// FindVehicleRequest is the HTTP request body for a vehicle search.
// Vehicles and Tariff are optional snapshots; when absent the stored
// fleet and active tariff are used.
type FindVehicleRequest struct {
	Stops         []string `json:"stops"`
	CustomerName  string   `json:"customerName"`
	CustomerPhone string   `json:"customerPhone"`
	Passengers    int      `json:"passengers"`
	PickupTime    string   `json:"pickupTime"`
	Notes         string   `json:"notes"`

	Optimize             bool   `json:"optimize"`
	AssistedOptimization bool   `json:"assistedOptimization"`
	AssistedSelection    bool   `json:"assistedSelection"`
	Language             string `json:"language"`

	Vehicles []VehicleDTO `json:"vehicles"`
	Tariff   *TariffDTO   `json:"tariff"`
}

// AcceptAssignmentRequest is the HTTP request body for accepting a recommendation.
type AcceptAssignmentRequest struct {
	VehicleID    string `json:"vehicleId"`
	ETA          int    `json:"eta"`
	RideDuration int    `json:"rideDuration"`
}

// FindVehicle handles POST /v1/assignments
func (h *AssignmentHandler) FindVehicle(c *gin.Context) {
	var req FindVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	lang := req.Language
	if lang == "" {
		lang = h.defaultLanguage
	}
	c.Set(languageKey, lang)

	ctx := c.Request.Context()

	var vehicles []domain.Vehicle
	if req.Vehicles != nil {
		vehicles = make([]domain.Vehicle, 0, len(req.Vehicles))
		for _, dto := range req.Vehicles {
			v, err := toVehicle(dto)
			if err != nil {
				respondError(c, err)
				return
			}
			vehicles = append(vehicles, v)
		}
	} else {
		snapshot, err := h.fleet.Snapshot(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		vehicles = snapshot
	}

	var tariff domain.Tariff
	if req.Tariff != nil {
		tariff = toTariff(*req.Tariff)
	} else {
		active, err := h.tariffs.Active(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		tariff = *active
	}

	result, err := h.finder.FindBestVehicle(ctx, service.AssignmentRequest{
		Ride: domain.RideRequest{
			Stops:         req.Stops,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Passengers:    req.Passengers,
			PickupTime:    req.PickupTime,
			Notes:         req.Notes,
		},
		Vehicles:             vehicles,
		Tariff:               tariff,
		Optimize:             req.Optimize,
		AssistedOptimization: req.AssistedOptimization,
		AssistedSelection:    req.AssistedSelection,
		Language:             lang,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toAssignmentResponse(result))
}

// Accept handles POST /v1/assignments/accept
func (h *AssignmentHandler) Accept(c *gin.Context) {
	var req AcceptAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.fleet.Accept(c.Request.Context(), service.AcceptRequest{
		VehicleID:    req.VehicleID,
		ETA:          req.ETA,
		RideDuration: req.RideDuration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleDTO(*vehicle))
}
