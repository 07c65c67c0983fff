package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
	"dispatch/internal/service"
)

// VehicleHandler handles HTTP requests for fleet vehicles.
type VehicleHandler struct {
	fleet Fleet
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(fleet Fleet) *VehicleHandler {
	return &VehicleHandler{fleet: fleet}
}

// UpdateStatusRequest is the HTTP request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// GetAll handles GET /v1/vehicles
func (h *VehicleHandler) GetAll(c *gin.Context) {
	vehicles, err := h.fleet.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]VehicleDTO, 0, len(vehicles))
	for _, v := range vehicles {
		resp = append(resp, toVehicleDTO(*v))
	}
	respondJSON(c, http.StatusOK, resp)
}

// UpdateStatus handles PUT /v1/vehicles/:id/status
func (h *VehicleHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	status, err := domain.ParseVehicleStatus(req.Status)
	if err != nil {
		respondError(c, service.ErrInvalidVehicleStatus)
		return
	}

	vehicle, err := h.fleet.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toVehicleDTO(*vehicle))
}
