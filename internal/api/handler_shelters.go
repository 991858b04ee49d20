package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

type shelterRequest struct {
	DisasterID       *int64  `json:"disaster_id"`
	Name             string  `json:"name" binding:"required,max=200"`
	Address          string  `json:"address" binding:"max=255"`
	Latitude         float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude        float64 `json:"longitude" binding:"gte=-180,lte=180"`
	Capacity         int     `json:"capacity" binding:"gte=0"`
	CurrentOccupancy int     `json:"current_occupancy" binding:"gte=0"`
	Status           string  `json:"status" binding:"omitempty,oneof=open full closed"`
	ContactPhone     string  `json:"contact_phone" binding:"max=32"`
}

func (r *shelterRequest) toModel() (model.Shelter, error) {
	if r.CurrentOccupancy > r.Capacity {
		return model.Shelter{}, fmt.Errorf("%w: current_occupancy %d exceeds capacity %d", errInvalidRequest, r.CurrentOccupancy, r.Capacity)
	}
	return model.Shelter{
		DisasterID:       r.DisasterID,
		Name:             r.Name,
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		Capacity:         r.Capacity,
		CurrentOccupancy: r.CurrentOccupancy,
		Status:           r.Status,
		ContactPhone:     r.ContactPhone,
	}, nil
}

// ListShelters handles GET /api/shelters.
func (h *Handler) ListShelters(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	disasterID, ok := h.queryID(c, "disaster_id")
	if !ok {
		return
	}
	shelters, err := h.store.ListShelters(c.Request.Context(), store.ShelterFilter{
		Page:       p,
		DisasterID: disasterID,
		Status:     c.Query("status"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shelters)
}

// GetShelter handles GET /api/shelters/:id.
func (h *Handler) GetShelter(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	sh, err := h.store.GetShelter(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

// CreateShelter handles POST /api/shelters.
func (h *Handler) CreateShelter(c *gin.Context) {
	var req shelterRequest
	if !h.bind(c, &req) {
		return
	}
	sh, err := req.toModel()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.store.CreateShelter(c.Request.Context(), &sh); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sh)
}

// UpdateShelter handles PUT /api/shelters/:id.
func (h *Handler) UpdateShelter(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req shelterRequest
	if !h.bind(c, &req) {
		return
	}
	sh, err := req.toModel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.GetShelter(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sh.ID = id
	sh.CreatedAt = current.CreatedAt
	if err := h.store.UpdateShelter(ctx, &sh); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}

// DeleteShelter handles DELETE /api/shelters/:id.
func (h *Handler) DeleteShelter(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteShelter(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type occupancyRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdjustOccupancy handles POST /api/shelters/:id/occupancy.
func (h *Handler) AdjustOccupancy(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req occupancyRequest
	if !h.bind(c, &req) {
		return
	}
	sh, err := h.store.AdjustShelterOccupancy(c.Request.Context(), id, req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sh)
}
