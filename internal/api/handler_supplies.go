package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

type supplyRequest struct {
	DisasterID   *int64     `json:"disaster_id"`
	ShelterID    *int64     `json:"shelter_id"`
	Name         string     `json:"name" binding:"required,max=200"`
	Category     string     `json:"category" binding:"required,oneof=food water medical hygiene shelter other"`
	Quantity     int        `json:"quantity" binding:"gte=0"`
	Unit         string     `json:"unit" binding:"max=32"`
	ReorderLevel int        `json:"reorder_level" binding:"gte=0"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (r *supplyRequest) toModel() model.ReliefSupply {
	return model.ReliefSupply{
		DisasterID:   r.DisasterID,
		ShelterID:    r.ShelterID,
		Name:         r.Name,
		Category:     r.Category,
		Quantity:     r.Quantity,
		Unit:         r.Unit,
		ReorderLevel: r.ReorderLevel,
		ExpiresAt:    r.ExpiresAt,
	}
}

// ListSupplies handles GET /api/supplies.
func (h *Handler) ListSupplies(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	f := store.SupplyFilter{Page: p, Category: c.Query("category")}
	if f.DisasterID, ok = h.queryID(c, "disaster_id"); !ok {
		return
	}
	if f.ShelterID, ok = h.queryID(c, "shelter_id"); !ok {
		return
	}
	if v := c.Query("low_stock"); v != "" {
		low, err := strconv.ParseBool(v)
		if err != nil {
			h.respondError(c, fmt.Errorf("%w: invalid low_stock", errInvalidRequest))
			return
		}
		f.LowStock = low
	}

	supplies, err := h.store.ListSupplies(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplies)
}

// GetSupply handles GET /api/supplies/:id.
func (h *Handler) GetSupply(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	sup, err := h.store.GetSupply(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}

// CreateSupply handles POST /api/supplies.
func (h *Handler) CreateSupply(c *gin.Context) {
	var req supplyRequest
	if !h.bind(c, &req) {
		return
	}
	sup := req.toModel()
	if err := h.store.CreateSupply(c.Request.Context(), &sup); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sup)
}

// UpdateSupply handles PUT /api/supplies/:id.
func (h *Handler) UpdateSupply(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req supplyRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.GetSupply(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	sup := req.toModel()
	sup.ID = id
	sup.CreatedAt = current.CreatedAt
	if err := h.store.UpdateSupply(ctx, &sup); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}

// DeleteSupply handles DELETE /api/supplies/:id.
func (h *Handler) DeleteSupply(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteSupply(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type allocateRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// AllocateSupply handles POST /api/supplies/:id/allocate.
func (h *Handler) AllocateSupply(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req allocateRequest
	if !h.bind(c, &req) {
		return
	}
	sup, err := h.store.AllocateSupply(c.Request.Context(), id, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}
