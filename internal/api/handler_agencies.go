package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

type agencyRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	Type           string `json:"type" binding:"required,oneof=government ngo military private international"`
	ContactEmail   string `json:"contact_email" binding:"omitempty,email,max=255"`
	ContactPhone   string `json:"contact_phone" binding:"max=32"`
	ActivationTier int    `json:"activation_tier" binding:"omitempty,min=1,max=4"`
}

func (r *agencyRequest) apply(a *model.Agency) {
	a.Name = r.Name
	a.Type = r.Type
	a.ContactEmail = r.ContactEmail
	a.ContactPhone = r.ContactPhone
	a.ActivationTier = r.ActivationTier
	if a.ActivationTier == 0 {
		a.ActivationTier = 3
	}
}

// ListAgencies handles GET /api/agencies.
func (h *Handler) ListAgencies(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	agencies, err := h.store.ListAgencies(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agencies)
}

// GetAgency handles GET /api/agencies/:id.
func (h *Handler) GetAgency(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.store.GetAgency(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAgency handles POST /api/agencies.
func (h *Handler) CreateAgency(c *gin.Context) {
	var req agencyRequest
	if !h.bind(c, &req) {
		return
	}
	var a model.Agency
	req.apply(&a)
	if err := h.store.CreateAgency(c.Request.Context(), &a); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAgency handles PUT /api/agencies/:id.
func (h *Handler) UpdateAgency(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req agencyRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	a, err := h.store.GetAgency(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req.apply(a)
	if err := h.store.UpdateAgency(ctx, a); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAgency handles DELETE /api/agencies/:id.
func (h *Handler) DeleteAgency(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteAgency(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAgencyResources handles GET /api/agencies/:id/resources.
func (h *Handler) ListAgencyResources(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	resources, err := h.store.ListAgencyResources(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resources)
}

type agencyResourceRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Category string `json:"category" binding:"required,oneof=food water medical hygiene shelter other"`
	Quantity int    `json:"quantity" binding:"gte=0"`
	Unit     string `json:"unit" binding:"max=32"`
}

// CreateAgencyResource handles POST /api/agencies/:id/resources.
func (h *Handler) CreateAgencyResource(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req agencyResourceRequest
	if !h.bind(c, &req) {
		return
	}
	r := model.AgencyResource{
		AgencyID: id,
		Name:     req.Name,
		Category: req.Category,
		Quantity: req.Quantity,
		Unit:     req.Unit,
	}
	if err := h.store.CreateAgencyResource(c.Request.Context(), &r); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// DeleteAgencyResource handles DELETE /api/agencies/:id/resources/:resourceId.
func (h *Handler) DeleteAgencyResource(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	resourceID, ok := h.paramID(c, "resourceId")
	if !ok {
		return
	}
	if err := h.store.DeleteAgencyResource(c.Request.Context(), id, resourceID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAgencyActivations handles GET /api/agencies/:id/activations.
func (h *Handler) ListAgencyActivations(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	p, ok := h.page(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetAgency(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	activations, err := h.store.ListActivations(ctx, store.ActivationFilter{Page: p, AgencyID: &id, Status: c.Query("status")})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activations)
}

type activateRequest struct {
	DisasterID int64 `json:"disaster_id" binding:"required,gt=0"`
}

// ActivateAgency handles POST /api/agencies/:id/activations.
func (h *Handler) ActivateAgency(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req activateRequest
	if !h.bind(c, &req) {
		return
	}
	a, changed, err := h.store.ActivateAgency(c.Request.Context(), id, req.DisasterID, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusOK, a)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// StandDownActivation handles PUT /api/activations/:id/stand-down.
func (h *Handler) StandDownActivation(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.store.StandDownActivation(c.Request.Context(), id, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
