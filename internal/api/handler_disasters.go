package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

type disasterRequest struct {
	Name               string     `json:"name" binding:"required,max=200"`
	Type               string     `json:"type" binding:"required,max=32"`
	Status             string     `json:"status" binding:"omitempty,oneof=active contained resolved"`
	Severity           string     `json:"severity" binding:"required,oneof=low moderate high critical"`
	Description        string     `json:"description"`
	Latitude           float64    `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude          float64    `json:"longitude" binding:"gte=-180,lte=180"`
	LocationName       string     `json:"location_name" binding:"max=255"`
	AffectedPopulation int64      `json:"affected_population" binding:"gte=0"`
	Casualties         int        `json:"casualties" binding:"gte=0"`
	StartedAt          *time.Time `json:"started_at"`
}

func (r *disasterRequest) apply(d *model.Disaster, now time.Time) {
	d.Name = r.Name
	d.Type = r.Type
	d.Severity = r.Severity
	d.Description = r.Description
	d.Latitude = r.Latitude
	d.Longitude = r.Longitude
	d.LocationName = r.LocationName
	d.AffectedPopulation = r.AffectedPopulation
	d.Casualties = r.Casualties
	if r.StartedAt != nil {
		d.StartedAt = r.StartedAt.UTC()
	} else if d.StartedAt.IsZero() {
		d.StartedAt = now
	}

	status := r.Status
	if status == "" {
		status = d.Status
	}
	if status == "" {
		status = model.DisasterActive
	}
	switch {
	case status == model.DisasterResolved && d.ResolvedAt == nil:
		d.ResolvedAt = &now
	case status != model.DisasterResolved:
		d.ResolvedAt = nil
	}
	d.Status = status
}

// ListDisasters handles GET /api/disasters.
func (h *Handler) ListDisasters(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	f := store.DisasterFilter{Page: p, Status: c.Query("status"), Type: c.Query("type")}
	if v := c.Query("min_tier"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(c, fmt.Errorf("%w: invalid min_tier", errInvalidRequest))
			return
		}
		f.MinTier = n
	}

	disasters, err := h.store.ListDisasters(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, disasters)
}

// GetDisaster handles GET /api/disasters/:id.
func (h *Handler) GetDisaster(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	d, err := h.store.GetDisaster(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// CreateDisaster handles POST /api/disasters. The tier is evaluated right away,
// so a disaster created above a threshold escalates on creation.
func (h *Handler) CreateDisaster(c *gin.Context) {
	var req disasterRequest
	if !h.bind(c, &req) {
		return
	}
	d := model.Disaster{Tier: model.MinTier}
	req.apply(&d, h.now())

	ctx := c.Request.Context()
	if err := h.store.CreateDisaster(ctx, &d); err != nil {
		h.respondError(c, err)
		return
	}
	h.reevaluate(c, &d)
	c.JSON(http.StatusCreated, d)
}

// UpdateDisaster handles PUT /api/disasters/:id.
func (h *Handler) UpdateDisaster(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req disasterRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	d, err := h.store.GetDisaster(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req.apply(d, h.now())
	if err := h.store.UpdateDisaster(ctx, d); err != nil {
		h.respondError(c, err)
		return
	}
	h.reevaluate(c, d)
	c.JSON(http.StatusOK, d)
}

// reevaluate runs tier escalation after a write. A failure is logged rather than
// failing the request; the background monitor retries it.
func (h *Handler) reevaluate(c *gin.Context, d *model.Disaster) {
	if h.escalation == nil {
		return
	}
	out, err := h.escalation.Evaluate(c.Request.Context(), d.ID)
	if err != nil {
		h.log.Warn("tier evaluation after write failed", zap.Int64("disaster_id", d.ID), zap.Error(err))
		return
	}
	d.Tier = out.CurrentTier
}

// DeleteDisaster handles DELETE /api/disasters/:id.
func (h *Handler) DeleteDisaster(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteDisaster(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListDisasterAssignments handles GET /api/disasters/:id/assignments.
func (h *Handler) ListDisasterAssignments(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	p, ok := h.page(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetDisaster(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	assignments, err := h.store.ListAssignments(ctx, store.AssignmentFilter{Page: p, DisasterID: &id, Status: c.Query("status")})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// GetDisasterMap handles GET /api/map/disasters.
func (h *Handler) GetDisasterMap(c *gin.Context) {
	disasters, err := h.store.ListOpenDisasters(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGeoJSON(disasters))
}
