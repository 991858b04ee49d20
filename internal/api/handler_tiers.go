package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTierThresholds handles GET /api/tiers/thresholds.
func (h *Handler) GetTierThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.escalation.Thresholds())
}

// GetDisasterTier handles GET /api/tiers/disasters/:id.
func (h *Handler) GetDisasterTier(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.escalation.Assess(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// EvaluateDisasterTier handles POST /api/tiers/disasters/:id/evaluate.
func (h *Handler) EvaluateDisasterTier(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	out, err := h.escalation.Evaluate(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type tierOverrideRequest struct {
	Tier int `json:"tier" binding:"required"`
}

// OverrideDisasterTier handles PUT /api/tiers/disasters/:id.
func (h *Handler) OverrideDisasterTier(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req tierOverrideRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.escalation.Override(c.Request.Context(), id, req.Tier)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
