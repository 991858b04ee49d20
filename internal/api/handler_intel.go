package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/intel"
	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

// GetResourceIntel handles GET /api/resource-intelligence/disasters/:id.
func (h *Handler) GetResourceIntel(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	snap, err := h.store.ResourceSnapshot(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.intel.Analyze(snap))
}

type intelSummary struct {
	Disasters []intel.Summary      `json:"disasters"`
	LowStock  []model.ReliefSupply `json:"low_stock"`
}

// GetResourceSummary handles GET /api/resource-intelligence/summary.
func (h *Handler) GetResourceSummary(c *gin.Context) {
	ctx := c.Request.Context()
	disasters, err := h.store.ListOpenDisasters(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := intelSummary{Disasters: make([]intel.Summary, 0, len(disasters))}
	for _, d := range disasters {
		snap, err := h.store.ResourceSnapshot(ctx, d.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		out.Disasters = append(out.Disasters, intel.Summarize(h.intel.Analyze(snap)))
	}

	out.LowStock, err = h.store.ListSupplies(ctx, store.SupplyFilter{LowStock: true, Page: store.Page{Limit: 500}})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if out.LowStock == nil {
		out.LowStock = []model.ReliefSupply{}
	}
	c.JSON(http.StatusOK, out)
}
