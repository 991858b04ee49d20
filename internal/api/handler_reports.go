package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

type reportRequest struct {
	DisasterID      *int64  `json:"disaster_id"`
	ReporterName    string  `json:"reporter_name" binding:"max=200"`
	ReporterContact string  `json:"reporter_contact" binding:"max=255"`
	Category        string  `json:"category" binding:"required,oneof=damage injury flooding fire missing_person infrastructure other"`
	Description     string  `json:"description" binding:"required"`
	Latitude        float64 `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude       float64 `json:"longitude" binding:"gte=-180,lte=180"`
}

func (r *reportRequest) apply(rep *model.UserReport) {
	rep.DisasterID = r.DisasterID
	rep.ReporterName = r.ReporterName
	rep.ReporterContact = r.ReporterContact
	rep.Category = r.Category
	rep.Description = r.Description
	rep.Latitude = r.Latitude
	rep.Longitude = r.Longitude
}

// ListReports handles GET /api/reports.
func (h *Handler) ListReports(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	disasterID, ok := h.queryID(c, "disaster_id")
	if !ok {
		return
	}
	reports, err := h.store.ListReports(c.Request.Context(), store.ReportFilter{
		Page:       p,
		DisasterID: disasterID,
		Status:     c.Query("status"),
		Category:   c.Query("category"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:id.
func (h *Handler) GetReport(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.store.GetReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// TrackReport handles GET /api/reports/track/:trackingId for the public portal.
func (h *Handler) TrackReport(c *gin.Context) {
	trackingID := c.Param("trackingId")
	if _, err := uuid.Parse(trackingID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	r, err := h.store.GetReportByTrackingID(c.Request.Context(), trackingID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tracking_id": r.TrackingID,
		"category":    r.Category,
		"status":      r.Status,
		"created_at":  r.CreatedAt,
		"updated_at":  r.UpdatedAt,
	})
}

// CreateReport handles POST /api/reports.
func (h *Handler) CreateReport(c *gin.Context) {
	var req reportRequest
	if !h.bind(c, &req) {
		return
	}
	r := model.UserReport{
		TrackingID: uuid.NewString(),
		Status:     model.ReportPending,
	}
	req.apply(&r)
	if err := h.store.CreateReport(c.Request.Context(), &r); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// UpdateReport handles PUT /api/reports/:id.
func (h *Handler) UpdateReport(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req reportRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	r, err := h.store.GetReport(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req.apply(r)
	if err := h.store.UpdateReport(ctx, r); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// DeleteReport handles DELETE /api/reports/:id.
func (h *Handler) DeleteReport(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteReport(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reviewRequest struct {
	Status      string `json:"status" binding:"required,oneof=verified rejected resolved"`
	ReviewNotes string `json:"review_notes"`
	DisasterID  *int64 `json:"disaster_id"`
}

// ReviewReport handles PUT /api/reports/:id/review.
func (h *Handler) ReviewReport(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.store.ReviewReport(c.Request.Context(), id, req.Status, req.ReviewNotes, req.DisasterID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
