package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/store"
)

type volunteerRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Email        string `json:"email" binding:"required,email,max=255"`
	Phone        string `json:"phone" binding:"max=32"`
	Skills       string `json:"skills" binding:"max=512"`
	Availability string `json:"availability" binding:"omitempty,oneof=available assigned unavailable"`
}

// ListVolunteers handles GET /api/volunteers.
func (h *Handler) ListVolunteers(c *gin.Context) {
	p, ok := h.page(c)
	if !ok {
		return
	}
	volunteers, err := h.store.ListVolunteers(c.Request.Context(), store.VolunteerFilter{
		Page:         p,
		Availability: c.Query("availability"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, volunteers)
}

// GetVolunteer handles GET /api/volunteers/:id.
func (h *Handler) GetVolunteer(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.store.GetVolunteer(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// CreateVolunteer handles POST /api/volunteers. New volunteers cannot start out assigned.
func (h *Handler) CreateVolunteer(c *gin.Context) {
	var req volunteerRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Availability == model.VolunteerAssigned {
		req.Availability = model.VolunteerAvailable
	}
	v := model.Volunteer{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Skills:       req.Skills,
		Availability: req.Availability,
	}
	if err := h.store.CreateVolunteer(c.Request.Context(), &v); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// UpdateVolunteer handles PUT /api/volunteers/:id.
func (h *Handler) UpdateVolunteer(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req volunteerRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	v, err := h.store.GetVolunteer(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	v.Name = req.Name
	v.Email = req.Email
	v.Phone = req.Phone
	v.Skills = req.Skills
	if req.Availability != "" {
		v.Availability = req.Availability
	}
	if err := h.store.UpdateVolunteer(ctx, v); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DeleteVolunteer handles DELETE /api/volunteers/:id.
func (h *Handler) DeleteVolunteer(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteVolunteer(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	DisasterID int64  `json:"disaster_id" binding:"required,gt=0"`
	Role       string `json:"role" binding:"required,max=100"`
}

// AssignVolunteer handles POST /api/volunteers/:id/assignments. Concurrent
// requests for the same volunteer yield exactly one 201; the rest get 409.
func (h *Handler) AssignVolunteer(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if !h.bind(c, &req) {
		return
	}
	a, err := h.store.AssignVolunteer(c.Request.Context(), id, req.DisasterID, req.Role, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// ListVolunteerAssignments handles GET /api/volunteers/:id/assignments.
func (h *Handler) ListVolunteerAssignments(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	p, ok := h.page(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.store.GetVolunteer(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	assignments, err := h.store.ListAssignments(ctx, store.AssignmentFilter{Page: p, VolunteerID: &id, Status: c.Query("status")})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

type assignmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=completed cancelled"`
}

// EndAssignment handles PUT /api/assignments/:id/status.
func (h *Handler) EndAssignment(c *gin.Context) {
	id, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	var req assignmentStatusRequest
	if !h.bind(c, &req) {
		return
	}
	a, err := h.store.EndAssignment(c.Request.Context(), id, req.Status, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
