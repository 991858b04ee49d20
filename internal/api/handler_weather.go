package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"relief-ops-backend/internal/upstream"
)

// GetWeather handles GET /api/weather/:city.
func (h *Handler) GetWeather(c *gin.Context) {
	city := strings.TrimSpace(c.Param("city"))
	if city == "" {
		h.respondError(c, fmt.Errorf("%w: city is required", errInvalidRequest))
		return
	}
	if h.weather == nil {
		h.respondError(c, upstream.ErrNotConfigured)
		return
	}
	w, err := h.weather.Current(c.Request.Context(), city)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
