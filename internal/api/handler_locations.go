package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relief-ops-backend/internal/model"
	"relief-ops-backend/internal/upstream"
)

const geocoderSource = "nominatim"

// normalizeQuery folds case and collapses whitespace so equivalent searches share a cache row.
func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// SearchLocations handles GET /api/locations/search?q=. Results are served from
// the locations table when the query has been seen before.
func (h *Handler) SearchLocations(c *gin.Context) {
	query := normalizeQuery(c.Query("q"))
	if query == "" {
		h.respondError(c, fmt.Errorf("%w: q is required", errInvalidRequest))
		return
	}

	ctx := c.Request.Context()
	stored, err := h.store.FindLocations(ctx, query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(stored) > 0 {
		c.JSON(http.StatusOK, stored)
		return
	}

	if h.geocoder == nil {
		h.respondError(c, upstream.ErrNotConfigured)
		return
	}
	places, err := h.geocoder.Search(ctx, query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	locations := make([]model.Location, 0, len(places))
	for _, p := range places {
		locations = append(locations, model.Location{
			Name:      p.Name,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Source:    geocoderSource,
		})
	}
	if err := h.store.SaveLocations(ctx, query, locations); err != nil {
		h.log.Warn("storing geocoder results failed", zap.String("query", query), zap.Error(err))
	}
	c.JSON(http.StatusOK, locations)
}

func parseCoord(raw string, limit float64) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	// Written so that NaN fails the range check.
	if err != nil || !(v >= -limit && v <= limit) {
		return 0, false
	}
	return v, true
}

// ReverseGeocode handles GET /api/locations/reverse?lat=&lon=.
func (h *Handler) ReverseGeocode(c *gin.Context) {
	lat, ok := parseCoord(c.Query("lat"), 90)
	if !ok {
		h.respondError(c, fmt.Errorf("%w: lat must be between -90 and 90", errInvalidRequest))
		return
	}
	lon, ok := parseCoord(c.Query("lon"), 180)
	if !ok {
		h.respondError(c, fmt.Errorf("%w: lon must be between -180 and 180", errInvalidRequest))
		return
	}

	if h.geocoder == nil {
		h.respondError(c, upstream.ErrNotConfigured)
		return
	}
	place, err := h.geocoder.Reverse(c.Request.Context(), lat, lon)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}
