package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"relief-ops-backend/internal/escalation"
	"relief-ops-backend/internal/intel"
	"relief-ops-backend/internal/mw"
	"relief-ops-backend/internal/store"
	"relief-ops-backend/internal/upstream"
)

// WeatherProvider looks up current weather for a city.
type WeatherProvider interface {
	Current(ctx context.Context, city string) (*upstream.Weather, error)
}

// Geocoder resolves place names and coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]upstream.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*upstream.Place, error)
}

// Deps bundles what the handlers need.
type Deps struct {
	Store      store.Store
	Escalation *escalation.Service
	Intel      *intel.Calculator
	Weather    WeatherProvider
	Geocoder   Geocoder
	WebPush    *webpush.Options
	Logger     *zap.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	escalation *escalation.Service
	intel      *intel.Calculator
	weather    WeatherProvider
	geocoder   Geocoder
	webpush    *webpush.Options
	log        *zap.Logger
	now        func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:      d.Store,
		escalation: d.Escalation,
		intel:      d.Intel,
		weather:    d.Weather,
		geocoder:   d.Geocoder,
		webpush:    d.WebPush,
		log:        log.Named("api"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var errInvalidRequest = errors.New("invalid request")

// respondError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errInvalidRequest), errors.Is(err, store.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, upstream.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrInsufficient):
		status = http.StatusConflict
	case errors.Is(err, upstream.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, upstream.ErrUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", mw.GetRequestID(c)),
			zap.Error(err))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bind decodes a JSON body, reporting binding failures as 400.
func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.respondError(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return false
	}
	return true
}

func (h *Handler) paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, fmt.Errorf("%w: invalid %s", errInvalidRequest, name))
		return 0, false
	}
	return id, true
}

func (h *Handler) page(c *gin.Context) (store.Page, bool) {
	var p store.Page
	var err error
	if v := c.Query("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil || p.Limit < 0 {
			h.respondError(c, fmt.Errorf("%w: invalid limit", errInvalidRequest))
			return p, false
		}
	}
	if v := c.Query("offset"); v != "" {
		if p.Offset, err = strconv.Atoi(v); err != nil || p.Offset < 0 {
			h.respondError(c, fmt.Errorf("%w: invalid offset", errInvalidRequest))
			return p, false
		}
	}
	return p, true
}

// queryID parses an optional positive id from the query string.
func (h *Handler) queryID(c *gin.Context, name string) (*int64, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, fmt.Errorf("%w: invalid %s", errInvalidRequest, name))
		return nil, false
	}
	return &id, true
}
