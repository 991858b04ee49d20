package upstream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/patrickmn/go-cache"
	"resty.dev/v3"

	"relief-ops-backend/config"
)

// Place is a single geocoder result.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type nominatimPlace struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat,string"`
	Lon         float64 `json:"lon,string"`
	Error       string  `json:"error"`
}

// Geocoder talks to a Nominatim-compatible API. Reverse lookups are cached by
// coordinates rounded to four decimals.
type Geocoder struct {
	client *resty.Client
	limit  int
	cache  *cache.Cache
}

// NewGeocoder creates a geocoder client.
func NewGeocoder(cfg config.GeocodingConfig) *Geocoder {
	ttl := seconds(cfg.CacheTTLSeconds)
	return &Geocoder{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(seconds(cfg.TimeoutSeconds)).
			SetHeader("User-Agent", cfg.UserAgent).
			SetHeader("Accept", "application/json"),
		limit: cfg.ResultLimit,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Search resolves a free-text query to places.
func (g *Geocoder) Search(ctx context.Context, query string) ([]Place, error) {
	var body []nominatimPlace
	res, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "jsonv2",
			"limit":  strconv.Itoa(g.limit),
		}).
		SetResult(&body).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: geocoder returned %d", ErrUnavailable, res.StatusCode())
	}

	places := make([]Place, 0, len(body))
	for _, p := range body {
		places = append(places, Place{Name: p.DisplayName, Latitude: p.Lat, Longitude: p.Lon})
	}
	return places, nil
}

// ReverseKey is the cache key for a coordinate pair.
func ReverseKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 4, 64) + "," + strconv.FormatFloat(lon, 'f', 4, 64)
}

// Reverse resolves coordinates to the nearest named place.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*Place, error) {
	key := ReverseKey(lat, lon)
	if cached, found := g.cache.Get(key); found {
		return cached.(*Place), nil
	}

	var body nominatimPlace
	res, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":    strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":    strconv.FormatFloat(lon, 'f', -1, 64),
			"format": "jsonv2",
		}).
		SetResult(&body).
		Get("/reverse")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: geocoder returned %d", ErrUnavailable, res.StatusCode())
	}
	// Nominatim answers 200 with an error field when nothing is nearby.
	if body.Error != "" || body.DisplayName == "" {
		return nil, fmt.Errorf("%w: no place near %s", ErrNotFound, key)
	}

	place := &Place{Name: body.DisplayName, Latitude: body.Lat, Longitude: body.Lon}
	g.cache.SetDefault(key, place)
	return place, nil
}

// Close releases the underlying HTTP client.
func (g *Geocoder) Close() error {
	return g.client.Close()
}
