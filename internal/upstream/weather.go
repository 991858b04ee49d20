package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"resty.dev/v3"

	"relief-ops-backend/config"
)

// Weather is the current conditions for a city.
type Weather struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Condition   string    `json:"condition"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	TempC       float64   `json:"temperature_c"`
	FeelsLikeC  float64   `json:"feels_like_c"`
	Humidity    int       `json:"humidity"`
	PressureHPa int       `json:"pressure_hpa"`
	WindSpeed   float64   `json:"wind_speed_ms"`
	ObservedAt  time.Time `json:"observed_at"`
}

// owmCurrent is the subset of the OpenWeatherMap current-weather response we read.
type owmCurrent struct {
	Name  string `json:"name"`
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Dt int64 `json:"dt"`
}

// WeatherClient fetches current weather and caches it per city.
type WeatherClient struct {
	client *resty.Client
	apiKey string
	cache  *cache.Cache
}

// NewWeatherClient creates a client for an OpenWeatherMap-compatible API.
func NewWeatherClient(cfg config.WeatherConfig) *WeatherClient {
	ttl := seconds(cfg.CacheTTLSeconds)
	return &WeatherClient{
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(seconds(cfg.TimeoutSeconds)).
			SetHeader("Accept", "application/json"),
		apiKey: cfg.APIKey,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Configured reports whether an API key is present.
func (w *WeatherClient) Configured() bool {
	return w.apiKey != ""
}

// Current returns the current weather for a city.
func (w *WeatherClient) Current(ctx context.Context, city string) (*Weather, error) {
	if !w.Configured() {
		return nil, ErrNotConfigured
	}
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return nil, fmt.Errorf("%w: empty city", ErrNotFound)
	}
	if cached, found := w.cache.Get(key); found {
		return cached.(*Weather), nil
	}

	var body owmCurrent
	res, err := w.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     city,
			"appid": w.apiKey,
			"units": "metric",
		}).
		SetResult(&body).
		Get("/data/2.5/weather")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("%w: city %q", ErrNotFound, city)
	case res.IsError():
		return nil, fmt.Errorf("%w: weather api returned %d", ErrUnavailable, res.StatusCode())
	}

	weather := &Weather{
		City:        body.Name,
		Country:     body.Sys.Country,
		Latitude:    body.Coord.Lat,
		Longitude:   body.Coord.Lon,
		TempC:       body.Main.Temp,
		FeelsLikeC:  body.Main.FeelsLike,
		Humidity:    body.Main.Humidity,
		PressureHPa: body.Main.Pressure,
		WindSpeed:   body.Wind.Speed,
		ObservedAt:  time.Unix(body.Dt, 0).UTC(),
	}
	if len(body.Weather) > 0 {
		weather.Condition = body.Weather[0].Main
		weather.Description = body.Weather[0].Description
		weather.Icon = body.Weather[0].Icon
	}

	w.cache.SetDefault(key, weather)
	return weather, nil
}

// Close releases the underlying HTTP client.
func (w *WeatherClient) Close() error {
	return w.client.Close()
}
