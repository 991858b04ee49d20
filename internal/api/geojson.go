package api

import (
	"relief-ops-backend/internal/model"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(disasters []model.Disaster) FeatureCollection {
	features := make([]Feature, 0, len(disasters))

	for _, d := range disasters {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{d.Longitude, d.Latitude},
			},
			Properties: map[string]any{
				"id":                  d.ID,
				"name":                d.Name,
				"type":                d.Type,
				"status":              d.Status,
				"severity":            d.Severity,
				"tier":                d.Tier,
				"location_name":       d.LocationName,
				"affected_population": d.AffectedPopulation,
				"started_at":          d.StartedAt,
			},
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
