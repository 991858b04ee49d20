// Package intel turns a snapshot of a disaster's shelters and stock into
// per-category needs and shortfalls.
package intel

import (
	"math"
	"sort"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
)

// Snapshot is everything the calculator needs to know about one disaster.
type Snapshot struct {
	Disaster         model.Disaster
	Shelters         []model.Shelter
	Supplies         []model.ReliefSupply
	AgencyResources  []model.AgencyResource
	ActiveVolunteers int64
}

// CategoryNeed compares projected need with what is on hand for one category.
type CategoryNeed struct {
	Category  string  `json:"category"`
	PerCapita float64 `json:"per_capita_per_day"`
	Need      int64   `json:"need"`
	Available int64   `json:"available"`
	Shortfall int64   `json:"shortfall"`
}

// Report is the full resource picture for a disaster.
type Report struct {
	DisasterID          int64                `json:"disaster_id"`
	DisasterName        string               `json:"disaster_name"`
	Tier                int                  `json:"tier"`
	HorizonDays         int                  `json:"horizon_days"`
	ShelteredPopulation int64                `json:"sheltered_population"`
	ShelterCapacity     int64                `json:"shelter_capacity"`
	Utilization         float64              `json:"utilization"`
	OpenShelters        int                  `json:"open_shelters"`
	FullShelters        int                  `json:"full_shelters"`
	ActiveVolunteers    int64                `json:"active_volunteers"`
	Needs               []CategoryNeed       `json:"needs"`
	LowStock            []model.ReliefSupply `json:"low_stock"`
}

// Summary is the headline view of a Report used by the cross-disaster overview.
type Summary struct {
	DisasterID          int64    `json:"disaster_id"`
	DisasterName        string   `json:"disaster_name"`
	Tier                int      `json:"tier"`
	ShelteredPopulation int64    `json:"sheltered_population"`
	Utilization         float64  `json:"utilization"`
	ActiveVolunteers    int64    `json:"active_volunteers"`
	ShortfallCategories []string `json:"shortfall_categories"`
	LowStockCount       int      `json:"low_stock_count"`
}

// Calculator applies per-capita consumption rates over a planning horizon.
type Calculator struct {
	perCapita   map[string]float64
	horizonDays int
}

// NewCalculator builds a Calculator from configuration.
func NewCalculator(cfg config.ResourceIntelConfig) *Calculator {
	return &Calculator{perCapita: cfg.PerCapita, horizonDays: cfg.HorizonDays}
}

// need rounds away float noise (0.1*100*3 must be 30, not 31) before taking the ceiling.
func need(perCapita float64, people int64, days int) int64 {
	raw := perCapita * float64(people) * float64(days)
	return int64(math.Ceil(math.Round(raw*1e6) / 1e6))
}

// Analyze computes the resource report for a snapshot.
func (c *Calculator) Analyze(s *Snapshot) *Report {
	r := &Report{
		DisasterID:       s.Disaster.ID,
		DisasterName:     s.Disaster.Name,
		Tier:             s.Disaster.Tier,
		HorizonDays:      c.horizonDays,
		ActiveVolunteers: s.ActiveVolunteers,
		LowStock:         []model.ReliefSupply{},
	}

	for _, sh := range s.Shelters {
		r.ShelteredPopulation += int64(sh.CurrentOccupancy)
		if sh.Status == model.ShelterClosed {
			continue
		}
		r.ShelterCapacity += int64(sh.Capacity)
		switch sh.DerivedStatus() {
		case model.ShelterFull:
			r.FullShelters++
		case model.ShelterOpen:
			r.OpenShelters++
		}
	}
	if r.ShelterCapacity > 0 {
		r.Utilization = math.Round(float64(r.ShelteredPopulation)/float64(r.ShelterCapacity)*1e4) / 1e4
	}

	available := make(map[string]int64)
	for _, sup := range s.Supplies {
		available[sup.Category] += int64(sup.Quantity)
		if sup.LowStock() {
			r.LowStock = append(r.LowStock, sup)
		}
	}
	for _, res := range s.AgencyResources {
		available[res.Category] += int64(res.Quantity)
	}

	categories := make(map[string]bool, len(c.perCapita)+len(available))
	for cat := range c.perCapita {
		categories[cat] = true
	}
	for cat := range available {
		categories[cat] = true
	}

	r.Needs = make([]CategoryNeed, 0, len(categories))
	for cat := range categories {
		n := CategoryNeed{
			Category:  cat,
			PerCapita: c.perCapita[cat],
			Available: available[cat],
		}
		n.Need = need(n.PerCapita, r.ShelteredPopulation, c.horizonDays)
		if n.Need > n.Available {
			n.Shortfall = n.Need - n.Available
		}
		r.Needs = append(r.Needs, n)
	}
	sort.Slice(r.Needs, func(i, j int) bool { return r.Needs[i].Category < r.Needs[j].Category })

	return r
}

// Summarize reduces a report to its headline numbers.
func Summarize(r *Report) Summary {
	s := Summary{
		DisasterID:          r.DisasterID,
		DisasterName:        r.DisasterName,
		Tier:                r.Tier,
		ShelteredPopulation: r.ShelteredPopulation,
		Utilization:         r.Utilization,
		ActiveVolunteers:    r.ActiveVolunteers,
		ShortfallCategories: []string{},
		LowStockCount:       len(r.LowStock),
	}
	for _, n := range r.Needs {
		if n.Shortfall > 0 {
			s.ShortfallCategories = append(s.ShortfallCategories, n.Category)
		}
	}
	return s
}
