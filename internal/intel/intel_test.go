package intel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
)

func needFor(t *testing.T, r *Report, category string) CategoryNeed {
	t.Helper()
	for _, n := range r.Needs {
		if n.Category == category {
			return n
		}
	}
	require.Failf(t, "missing category", "no need computed for %q", category)
	return CategoryNeed{}
}

func TestAnalyze(t *testing.T) {
	calc := NewCalculator(config.ResourceIntelConfig{
		HorizonDays: 3,
		PerCapita:   map[string]float64{"water": 15, "food": 3, "medical": 0.1},
	})

	snap := &Snapshot{
		Disaster: model.Disaster{ID: 7, Name: "River flood", Tier: 3},
		Shelters: []model.Shelter{
			{Capacity: 100, CurrentOccupancy: 60, Status: model.ShelterOpen},
			{Capacity: 40, CurrentOccupancy: 40, Status: model.ShelterFull},
			{Capacity: 50, CurrentOccupancy: 0, Status: model.ShelterClosed},
		},
		Supplies: []model.ReliefSupply{
			{Name: "Bottled water", Category: "water", Quantity: 2000, ReorderLevel: 500},
			{Name: "Ration packs", Category: "food", Quantity: 100, ReorderLevel: 200},
			{Name: "Blankets", Category: "shelter", Quantity: 30, ReorderLevel: 10},
		},
		AgencyResources: []model.AgencyResource{
			{Category: "food", Quantity: 50},
			{Category: "water", Quantity: 250},
		},
		ActiveVolunteers: 4,
	}

	r := calc.Analyze(snap)

	assert.Equal(t, int64(7), r.DisasterID)
	assert.Equal(t, int64(100), r.ShelteredPopulation)
	assert.Equal(t, int64(140), r.ShelterCapacity)
	assert.InDelta(t, 0.7143, r.Utilization, 1e-9)
	assert.Equal(t, 1, r.OpenShelters)
	assert.Equal(t, 1, r.FullShelters)
	assert.Equal(t, int64(4), r.ActiveVolunteers)

	water := needFor(t, r, "water")
	assert.Equal(t, int64(4500), water.Need)
	assert.Equal(t, int64(2250), water.Available)
	assert.Equal(t, int64(2250), water.Shortfall)

	food := needFor(t, r, "food")
	assert.Equal(t, int64(900), food.Need)
	assert.Equal(t, int64(150), food.Available)
	assert.Equal(t, int64(750), food.Shortfall)

	medical := needFor(t, r, "medical")
	assert.Equal(t, int64(30), medical.Need, "0.1 * 100 * 3 must not round up to 31")

	blankets := needFor(t, r, "shelter")
	assert.Equal(t, int64(0), blankets.Need)
	assert.Equal(t, int64(0), blankets.Shortfall)

	require.Len(t, r.LowStock, 1)
	assert.Equal(t, "Ration packs", r.LowStock[0].Name)

	categories := make([]string, len(r.Needs))
	for i, n := range r.Needs {
		categories[i] = n.Category
	}
	assert.IsIncreasing(t, categories)

	s := Summarize(r)
	assert.ElementsMatch(t, []string{"water", "food", "medical"}, s.ShortfallCategories)
	assert.Equal(t, 1, s.LowStockCount)
}

func TestAnalyze_NoShelters(t *testing.T) {
	calc := NewCalculator(config.ResourceIntelConfig{HorizonDays: 3, PerCapita: config.DefaultPerCapita()})
	r := calc.Analyze(&Snapshot{Disaster: model.Disaster{ID: 1}})

	assert.Zero(t, r.ShelteredPopulation)
	assert.Zero(t, r.Utilization)
	assert.NotNil(t, r.LowStock)
	for _, n := range r.Needs {
		assert.Zero(t, n.Need)
		assert.Zero(t, n.Shortfall)
	}
	assert.Empty(t, Summarize(r).ShortfallCategories)
}

func TestNeedCeiling(t *testing.T) {
	assert.Equal(t, int64(1), need(0.1, 1, 1))
	assert.Equal(t, int64(2), need(0.5, 3, 1))
	assert.Equal(t, int64(0), need(0, 1000, 3))
}
