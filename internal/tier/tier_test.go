package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
)

func TestEvaluate(t *testing.T) {
	thresholds := config.DefaultTiers()

	testCases := []struct {
		name     string
		disaster model.Disaster
		want     int
		reasons  int
	}{
		{
			name:     "Nothing met stays at tier 1",
			disaster: model.Disaster{Severity: model.SeverityLow, AffectedPopulation: 10},
			want:     1,
		},
		{
			name:     "Severity alone",
			disaster: model.Disaster{Severity: model.SeverityHigh},
			want:     3,
			reasons:  1,
		},
		{
			name:     "Population outranks severity",
			disaster: model.Disaster{Severity: model.SeverityModerate, AffectedPopulation: 250000},
			want:     4,
			reasons:  1,
		},
		{
			name:     "Casualties at the boundary",
			disaster: model.Disaster{Severity: model.SeverityLow, Casualties: 10},
			want:     3,
			reasons:  1,
		},
		{
			name:     "Several criteria at the same tier",
			disaster: model.Disaster{Severity: model.SeverityCritical, AffectedPopulation: 100000, Casualties: 150},
			want:     4,
			reasons:  3,
		},
		{
			name:     "Unknown severity counts as nothing",
			disaster: model.Disaster{Severity: "apocalyptic"},
			want:     1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(thresholds, &tc.disaster)
			assert.Equal(t, tc.want, got.Tier)
			assert.Len(t, got.Reasons, tc.reasons)
		})
	}
}

func TestEvaluate_IgnoresDisabledCriteria(t *testing.T) {
	thresholds := []config.TierThreshold{
		{Tier: 2, MinCasualties: 1},
		{Tier: 4, MinSeverity: model.SeverityCritical},
	}
	got := Evaluate(thresholds, &model.Disaster{Severity: model.SeverityLow})
	assert.Equal(t, 1, got.Tier)
	assert.NotNil(t, got.Reasons)

	got = Evaluate(thresholds, &model.Disaster{Severity: model.SeverityLow, Casualties: 2})
	assert.Equal(t, 2, got.Tier)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(1))
	assert.True(t, Valid(4))
	assert.False(t, Valid(0))
	assert.False(t, Valid(5))
}
