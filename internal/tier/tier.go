// Package tier computes the response tier a disaster warrants.
package tier

import (
	"fmt"

	"relief-ops-backend/config"
	"relief-ops-backend/internal/model"
)

// Result is the outcome of evaluating a disaster against the thresholds.
type Result struct {
	Tier    int      `json:"tier"`
	Reasons []string `json:"reasons"`
}

// Evaluate returns the highest tier for which the disaster meets any criterion.
// Zero or empty criteria are ignored. Disasters that meet nothing stay at tier 1.
func Evaluate(thresholds []config.TierThreshold, d *model.Disaster) Result {
	res := Result{Tier: model.MinTier, Reasons: []string{}}
	for _, t := range thresholds {
		reasons := match(t, d)
		if len(reasons) > 0 && t.Tier > res.Tier {
			res.Tier = t.Tier
			res.Reasons = reasons
		}
	}
	return res
}

func match(t config.TierThreshold, d *model.Disaster) []string {
	var reasons []string
	if t.MinSeverity != "" && model.SeverityRank(d.Severity) >= model.SeverityRank(t.MinSeverity) {
		reasons = append(reasons, fmt.Sprintf("severity %s >= %s", d.Severity, t.MinSeverity))
	}
	if t.MinAffectedPopulation > 0 && d.AffectedPopulation >= t.MinAffectedPopulation {
		reasons = append(reasons, fmt.Sprintf("affected population %d >= %d", d.AffectedPopulation, t.MinAffectedPopulation))
	}
	if t.MinCasualties > 0 && d.Casualties >= t.MinCasualties {
		reasons = append(reasons, fmt.Sprintf("casualties %d >= %d", d.Casualties, t.MinCasualties))
	}
	return reasons
}

// Valid reports whether n is a tier a disaster can hold.
func Valid(n int) bool {
	return n >= model.MinTier && n <= model.MaxTier
}
