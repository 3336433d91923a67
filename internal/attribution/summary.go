package attribution

import (
	"math"

	"github.com/wonny/holdwatch/internal/contracts"
)

// Summary aggregates a ranked result list for reports and the API
type Summary struct {
	Rows          int                        `json:"rows"`
	ByCategory    map[contracts.Category]int `json:"by_category"`
	GrossActive   float64                    `json:"gross_active"`  // Σ|active_diff|
	GrossPassive  float64                    `json:"gross_passive"` // Σ|passive_drift|
	NetActive     float64                    `json:"net_active"`
	HasTrades     bool                       `json:"has_trades"` // any row other than drift
	TopActiveCode string                     `json:"top_active_code,omitempty"`
}

// Summarize builds a Summary; results are expected in ranked order
func Summarize(results []contracts.AttributionResult) Summary {
	s := Summary{
		Rows:       len(results),
		ByCategory: make(map[contracts.Category]int, len(contracts.Categories)),
	}

	for _, r := range results {
		s.ByCategory[r.Category]++
		s.GrossActive += math.Abs(r.ActiveDiff)
		s.GrossPassive += math.Abs(r.PassiveDrift)
		s.NetActive += r.ActiveDiff
		if r.Category != contracts.CategoryDrift {
			s.HasTrades = true
		}
	}

	if len(results) > 0 {
		s.TopActiveCode = results[0].Code
	}

	return s
}

