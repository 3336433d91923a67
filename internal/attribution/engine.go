package attribution

import (
	"context"
	"math"
	"sort"

	"github.com/wonny/holdwatch/internal/contracts"
)

// Engine decomposes weight changes into active (trading) and passive
// (price drift) components.
// ⭐ SSOT: the no-trade weight model lives only here
//
// The model applies today's returns to yesterday's weights, so ActiveDiff is
// an estimate, not ground truth.
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine with the given thresholds
func NewEngine(th Thresholds) *Engine {
	return &Engine{thresholds: th}
}

// Thresholds returns the engine policy
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Run resolves one return per security of the union of both snapshots, then
// attributes. Lookups may run in parallel; the decomposition does not.
func (e *Engine) Run(ctx context.Context, today, yesterday contracts.Snapshot, lookup ReturnLookup, workers int) ([]contracts.AttributionResult, error) {
	codes := append(today.Codes(), yesterday.Codes()...)
	returns := ResolveReturns(ctx, lookup, codes, workers)
	return e.Attribute(today, yesterday, returns)
}

// Attribute computes the ranked attribution rows.
// returns maps code -> fractional return; missing codes count as 0.
func (e *Engine) Attribute(today, yesterday contracts.Snapshot, returns map[string]float64) ([]contracts.AttributionResult, error) {
	wNow := today.Weights()
	wOld := yesterday.Weights()
	codes := unionCodes(wNow, wOld)

	rp := PortfolioReturn(yesterday, returns)
	denom := 1 + rp

	results := make([]contracts.AttributionResult, 0, len(codes))
	for _, code := range codes {
		old := wOld[code]
		now := wNow[code]
		total := now - old

		expected := 0.0
		if old > 0 {
			if denom == 0 {
				return nil, &ComputationError{Code: code, PortfolioReturn: rp, Err: ErrDegeneratePortfolio}
			}
			expected = old * (1 + returns[code]) / denom
		}

		active := now - expected
		passive := total - active

		if !finite(expected, active, passive) {
			return nil, &ComputationError{Code: code, PortfolioReturn: rp, Err: ErrNonFinite}
		}

		if math.Abs(total) < e.thresholds.NoiseTotal && math.Abs(active) < e.thresholds.NoiseActive {
			continue
		}

		category, keep := e.classify(old, now, total, active)
		if !keep {
			continue
		}

		results = append(results, contracts.AttributionResult{
			Code:         code,
			Name:         nameOf(code, today, yesterday),
			NowWeight:    now,
			OldWeight:    old,
			TotalDiff:    total,
			ActiveDiff:   active,
			PassiveDrift: passive,
			Category:     category,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		ai, aj := math.Abs(results[i].ActiveDiff), math.Abs(results[j].ActiveDiff)
		if ai != aj {
			return ai > aj
		}
		return results[i].Code < results[j].Code
	})

	return results, nil
}

// PortfolioReturn is R_p: the return yesterday's holdings would have earned
// with share counts fixed. Summed in code order so results are reproducible
// bit for bit.
func PortfolioReturn(yesterday contracts.Snapshot, returns map[string]float64) float64 {
	wOld := yesterday.Weights()
	codes := make([]string, 0, len(wOld))
	for code := range wOld {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rp := 0.0
	for _, code := range codes {
		rp += (wOld[code] / 100) * returns[code]
	}
	return rp
}

// classify applies the category rules in order; false means drop the row
func (e *Engine) classify(old, now, total, active float64) (contracts.Category, bool) {
	switch {
	case old == 0:
		return contracts.CategoryNew, true
	case now == 0:
		return contracts.CategorySold, true
	case active > e.thresholds.ActiveThreshold:
		return contracts.CategoryBuy, true
	case active < -e.thresholds.ActiveThreshold:
		return contracts.CategorySell, true
	case math.Abs(total) < e.thresholds.DriftMinTotal:
		return "", false
	default:
		return contracts.CategoryDrift, true
	}
}

func unionCodes(a, b map[string]float64) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for code := range a {
		seen[code] = struct{}{}
	}
	for code := range b {
		seen[code] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func nameOf(code string, today, yesterday contracts.Snapshot) string {
	if h, ok := today.Get(code); ok && h.Name != "" {
		return h.Name
	}
	if h, ok := yesterday.Get(code); ok {
		return h.Name
	}
	return ""
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
