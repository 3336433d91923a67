package attribution

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ReturnLookup supplies a fractional day-over-day return per security.
// Implementations never fail: any resolution problem yields 0.0.
type ReturnLookup interface {
	ReturnOf(ctx context.Context, code string) float64
}

// ReturnFunc adapts a plain function to ReturnLookup
type ReturnFunc func(ctx context.Context, code string) float64

// ReturnOf implements ReturnLookup
func (f ReturnFunc) ReturnOf(ctx context.Context, code string) float64 {
	return f(ctx, code)
}

// StaticReturns is an in-memory lookup; unknown codes return 0
type StaticReturns map[string]float64

// ReturnOf implements ReturnLookup
func (s StaticReturns) ReturnOf(_ context.Context, code string) float64 {
	return s[code]
}

// DefaultWorkers bounds concurrent lookups when no limit is given
const DefaultWorkers = 4

// ResolveReturns calls lookup exactly once per distinct code.
// Lookups run in parallel with at most workers in flight; non-finite values
// are coerced to 0 like any other failed resolution.
func ResolveReturns(ctx context.Context, lookup ReturnLookup, codes []string, workers int) map[string]float64 {
	unique := dedupe(codes)
	values := make([]float64, len(unique))

	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, code := range unique {
		g.Go(func() error {
			r := lookup.ReturnOf(gctx, code)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			values[i] = r
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	returns := make(map[string]float64, len(unique))
	for i, code := range unique {
		returns[code] = values[i]
	}
	return returns
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
