package contracts

import (
	"sort"
	"strings"
)

// Holding is one security's weight in a snapshot
type Holding struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	WeightPct float64 `json:"weight_pct"` // 0 ~ 100, display data may be noisy
}

// Snapshot is the full set of holdings observed on one date
// ⭐ SSOT: Holdings are unique by Code and ordered by weight desc
type Snapshot struct {
	Date     string    `json:"date"` // YYYY-MM-DD
	Holdings []Holding `json:"holdings"`
}

// NewSnapshot normalizes raw holdings into a Snapshot.
// Empty codes are dropped, duplicate codes keep the last-seen record, and the
// result is ordered by weight desc with code asc as tie-break.
func NewSnapshot(date string, holdings []Holding) Snapshot {
	index := make(map[string]int, len(holdings))
	normalized := make([]Holding, 0, len(holdings))

	for _, h := range holdings {
		h.Code = strings.TrimSpace(h.Code)
		if h.Code == "" {
			continue
		}
		if i, ok := index[h.Code]; ok {
			normalized[i] = h
			continue
		}
		index[h.Code] = len(normalized)
		normalized = append(normalized, h)
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		if normalized[i].WeightPct != normalized[j].WeightPct {
			return normalized[i].WeightPct > normalized[j].WeightPct
		}
		return normalized[i].Code < normalized[j].Code
	})

	return Snapshot{Date: date, Holdings: normalized}
}

// Weights returns code -> weight_pct
func (s Snapshot) Weights() map[string]float64 {
	weights := make(map[string]float64, len(s.Holdings))
	for _, h := range s.Holdings {
		weights[h.Code] = h.WeightPct
	}
	return weights
}

// Get finds a holding by code
func (s Snapshot) Get(code string) (Holding, bool) {
	for _, h := range s.Holdings {
		if h.Code == code {
			return h, true
		}
	}
	return Holding{}, false
}

// Codes returns the codes in snapshot order
func (s Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		codes = append(codes, h.Code)
	}
	return codes
}

// Len returns the number of holdings
func (s Snapshot) Len() int {
	return len(s.Holdings)
}

// IsEmpty reports whether the snapshot holds nothing (cold start)
func (s Snapshot) IsEmpty() bool {
	return len(s.Holdings) == 0
}

// TotalWeight returns the sum of all weights
func (s Snapshot) TotalWeight() float64 {
	total := 0.0
	for _, h := range s.Holdings {
		total += h.WeightPct
	}
	return total
}
