package attribution

import "fmt"

// Thresholds holds the classification policy, in percentage points
// ⭐ SSOT: defaults must stay at 0.1 / 0.2 / 0.15 / 0.5
type Thresholds struct {
	NoiseTotal      float64 `json:"noise_total"`      // |total| below this may be display rounding
	NoiseActive     float64 `json:"noise_active"`     // ...as long as |active| is also below this
	ActiveThreshold float64 `json:"active_threshold"` // |active| above this is a buy/sell
	DriftMinTotal   float64 `json:"drift_min_total"`  // pure drift rows below this are not reported
}

// DefaultThresholds returns the observed production policy
func DefaultThresholds() Thresholds {
	return Thresholds{
		NoiseTotal:      0.1,
		NoiseActive:     0.2,
		ActiveThreshold: 0.15,
		DriftMinTotal:   0.5,
	}
}

// Validate rejects negative thresholds
func (t Thresholds) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"noise_total", t.NoiseTotal},
		{"noise_active", t.NoiseActive},
		{"active_threshold", t.ActiveThreshold},
		{"drift_min_total", t.DriftMinTotal},
	}
	for _, c := range checks {
		if c.value < 0 {
			return fmt.Errorf("threshold %s must be >= 0, got %v", c.name, c.value)
		}
	}
	return nil
}
