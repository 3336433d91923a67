package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdwatch/internal/contracts"
)

func TestReadSnapshotFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		wantDate string
		wantErr  bool
	}{
		{"bare array", `[{"code":"B","name":"Beta","weight_pct":10},{"code":"A","name":"Alpha","weight_pct":90}]`, "", false},
		{"snapshot object", `{"date":"2024-01-02","holdings":[{"code":"A","name":"Alpha","weight_pct":90},{"code":"B","name":"Beta","weight_pct":10}]}`, "2024-01-02", false},
		{"malformed", `[{"code":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			snap, err := readSnapshotFile(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, snap.Date)
			assert.Equal(t, []string{"A", "B"}, snap.Codes())
		})
	}

	_, err := readSnapshotFile(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	err := printResults(&buf, []contracts.AttributionResult{
		{Code: "A", Name: "Alpha", OldWeight: 10, NowWeight: 12, TotalDiff: 2, ActiveDiff: 1.5, PassiveDrift: 0.5, Category: contracts.CategoryBuy},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "+1.50")
	assert.Contains(t, out, "buy")
}

func TestThresholdsFromConfig(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	th := thresholdsFromConfig(cfg)
	assert.NoError(t, th.Validate())
	assert.Equal(t, cfg.Attribution.ActiveThreshold, th.ActiveThreshold)
}
