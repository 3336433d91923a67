package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdwatch/internal/attribution"
	"github.com/wonny/holdwatch/internal/contracts"
)

func sampleResults() []contracts.AttributionResult {
	return []contracts.AttributionResult{
		{Code: "NVDA", Name: "NVIDIA", NowWeight: 5, OldWeight: 0, TotalDiff: 5, ActiveDiff: 5, PassiveDrift: 0, Category: contracts.CategoryNew},
		{Code: "BRK", Name: "Berkshire | B", NowWeight: 10.5, OldWeight: 12, TotalDiff: -1.5, ActiveDiff: -1.2, PassiveDrift: -0.3, Category: contracts.CategorySell},
	}
}

func TestMarkdown(t *testing.T) {
	results := sampleResults()
	md, err := Markdown("2024-01-03", "2024-01-02", results, attribution.Summarize(results), nil)
	require.NoError(t, err)

	assert.Contains(t, md, "# Holdings report 2024-01-03")
	assert.Contains(t, md, "Compared with 2024-01-02.")
	assert.Contains(t, md, "**2 changes** · new 1 · sell 1")
	assert.Contains(t, md, "| NVDA | NVIDIA | 0.00 | 5.00 | +5.00 | +5.00 | +0.00 | new |")
	assert.Contains(t, md, `| BRK | Berkshire \| B | 12.00 | 10.50 | -1.50 | -1.20 | -0.30 | sell |`)
	assert.Contains(t, md, "Active change is an estimate")

	// NVDA ranks first
	assert.Less(t, strings.Index(md, "| NVDA"), strings.Index(md, "| BRK"))
}

func TestMarkdown_Empty(t *testing.T) {
	md, err := Markdown("2024-01-03", "", nil, attribution.Summarize(nil), nil)
	require.NoError(t, err)

	assert.Contains(t, md, "First observation")
	assert.Contains(t, md, "Nothing changed beyond noise.")
	assert.NotContains(t, md, "| Code |")
	assert.Contains(t, md, "Active change is an estimate")
}

func TestHTML(t *testing.T) {
	results := sampleResults()
	md, err := Markdown("2024-01-03", "2024-01-02", results, attribution.Summarize(results), nil)
	require.NoError(t, err)

	doc, err := HTML("Holdings <2024-01-03>", md)
	require.NoError(t, err)

	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, "<title>Holdings &lt;2024-01-03&gt;</title>")
	assert.Contains(t, doc, "<table>")
	assert.Contains(t, doc, "<td>NVDA</td>")
	assert.Contains(t, doc, "<h1>Holdings report 2024-01-03</h1>")
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Holdings 2024-01-03: no changes", Subject("2024-01-03", attribution.Summarize(nil), 0))
	assert.Equal(t, "Holdings 2024-01-03: 2 changes", Subject("2024-01-03", attribution.Summarize(sampleResults()), 0))
	assert.Equal(t, "Holdings 2024-01-03: no changes, 1 new memo", Subject("2024-01-03", attribution.Summarize(nil), 1))
	assert.Equal(t, "Holdings 2024-01-03: 2 changes, 3 new memos", Subject("2024-01-03", attribution.Summarize(sampleResults()), 3))
}

func TestMarkdown_Memos(t *testing.T) {
	memos := []contracts.Memo{
		{Key: "2024-01-03", Title: "2024年1月3日 Trimming banks", DateText: "January 3, 2024", Body: "Sold half of the position.\n\nAdded to NVDA."},
		{Key: "Housekeeping", Title: "Housekeeping", Body: "No trades."},
	}

	md, err := Markdown("2024-01-03", "2024-01-02", nil, attribution.Summarize(nil), memos)
	require.NoError(t, err)

	assert.Contains(t, md, "Nothing changed beyond noise.")
	assert.Contains(t, md, "## New memos")
	assert.Contains(t, md, "### 2024年1月3日 Trimming banks\n\n_January 3, 2024_\n\nSold half of the position.\n\nAdded to NVDA.\n")
	assert.Contains(t, md, "### Housekeeping\n\nNo trades.\n")
	assert.Less(t, strings.Index(md, "Active change is an estimate"), strings.Index(md, "## New memos"))

	doc, err := HTML("memos", md)
	require.NoError(t, err)
	assert.Contains(t, doc, "<h2>New memos</h2>")
	assert.Contains(t, doc, "<em>January 3, 2024</em>")
}

func TestMarkdown_NoMemosSection(t *testing.T) {
	md, err := Markdown("2024-01-03", "2024-01-02", nil, attribution.Summarize(nil), nil)
	require.NoError(t, err)
	assert.NotContains(t, md, "New memos")
	assert.True(t, strings.HasSuffix(md, "yesterday's weights._\n"))
}
