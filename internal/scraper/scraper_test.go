package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/httputil"
	"github.com/wonny/holdwatch/pkg/logger"
)

const holdingsPage = `<html><body><table>
<tr><td>
  <div class="flex"><span class="font-semibold">Apple Inc.</span><div class="text-xs text-muted-foreground">AAPL</div></div>
  <div class="text-right">23.4%</div>
</td></tr>
<tr><td>
  <div class="flex"><span class="font-semibold">Microsoft</span><div class="text-xs text-muted-foreground"> MSFT </div></div>
  <div class="text-right">7%</div>
</td></tr>
<tr><td>
  <div class="flex"><div class="text-xs text-muted-foreground">NONAME</div></div>
  <div class="text-right">1.5%</div>
</td></tr>
<tr><td>
  <div class="flex"><span class="font-semibold">No Weight</span><div class="text-xs text-muted-foreground">NOPCT</div></div>
  <div class="text-right">N/A</div>
</td></tr>
<tr><td>
  <div class="flex"><div class="text-xs text-muted-foreground">Updated every trading day</div></div>
  <div>100%</div>
</td></tr>
<tr><td>
  <div class="flex"><span class="font-semibold">Apple Inc.</span><div class="text-xs text-muted-foreground">AAPL</div></div>
  <div class="text-right">24.0%</div>
</td></tr>
</table></body></html>`

type staticFetcher struct {
	html string
	err  error
}

func (f staticFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	return f.html, f.err
}

func TestParseHoldings(t *testing.T) {
	parsed, err := ParseHoldings(holdingsPage)
	require.NoError(t, err)

	assert.Equal(t, []contracts.Holding{
		{Code: "AAPL", Name: "Apple Inc.", WeightPct: 23.4},
		{Code: "MSFT", Name: "Microsoft", WeightPct: 7},
		{Code: "NONAME", Name: "Unknown", WeightPct: 1.5},
		{Code: "AAPL", Name: "Apple Inc.", WeightPct: 24.0},
	}, parsed.Holdings)
	assert.Equal(t, []string{"NOPCT"}, parsed.Skipped)
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"AAPL Apple 12.5% +0.3%", 12.5, true},
		{"weight 3 %", 3, true},
		{"0.25%", 0.25, true},
		{"no percent here", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parseWeight(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScraper_Today(t *testing.T) {
	s := New(staticFetcher{html: holdingsPage}, "https://example.test/", logger.NewNop())

	snap, err := s.Today(context.Background(), "2024-01-03")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-03", snap.Date)
	assert.Equal(t, []string{"AAPL", "MSFT", "NONAME"}, snap.Codes())
	// Duplicate ticker keeps the last observed row
	h, ok := snap.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, 24.0, h.WeightPct)
}

func TestScraper_Today_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fetcher Fetcher
		wantErr error
	}{
		{"empty page", staticFetcher{html: "<html><body></body></html>"}, ErrNoHoldings},
		{"fetch failure", staticFetcher{err: errors.New("boom")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.fetcher, "https://example.test/", logger.NewNop())
			_, err := s.Today(context.Background(), "2024-01-03")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(holdingsPage))
	}))
	defer srv.Close()

	log := logger.NewNop()
	s := New(NewHTTPFetcher(httputil.New(log).DisableRetry()), srv.URL, log)

	snap, err := s.Today(context.Background(), "2024-01-03")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())
}

func TestParseHoldings_TickerLengthCountsCharacters(t *testing.T) {
	page := `<html><body>
<div><div><span class="font-semibold">Tencent</span><div class="text-xs text-muted-foreground">腾讯控股</div></div><div>3.2%</div></div>
<div><div><span class="font-semibold">Kweichow Moutai</span><div class="text-xs text-muted-foreground">贵州茅台酒股份有限</div></div><div>1.1%</div></div>
<div><div><span class="font-semibold">Samsung</span><div class="text-xs text-muted-foreground">삼성전자우선주</div></div><div>2%</div></div>
</body></html>`

	parsed, err := ParseHoldings(page)
	require.NoError(t, err)

	// 4 and 7 characters are kept even though they exceed 8 bytes; 9 characters is too long
	assert.Equal(t, []contracts.Holding{
		{Code: "腾讯控股", Name: "Tencent", WeightPct: 3.2},
		{Code: "삼성전자우선주", Name: "Samsung", WeightPct: 2},
	}, parsed.Holdings)
	assert.Empty(t, parsed.Skipped)
}
