package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/holdwatch/internal/attribution"
	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/internal/history"
	"github.com/wonny/holdwatch/internal/notify"
	"github.com/wonny/holdwatch/pkg/logger"
)

type fakeSource struct {
	holdings []contracts.Holding
	err      error
}

func (f fakeSource) Today(ctx context.Context, date string) (contracts.Snapshot, error) {
	if f.err != nil {
		return contracts.Snapshot{}, f.err
	}
	return contracts.NewSnapshot(date, f.holdings), nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, alert notify.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return f.err
}

func snapshot(date string, weights map[string]float64) contracts.Snapshot {
	holdings := make([]contracts.Holding, 0, len(weights))
	for code, w := range weights {
		holdings = append(holdings, contracts.Holding{Code: code, Name: code + " Corp", WeightPct: w})
	}
	return contracts.NewSnapshot(date, holdings)
}

func newRunner(store history.Store, src SnapshotSource, returns attribution.StaticReturns, n notify.Notifier) *Runner {
	return NewRunner(Config{
		Store:    store,
		Source:   src,
		Lookup:   returns,
		Notifier: n,
		Workers:  2,
	}, logger.NewNop())
}

func TestRun_ColdStart(t *testing.T) {
	store := history.NewMemoryStore(nil)
	n := &fakeNotifier{}
	src := fakeSource{holdings: []contracts.Holding{
		{Code: "AAPL", Name: "Apple", WeightPct: 60},
		{Code: "MSFT", Name: "Microsoft", WeightPct: 40},
	}}

	r := newRunner(store, src, attribution.StaticReturns{}, n)
	res, err := r.Run(context.Background(), "2024-01-02")
	require.NoError(t, err)

	assert.True(t, res.ColdStart)
	assert.Empty(t, res.PrevDate)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Results, 2)
	for _, row := range res.Results {
		assert.Equal(t, contracts.CategoryNew, row.Category)
		assert.Equal(t, row.TotalDiff, row.ActiveDiff)
		assert.Equal(t, 0.0, row.PassiveDrift)
	}

	require.Len(t, n.alerts, 1)
	assert.True(t, res.Notified)
	assert.Equal(t, res.RunID, n.alerts[0].RunID)
	assert.Contains(t, n.alerts[0].HTML, "<table>")

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-02"}, saved.Dates())
	assert.Same(t, res, r.Latest())
}

func TestRun_ComparesWithPreviousDay(t *testing.T) {
	h := contracts.History{}
	h.Put(snapshot("2024-01-01", map[string]float64{"A": 30, "B": 70}))
	h.Put(snapshot("2024-01-02", map[string]float64{"A": 50, "B": 50}))
	// A stale same-day entry from an earlier run
	h.Put(snapshot("2024-01-03", map[string]float64{"A": 99, "B": 1}))
	store := history.NewMemoryStore(h)

	n := &fakeNotifier{}
	src := fakeSource{holdings: []contracts.Holding{
		{Code: "A", WeightPct: 55},
		{Code: "B", WeightPct: 45},
	}}

	r := newRunner(store, src, attribution.StaticReturns{}, n)
	res, err := r.Run(context.Background(), "2024-01-03")
	require.NoError(t, err)

	assert.Equal(t, "2024-01-02", res.PrevDate)
	assert.False(t, res.ColdStart)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "A", res.Results[0].Code)
	assert.Equal(t, contracts.CategoryBuy, res.Results[0].Category)
	assert.InDelta(t, 5.0, res.Results[0].ActiveDiff, 1e-9)
	// Name falls back to the previous snapshot
	assert.Equal(t, "A Corp", res.Results[0].Name)
	assert.Equal(t, contracts.CategorySell, res.Results[1].Category)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, saved.Dates())
	assert.Equal(t, 55.0, saved["2024-01-03"].Weights()["A"])
}

func TestRun_NothingChanged(t *testing.T) {
	h := contracts.History{}
	h.Put(snapshot("2024-01-02", map[string]float64{"A": 50, "B": 50}))
	store := history.NewMemoryStore(h)
	n := &fakeNotifier{}
	src := fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 50}, {Code: "B", WeightPct: 50}}}

	r := newRunner(store, src, attribution.StaticReturns{}, n)
	res, err := r.Run(context.Background(), "2024-01-03")
	require.NoError(t, err)

	assert.Empty(t, res.Results)
	assert.Empty(t, n.alerts)
	assert.False(t, res.Notified)
	assert.Contains(t, res.Markdown, "Nothing changed beyond noise.")
	assert.Equal(t, 1, store.Saves())
}

func TestRun_NotifyFailureIsNotFatal(t *testing.T) {
	store := history.NewMemoryStore(nil)
	n := &fakeNotifier{err: errors.New("smtp down")}
	src := fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 100}}}

	r := newRunner(store, src, attribution.StaticReturns{}, n)
	res, err := r.Run(context.Background(), "2024-01-02")
	require.NoError(t, err)

	assert.False(t, res.Notified)
	assert.Equal(t, "smtp down", res.NotifyErr)
	assert.Equal(t, 1, store.Saves())
}

func TestRun_Failures(t *testing.T) {
	degenerate := contracts.History{}
	degenerate.Put(snapshot("2024-01-02", map[string]float64{"A": 100}))

	tests := []struct {
		name    string
		history contracts.History
		source  fakeSource
		returns attribution.StaticReturns
		date    string
		wantErr error
	}{
		{
			name:   "invalid date",
			source: fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 100}}},
			date:   "03/01/2024",
		},
		{
			name:   "source failure",
			source: fakeSource{err: errors.New("page down")},
			date:   "2024-01-03",
		},
		{
			name:    "degenerate portfolio",
			history: degenerate,
			source:  fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 100}}},
			returns: attribution.StaticReturns{"A": -1},
			date:    "2024-01-03",
			wantErr: attribution.ErrDegeneratePortfolio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := history.NewMemoryStore(tt.history)
			n := &fakeNotifier{}
			r := newRunner(store, tt.source, tt.returns, n)

			res, err := r.Run(context.Background(), tt.date)
			require.Error(t, err)
			assert.Nil(t, res)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Equal(t, 0, store.Saves())
			assert.Empty(t, n.alerts)
			assert.Nil(t, r.Latest())
		})
	}
}

func TestRun_NilNotifier(t *testing.T) {
	store := history.NewMemoryStore(nil)
	src := fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 100}}}

	r := newRunner(store, src, attribution.StaticReturns{}, nil)
	res, err := r.Run(context.Background(), "2024-01-02")
	require.NoError(t, err)
	assert.False(t, res.Notified)
	assert.Len(t, res.Results, 1)
}

type fakeMemos struct {
	memos []contracts.Memo
	err   error
}

func (f fakeMemos) Memos(ctx context.Context) ([]contracts.Memo, error) {
	return f.memos, f.err
}

func TestRun_NewMemosAlertEvenWithoutChanges(t *testing.T) {
	h := contracts.History{}
	h.Put(snapshot("2024-01-02", map[string]float64{"A": 50, "B": 50}))
	store := history.NewMemoryStore(h)
	_, err := store.AddMemos(context.Background(), []contracts.Memo{{Key: "2024-01-02", Title: "Old memo", Body: "seen"}})
	require.NoError(t, err)

	n := &fakeNotifier{}
	src := fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 50}, {Code: "B", WeightPct: 50}}}
	memos := fakeMemos{memos: []contracts.Memo{
		{Key: "2024-01-03", Title: "Why I kept A", Body: "Still cheap."},
		{Key: "2024-01-02", Title: "Old memo", Body: "seen"},
	}}

	r := NewRunner(Config{
		Store:     store,
		Source:    src,
		Lookup:    attribution.StaticReturns{},
		Notifier:  n,
		Memos:     memos,
		MemoStore: store,
	}, logger.NewNop())

	res, err := r.Run(context.Background(), "2024-01-03")
	require.NoError(t, err)

	assert.Empty(t, res.Results)
	require.Len(t, res.NewMemos, 1)
	assert.Equal(t, "Why I kept A", res.NewMemos[0].Title)
	assert.Contains(t, res.Markdown, "### Why I kept A")
	assert.NotContains(t, res.Markdown, "### Old memo")

	require.Len(t, n.alerts, 1)
	assert.Equal(t, "Holdings 2024-01-03: no changes, 1 new memo", n.alerts[0].Subject)
	assert.Equal(t, res.NewMemos, n.alerts[0].Memos)

	stored, err := r.Memos(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "2024-01-03", stored[0].Key)

	// Memos already stored are not reported again
	res, err = r.Run(context.Background(), "2024-01-04")
	require.NoError(t, err)
	assert.Empty(t, res.NewMemos)
	assert.Len(t, n.alerts, 1)
}

func TestRun_MemoFailureIsNotFatal(t *testing.T) {
	store := history.NewMemoryStore(nil)
	src := fakeSource{holdings: []contracts.Holding{{Code: "A", WeightPct: 100}}}

	r := NewRunner(Config{
		Store:     store,
		Source:    src,
		Lookup:    attribution.StaticReturns{},
		Memos:     fakeMemos{err: errors.New("chrome missing")},
		MemoStore: store,
	}, logger.NewNop())

	res, err := r.Run(context.Background(), "2024-01-02")
	require.NoError(t, err)
	assert.Contains(t, res.MemoErr, "chrome missing")
	assert.Empty(t, res.NewMemos)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, 1, store.Saves())
}

func TestRunner_MemosWithoutStore(t *testing.T) {
	r := newRunner(history.NewMemoryStore(nil), fakeSource{}, attribution.StaticReturns{}, nil)
	memos, err := r.Memos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, memos)
}
