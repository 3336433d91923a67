package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/holdwatch/internal/attribution"
	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/internal/history"
	"github.com/wonny/holdwatch/internal/notify"
	"github.com/wonny/holdwatch/internal/report"
	"github.com/wonny/holdwatch/pkg/logger"
)

// SnapshotSource produces today's holdings
type SnapshotSource interface {
	Today(ctx context.Context, date string) (contracts.Snapshot, error)
}

// MemoSource produces the manager's currently published memos
type MemoSource interface {
	Memos(ctx context.Context) ([]contracts.Memo, error)
}

// RunResult is the outcome of one daily run
type RunResult struct {
	RunID      string                        `json:"run_id"`
	Date       string                        `json:"date"`
	PrevDate   string                        `json:"prev_date,omitempty"`
	ColdStart  bool                          `json:"cold_start"`
	Results    []contracts.AttributionResult `json:"results"`
	Summary    attribution.Summary           `json:"summary"`
	NewMemos   []contracts.Memo              `json:"new_memos,omitempty"`
	MemoErr    string                        `json:"memo_error,omitempty"`
	Markdown   string                        `json:"markdown"`
	Notified   bool                          `json:"notified"`
	NotifyErr  string                        `json:"notify_error,omitempty"`
	StartedAt  time.Time                     `json:"started_at"`
	FinishedAt time.Time                     `json:"finished_at"`
}

// Runner executes the daily pipeline
// ⭐ SSOT: load → scrape → attribute → memos → report → notify → save 순서는 여기서만
type Runner struct {
	store    history.Store
	source   SnapshotSource
	memos    MemoSource
	memoDB   history.MemoStore
	lookup   attribution.ReturnLookup
	engine   *attribution.Engine
	notifier notify.Notifier
	workers  int
	logger   *logger.Logger

	mu     sync.RWMutex
	latest *RunResult
}

// Config groups the runner collaborators
type Config struct {
	Store    history.Store
	Source   SnapshotSource
	Lookup   attribution.ReturnLookup
	Engine   *attribution.Engine
	Notifier notify.Notifier // may be nil
	Workers  int

	// Memos and MemoStore are both needed to report new memos; either may be nil
	Memos     MemoSource
	MemoStore history.MemoStore
}

// NewRunner creates a runner
func NewRunner(cfg Config, log *logger.Logger) *Runner {
	engine := cfg.Engine
	if engine == nil {
		engine = attribution.NewEngine(attribution.DefaultThresholds())
	}
	return &Runner{
		store:    cfg.Store,
		source:   cfg.Source,
		memos:    cfg.Memos,
		memoDB:   cfg.MemoStore,
		lookup:   cfg.Lookup,
		engine:   engine,
		notifier: cfg.Notifier,
		workers:  cfg.Workers,
		logger:   log.Component("pipeline"),
	}
}

// Run executes one pass for date (YYYY-MM-DD). Re-running the same date
// compares against the previous stored day and overwrites today's entry.
func (r *Runner) Run(ctx context.Context, date string) (*RunResult, error) {
	if _, err := time.Parse(contracts.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid run date %q: %w", date, err)
	}

	res := &RunResult{
		RunID:     uuid.New().String(),
		Date:      date,
		StartedAt: time.Now(),
	}
	log := r.logger.WithFields(map[string]interface{}{
		"run_id": res.RunID,
		"date":   date,
	})
	log.Info("Run started")

	h, _ := history.LoadOrEmpty(ctx, r.store, log)

	today, err := r.source.Today(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get today's holdings: %w", err)
	}

	yesterday := h.LatestBefore(date)
	res.PrevDate = yesterday.Date
	res.ColdStart = yesterday.IsEmpty()
	if res.ColdStart {
		log.Info("No earlier snapshot, every holding counts as new")
	}

	results, err := r.engine.Run(ctx, today, yesterday, r.lookup, r.workers)
	if err != nil {
		return nil, fmt.Errorf("attribution failed: %w", err)
	}
	res.Results = results
	res.Summary = attribution.Summarize(results)

	r.collectMemos(ctx, res, log)

	md, err := report.Markdown(date, res.PrevDate, results, res.Summary, res.NewMemos)
	if err != nil {
		return nil, err
	}
	res.Markdown = md

	if len(results) == 0 && len(res.NewMemos) == 0 {
		log.Info("Nothing changed beyond noise, no alert sent")
	} else {
		r.sendAlert(ctx, res, log)
	}

	h.Put(today)
	if err := r.store.Save(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}

	res.FinishedAt = time.Now()
	r.setLatest(res)

	log.WithFields(map[string]interface{}{
		"rows":       res.Summary.Rows,
		"new":        res.Summary.ByCategory[contracts.CategoryNew],
		"sold":       res.Summary.ByCategory[contracts.CategorySold],
		"buy":        res.Summary.ByCategory[contracts.CategoryBuy],
		"sell":       res.Summary.ByCategory[contracts.CategorySell],
		"drift":      res.Summary.ByCategory[contracts.CategoryDrift],
		"new_memos":  len(res.NewMemos),
		"duration":   res.FinishedAt.Sub(res.StartedAt),
		"cold_start": res.ColdStart,
	}).Info("Run completed")

	return res, nil
}

// sendAlert renders and delivers the alert; failures never abort the run
func (r *Runner) sendAlert(ctx context.Context, res *RunResult, log *logger.Logger) {
	if r.notifier == nil {
		return
	}

	subject := report.Subject(res.Date, res.Summary, len(res.NewMemos))
	htmlDoc, err := report.HTML(subject, res.Markdown)
	if err != nil {
		log.WithError(err).Warn("HTML render failed, sending markdown only")
	}

	alert := notify.Alert{
		RunID:    res.RunID,
		Date:     res.Date,
		PrevDate: res.PrevDate,
		Subject:  subject,
		Markdown: res.Markdown,
		HTML:     htmlDoc,
		Results:  res.Results,
		Memos:    res.NewMemos,
	}

	if err := r.notifier.Notify(ctx, alert); err != nil {
		res.NotifyErr = err.Error()
		log.WithError(err).Warn("Alert delivery failed")
		return
	}
	res.Notified = true
}

// collectMemos records memos not seen before; failures never abort the run
func (r *Runner) collectMemos(ctx context.Context, res *RunResult, log *logger.Logger) {
	if r.memos == nil || r.memoDB == nil {
		return
	}

	memos, err := r.memos.Memos(ctx)
	if err != nil {
		res.MemoErr = err.Error()
		log.WithError(err).Warn("Memo scrape failed")
		return
	}

	added, err := r.memoDB.AddMemos(ctx, memos)
	if err != nil {
		res.MemoErr = err.Error()
		log.WithError(err).Warn("Memo store failed")
		return
	}
	res.NewMemos = added

	log.WithFields(map[string]interface{}{
		"seen": len(memos),
		"new":  len(added),
	}).Info("Memos checked")
}

// Memos loads every stored memo, newest first; empty when memos are not configured
func (r *Runner) Memos(ctx context.Context) ([]contracts.Memo, error) {
	if r.memoDB == nil {
		return nil, nil
	}
	return r.memoDB.LoadMemos(ctx)
}

// Latest returns the most recent successful run, or nil
func (r *Runner) Latest() *RunResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// History loads the stored history for read-only callers
func (r *Runner) History(ctx context.Context) (contracts.History, error) {
	return r.store.Load(ctx)
}

func (r *Runner) setLatest(res *RunResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = res
}
