package history

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/config"
	"github.com/wonny/holdwatch/pkg/database"
	"github.com/wonny/holdwatch/pkg/logger"
)

var (
	// ErrNotFound means no history has been persisted yet
	ErrNotFound = errors.New("history not found")
	// ErrCorrupt means persisted history could not be decoded
	ErrCorrupt = errors.New("history corrupt")
)

// Store persists the date -> snapshot history
// ⭐ SSOT: 히스토리 저장소 인터페이스
type Store interface {
	Load(ctx context.Context) (contracts.History, error)
	Save(ctx context.Context, h contracts.History) error
}

// NewStore picks the configured backend. db is only used by the postgres backend.
func NewStore(cfg *config.Config, db *database.DB) Store {
	if cfg.History.Backend == "postgres" && db != nil {
		return NewPostgresStore(db.Pool)
	}
	return NewFileStore(cfg.History.Path)
}

// LoadOrEmpty loads history and falls back to an empty one on any failure.
// coldStart reports that there is nothing to compare against.
func LoadOrEmpty(ctx context.Context, store Store, log *logger.Logger) (contracts.History, bool) {
	h, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Info("No history yet, starting cold")
		return contracts.History{}, true
	case err != nil:
		log.WithError(err).Warn("History unreadable, starting cold")
		return contracts.History{}, true
	}

	if h == nil {
		h = contracts.History{}
	}
	return h, len(h) == 0
}

// MemoryStore keeps history in process; used by tests and dry runs
type MemoryStore struct {
	mu    sync.Mutex
	h     contracts.History
	memos map[string]contracts.Memo
	saves int
}

// NewMemoryStore creates a store seeded with a copy of h (may be nil)
func NewMemoryStore(h contracts.History) *MemoryStore {
	return &MemoryStore{h: clone(h)}
}

// Load returns a copy of the stored history, or ErrNotFound if never saved
func (m *MemoryStore) Load(ctx context.Context) (contracts.History, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.h == nil {
		return nil, ErrNotFound
	}
	return clone(m.h), nil
}

// Save replaces the stored history
func (m *MemoryStore) Save(ctx context.Context, h contracts.History) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.h = clone(h)
	m.saves++
	return nil
}

// Saves reports how many times Save was called
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func clone(h contracts.History) contracts.History {
	if h == nil {
		return nil
	}
	out := make(contracts.History, len(h))
	for date, s := range h {
		holdings := make([]contracts.Holding, len(s.Holdings))
		copy(holdings, s.Holdings)
		out[date] = contracts.Snapshot{Date: s.Date, Holdings: holdings}
	}
	return out
}
