package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/config"
	"github.com/wonny/holdwatch/pkg/database"
)

// MemoStore keeps every memo ever seen, keyed by Memo.Key.
// ⭐ SSOT: a memo is new exactly when AddMemos returns it
type MemoStore interface {
	// LoadMemos returns stored memos newest first; none stored is not an error
	LoadMemos(ctx context.Context) ([]contracts.Memo, error)
	// AddMemos stores memos whose key is unseen and returns those, in input order
	AddMemos(ctx context.Context, memos []contracts.Memo) ([]contracts.Memo, error)
}

// NewMemoStore picks the memo backend matching the history backend
func NewMemoStore(cfg *config.Config, db *database.DB) MemoStore {
	if cfg.History.Backend == "postgres" && db != nil {
		return NewPostgresStore(db.Pool)
	}
	return NewFileMemoStore(cfg.Memos.Path)
}

// FileMemoStore keeps memos as one JSON document: {"2024-01-03": {...memo}}
type FileMemoStore struct {
	mu   sync.Mutex
	path string
}

// NewFileMemoStore creates a file-backed memo store
func NewFileMemoStore(path string) *FileMemoStore {
	return &FileMemoStore{path: path}
}

// LoadMemos reads the document
func (s *FileMemoStore) LoadMemos(ctx context.Context) ([]contracts.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedMemos(doc), nil
}

// AddMemos inserts unseen keys and rewrites the document when anything was added
func (s *FileMemoStore) AddMemos(ctx context.Context, memos []contracts.Memo) ([]contracts.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}

	added := addUnseen(doc, memos)
	if len(added) == 0 {
		return nil, nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal memos: %w", err)
	}
	if err := writeFileAtomic(s.path, ".memos-*.json", data); err != nil {
		return nil, fmt.Errorf("failed to write memos: %w", err)
	}
	return added, nil
}

func (s *FileMemoStore) read() (map[string]contracts.Memo, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]contracts.Memo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memos: %w", err)
	}

	doc := map[string]contracts.Memo{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: memos: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// LoadMemos returns the in-memory memos
func (m *MemoryStore) LoadMemos(ctx context.Context) ([]contracts.Memo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedMemos(m.memos), nil
}

// AddMemos stores unseen memos in memory
func (m *MemoryStore) AddMemos(ctx context.Context, memos []contracts.Memo) ([]contracts.Memo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.memos == nil {
		m.memos = map[string]contracts.Memo{}
	}
	return addUnseen(m.memos, memos), nil
}

func addUnseen(doc map[string]contracts.Memo, memos []contracts.Memo) []contracts.Memo {
	var added []contracts.Memo
	for _, memo := range memos {
		if memo.Key == "" {
			continue
		}
		if _, ok := doc[memo.Key]; ok {
			continue
		}
		doc[memo.Key] = memo
		added = append(added, memo)
	}
	return added
}

func sortedMemos(doc map[string]contracts.Memo) []contracts.Memo {
	out := make([]contracts.Memo, 0, len(doc))
	for _, memo := range doc {
		out = append(out, memo)
	}
	contracts.SortMemos(out)
	return out
}
