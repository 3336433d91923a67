package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wonny/holdwatch/internal/contracts"
)

// FileStore keeps history as one JSON document:
// {"2024-01-02": [{"code":"AAPL","name":"Apple","weight_pct":12.5}, ...]}
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the document location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and decodes the document
func (s *FileStore) Load(ctx context.Context) (contracts.History, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var doc map[string][]contracts.Holding
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	h := make(contracts.History, len(doc))
	for date, holdings := range doc {
		h.Put(contracts.NewSnapshot(date, holdings))
	}
	return h, nil
}

// Save writes the full document to a temp file and renames it into place,
// so readers never observe a partial write.
func (s *FileStore) Save(ctx context.Context, h contracts.History) error {
	doc := make(map[string][]contracts.Holding, len(h))
	for date, snap := range h {
		holdings := snap.Holdings
		if holdings == nil {
			holdings = []contracts.Holding{}
		}
		doc[date] = holdings
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := writeFileAtomic(s.path, ".history-*.json", data); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the target dir and renames it over path
func writeFileAtomic(path, pattern string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}
