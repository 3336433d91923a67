package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/holdwatch/internal/contracts"
)

const schemaSQL = `
	CREATE SCHEMA IF NOT EXISTS holdwatch;
	CREATE TABLE IF NOT EXISTS holdwatch.snapshots (
		date       DATE PRIMARY KEY,
		holdings   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE TABLE IF NOT EXISTS holdwatch.memos (
		key        TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		date_text  TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// PostgresStore keeps one row per date in holdwatch.snapshots and one row
// per memo key in holdwatch.memos
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a postgres-backed store
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the schema and table when missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Load reads every stored snapshot; an empty table is ErrNotFound
func (s *PostgresStore) Load(ctx context.Context) (contracts.History, error) {
	query := `
		SELECT date, holdings
		FROM holdwatch.snapshots
		ORDER BY date
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	h := contracts.History{}
	for rows.Next() {
		var date time.Time
		var holdingsJSON []byte
		if err := rows.Scan(&date, &holdingsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}

		var holdings []contracts.Holding
		if err := json.Unmarshal(holdingsJSON, &holdings); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, date.Format(contracts.DateLayout), err)
		}

		h.Put(contracts.NewSnapshot(date.Format(contracts.DateLayout), holdings))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	if len(h) == 0 {
		return nil, ErrNotFound
	}
	return h, nil
}

// Save upserts every date of h in one transaction
func (s *PostgresStore) Save(ctx context.Context, h contracts.History) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO holdwatch.snapshots (date, holdings, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (date) DO UPDATE SET
			holdings = EXCLUDED.holdings,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, date := range h.Dates() {
		day, err := time.Parse(contracts.DateLayout, date)
		if err != nil {
			return fmt.Errorf("invalid snapshot date %q: %w", date, err)
		}

		holdings := h[date].Holdings
		if holdings == nil {
			holdings = []contracts.Holding{}
		}
		holdingsJSON, err := json.Marshal(holdings)
		if err != nil {
			return fmt.Errorf("failed to marshal holdings: %w", err)
		}

		batch.Queue(query, day, holdingsJSON)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save snapshots: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// LoadMemos reads every stored memo, newest first
func (s *PostgresStore) LoadMemos(ctx context.Context) ([]contracts.Memo, error) {
	query := `
		SELECT key, title, date_text, body, fetched_at
		FROM holdwatch.memos
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query memos: %w", err)
	}
	defer rows.Close()

	var memos []contracts.Memo
	for rows.Next() {
		var m contracts.Memo
		if err := rows.Scan(&m.Key, &m.Title, &m.DateText, &m.Body, &m.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memo: %w", err)
		}
		memos = append(memos, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memos: %w", err)
	}

	contracts.SortMemos(memos)
	return memos, nil
}

// AddMemos inserts unseen keys in one transaction; existing keys are left as stored
func (s *PostgresStore) AddMemos(ctx context.Context, memos []contracts.Memo) ([]contracts.Memo, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO holdwatch.memos (key, title, date_text, body, fetched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`

	queued := make([]contracts.Memo, 0, len(memos))
	batch := &pgx.Batch{}
	for _, m := range memos {
		if m.Key == "" {
			continue
		}
		batch.Queue(query, m.Key, m.Title, m.DateText, m.Body, m.FetchedAt)
		queued = append(queued, m)
	}

	br := tx.SendBatch(ctx, batch)
	var added []contracts.Memo
	for _, m := range queued {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("failed to insert memo %q: %w", m.Key, err)
		}
		if tag.RowsAffected() == 1 {
			added = append(added, m)
		}
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to save memos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit memos: %w", err)
	}
	return added, nil
}
