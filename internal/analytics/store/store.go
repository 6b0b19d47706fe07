// Package store persists aggregated analytics snapshots in PostgreSQL so
// that totals survive restarts of the search service.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/resilience"
)

const schema = `
CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    corpus_root TEXT NOT NULL,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS analytics_snapshots_root_time
    ON analytics_snapshots (corpus_root, captured_at DESC);`

// Store keeps snapshots per corpus root.
type Store struct {
	db     *postgres.Client
	root   string
	retry  resilience.RetryConfig
	retain int
	logger *slog.Logger
}

// DefaultRetain is how many snapshots per root Save keeps.
const DefaultRetain = 1440

func New(db *postgres.Client, corpusRoot string) *Store {
	return &Store{
		db:     db,
		root:   corpusRoot,
		retry:  resilience.DefaultRetryConfig(),
		retain: DefaultRetain,
		logger: slog.Default().With("component", "analytics-store", "root", corpusRoot),
	}
}

// EnsureSchema creates the snapshot table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating analytics schema: %w", err)
	}
	return nil
}

// Save writes one snapshot and prunes the root's history to the newest
// DefaultRetain rows in the same transaction, retrying transient failures.
func (s *Store) Save(ctx context.Context, stats analytics.AggregatedStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	err = resilience.Retry(ctx, s.retry, "save analytics snapshot", func(ctx context.Context) error {
		return s.db.InTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO analytics_snapshots (corpus_root, data, captured_at) VALUES ($1, $2, $3)`,
				s.root, data, time.Now().UTC(),
			); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`DELETE FROM analytics_snapshots WHERE corpus_root = $1 AND id NOT IN (
				    SELECT id FROM analytics_snapshots WHERE corpus_root = $1
				    ORDER BY captured_at DESC, id DESC LIMIT $2)`,
				s.root, s.retain,
			)
			return err
		})
	})
	if err != nil {
		return fmt.Errorf("saving analytics snapshot: %w", err)
	}
	s.logger.Debug("analytics snapshot saved", "total_searches", stats.TotalSearches)
	return nil
}

// Latest returns the newest snapshot for this root, or nil when none exists.
func (s *Store) Latest(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots WHERE corpus_root = $1 ORDER BY captured_at DESC LIMIT 1`,
		s.root,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}
	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// List returns up to limit snapshots, newest first. Rows that fail to
// decode are skipped.
func (s *Store) List(ctx context.Context, limit int) ([]analytics.AggregatedStats, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM analytics_snapshots WHERE corpus_root = $1 ORDER BY captured_at DESC LIMIT $2`,
		s.root, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []analytics.AggregatedStats
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var stats analytics.AggregatedStats
		if err := json.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, stats)
	}
	return snapshots, rows.Err()
}

// Run saves agg's stats every interval until ctx is cancelled, then saves
// once more. A non-positive interval only saves on shutdown. It blocks.
func (s *Store) Run(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
		s.logger.Info("periodic analytics snapshots started", "interval", interval)
	}
	for {
		select {
		case <-tick:
			if err := s.Save(ctx, agg.Stats()); err != nil {
				s.logger.Error("periodic snapshot failed", "error", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Save(shutdownCtx, agg.Stats()); err != nil {
				s.logger.Error("final snapshot failed", "error", err)
			}
			cancel()
			return
		}
	}
}

// History serves GET /api/v1/analytics/history?limit=N with the newest
// snapshots first. limit defaults to 60 and is capped at DefaultRetain.
func (s *Store) History(w http.ResponseWriter, r *http.Request) {
	limit := 60
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, DefaultRetain)
	}
	snapshots, err := s.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing analytics snapshots failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	if snapshots == nil {
		snapshots = []analytics.AggregatedStats{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
