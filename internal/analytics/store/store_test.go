package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/postgres"
)

// Runs against a real database when DS_TEST_POSTGRES_HOST is set.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	host := os.Getenv("DS_TEST_POSTGRES_HOST")
	if host == "" {
		t.Skip("DS_TEST_POSTGRES_HOST not set")
	}
	cfg := config.Default().Postgres
	cfg.Host = host

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db, "test-root-"+t.Name()+time.Now().Format(time.RFC3339Nano))
	require.NoError(t, s.EnsureSchema(ctx))
	return s
}

func TestSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, s.Save(ctx, analytics.AggregatedStats{TotalSearches: 1}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Save(ctx, analytics.AggregatedStats{TotalSearches: 7}))

	latest, err = s.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.EqualValues(t, 7, latest.TotalSearches)

	all, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunSavesOnShutdown(t *testing.T) {
	for _, interval := range []time.Duration{time.Hour, 0} {
		t.Run(interval.String(), func(t *testing.T) {
			s := openTestStore(t)
			agg := analytics.NewAggregator()
			agg.RecordSearch(analytics.SearchEvent{Query: "cat", TotalHits: 1})

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				s.Run(ctx, agg, interval)
				close(done)
			}()
			cancel()
			<-done

			latest, err := s.Latest(context.Background())
			require.NoError(t, err)
			require.NotNil(t, latest)
			assert.EqualValues(t, 1, latest.TotalSearches)
		})
	}
}

func TestSaveKeepsNewestSnapshots(t *testing.T) {
	s := openTestStore(t)
	s.retain = 2
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, s.Save(ctx, analytics.AggregatedStats{TotalSearches: i}))
	}

	snapshots, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.EqualValues(t, 3, snapshots[0].TotalSearches)
	assert.EqualValues(t, 2, snapshots[1].TotalSearches)
}

func TestHistory(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save(context.Background(), analytics.AggregatedStats{TotalSearches: 7}))

	rec := httptest.NewRecorder()
	s.History(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/history?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshots []analytics.AggregatedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshots))
	require.Len(t, snapshots, 1)
	assert.EqualValues(t, 7, snapshots[0].TotalSearches)

	rec = httptest.NewRecorder()
	s.History(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/history?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
