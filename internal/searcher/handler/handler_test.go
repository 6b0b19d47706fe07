package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/metrics"
)

func testCorpus() *corpus.Corpus {
	return corpus.FromDocuments(
		&document.Document{Path: "a.txt", Terms: map[string]int{"cat": 1, "sat": 1}, TermCount: 2},
		&document.Document{Path: "b.txt", Terms: map[string]int{"cat": 1, "ran": 1, "fast": 1}, TermCount: 3},
		&document.Document{Path: "c.txt", Terms: map[string]int{"dog": 1, "bark": 1}, TermCount: 2},
	)
}

func newServer(t *testing.T, cfg Config) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	New(executor.New(testCorpus()), cfg).Routes(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearchReturnsPairs(t *testing.T) {
	mux := newServer(t, Config{})

	rec := get(t, mux, "/search?query=cat")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var pairs [][]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	require.Len(t, pairs, 2)
	assert.Equal(t, "a.txt", pairs[0][0])
	assert.Equal(t, "b.txt", pairs[1][0])
	assert.Greater(t, pairs[0][1].(float64), pairs[1][1].(float64))
}

func TestSearchAliasAndLimit(t *testing.T) {
	mux := newServer(t, Config{})

	var pairs [][]any
	rec := get(t, mux, "/search?q=cat&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	assert.Len(t, pairs, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	mux := newServer(t, Config{})
	for _, target := range []string{"/search?query=", "/search?query=the", "/search?query=zebra"} {
		rec := get(t, mux, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.JSONEq(t, `[]`, rec.Body.String(), target)
	}
}

func TestSearchBadRequests(t *testing.T) {
	mux := newServer(t, Config{})
	for _, target := range []string{"/search", "/search?query=cat&limit=0", "/search?query=cat&limit=x"} {
		rec := get(t, mux, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "error", target)
	}
}

func TestMaxResultsClamps(t *testing.T) {
	mux := newServer(t, Config{MaxResults: 1})
	var pairs [][]any
	require.NoError(t, json.Unmarshal(get(t, mux, "/search?query=cat&limit=50").Body.Bytes(), &pairs))
	assert.Len(t, pairs, 1)
}

func TestSearchDetailed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	collector := analytics.NewCollector(analytics.NewAggregator(), nil, 10)
	mux := newServer(t, Config{Metrics: m, Collector: collector})

	rec := get(t, mux, "/api/v1/search?q=cats")
	require.Equal(t, http.StatusOK, rec.Code)
	var result executor.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "cats", result.Query)
	assert.Equal(t, 2, result.TotalHits)
	assert.Equal(t, "a.txt", result.Results[0].Path)

	get(t, mux, "/api/v1/search?q=zebra")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("zero_result")))
	stats := collector.Aggregator().Stats()
	assert.EqualValues(t, 2, stats.TotalSearches)
	assert.EqualValues(t, 1, stats.ZeroResultCount)
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, *parser.QueryPlan, int) (*executor.SearchResult, error) {
	return nil, errors.New("disk on fire")
}

func TestSearchExecutorError(t *testing.T) {
	mux := http.NewServeMux()
	New(failingExecutor{}, Config{}).Routes(mux)

	rec := get(t, mux, "/search?query=cat")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestCorpusStats(t *testing.T) {
	info := CorpusInfo{Root: "/docs", Documents: 3, Terms: 6, Language: "eng"}
	rec := get(t, newServer(t, Config{Corpus: info}), "/api/v1/corpus/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var got CorpusInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, info, got)
}

func TestCacheEndpointsDisabled(t *testing.T) {
	mux := newServer(t, Config{})

	rec := get(t, mux, "/api/v1/cache/stats")
	assert.JSONEq(t, `{"status":"disabled"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) DeleteMatching(_ context.Context, pattern string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func TestSearchUsesCache(t *testing.T) {
	qc := cache.New(&memStore{data: map[string][]byte{}}, time.Minute, "/docs", nil)
	collector := analytics.NewCollector(analytics.NewAggregator(), nil, 10)
	mux := newServer(t, Config{Cache: qc, Collector: collector})

	first := get(t, mux, "/search?query=cat")
	second := get(t, mux, "/search?query=cat")
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	hits, misses := qc.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
	assert.EqualValues(t, 1, collector.Aggregator().Stats().CacheHits)

	rec := get(t, mux, "/api/v1/cache/stats")
	assert.Contains(t, rec.Body.String(), `"hit_rate":"50.0%"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"keys_deleted":1`)
}
