package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/kafka"
)

const (
	latencyWindow = 10000
	topQueryCount = 10
)

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
	CorpusLoads       int64        `json:"corpus_loads"`
	LastCorpus        *CorpusEvent `json:"last_corpus,omitempty"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator keeps running totals. Latency percentiles cover the most
// recent latencyWindow searches.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	cacheHits         int64
	cacheMisses       int64
	zeroResults       int64
	corpusLoads       int64
	latencies         []int64
	next              int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	lastCorpus        *CorpusEvent
	startTime         time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 1024),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

func (a *Aggregator) RecordSearch(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	if len(a.latencies) < latencyWindow {
		a.latencies = append(a.latencies, event.LatencyMs)
	} else {
		a.latencies[a.next] = event.LatencyMs
		a.next = (a.next + 1) % latencyWindow
	}
	a.queryCounts[event.Query]++
	if event.TotalHits == 0 {
		a.zeroResults++
		a.zeroResultQueries[event.Query]++
	}
}

func (a *Aggregator) RecordCorpus(event CorpusEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.corpusLoads++
	a.lastCorpus = &event
}

// Seed adds the counters of a previously persisted snapshot so totals
// survive a restart. Percentiles and per-query tallies start fresh.
func (a *Aggregator) Seed(prev AggregatedStats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalSearches += prev.TotalSearches
	a.cacheHits += prev.CacheHits
	a.cacheMisses += prev.CacheMisses
	a.zeroResults += prev.ZeroResultCount
	a.corpusLoads += prev.CorpusLoads
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		ZeroResultCount: a.zeroResults,
		CorpusLoads:     a.corpusLoads,
	}
	if a.lastCorpus != nil {
		last := *a.lastCorpus
		stats.LastCorpus = &last
	}
	if len(a.latencies) > 0 {
		sorted := append([]int64(nil), a.latencies...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topN(a.queryCounts, topQueryCount)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, topQueryCount)
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

// HandleMessage feeds events consumed from Kafka into agg.
func HandleMessage(agg *Aggregator) kafka.MessageHandler {
	return func(_ context.Context, msg kafka.Message) error {
		switch EventType(msg.Type) {
		case EventSearch, EventZeroResult:
			event, err := kafka.DecodeJSON[SearchEvent](msg.Value)
			if err != nil {
				return err
			}
			agg.RecordSearch(event)
		case EventCorpusLoaded:
			event, err := kafka.DecodeJSON[CorpusEvent](msg.Value)
			if err != nil {
				return err
			}
			agg.RecordCorpus(event)
		default:
			agg.logger.Warn("ignoring analytics message", "type", msg.Type)
			return nil
		}
		return nil
	}
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count, then query, so ties are stable between calls.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

