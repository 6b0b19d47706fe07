// Package executor runs query plans against a loaded corpus.
package executor

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/ranker"
)

// SearchResult is the outcome of one query. TotalHits counts every document
// with a positive score, before the limit is applied.
type SearchResult struct {
	Query     string             `json:"query"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

type Executor struct {
	corpus *corpus.Corpus
	logger *slog.Logger
}

func New(c *corpus.Corpus) *Executor {
	return &Executor{
		corpus: c,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute scores plan against the corpus. limit <= 0 returns every match.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if plan.Empty() {
		return &SearchResult{
			Query:     plan.RawQuery,
			Results:   []ranker.ScoredDoc{},
			TermStats: map[string]int{},
		}, nil
	}

	ranked := e.corpus.Classify(plan.Terms)
	total := len(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	termStats := make(map[string]int, len(plan.Terms))
	for _, tok := range plan.Terms {
		stem := e.corpus.Stem(tok)
		termStats[stem] = e.corpus.DocFreq[stem]
	}

	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"hits", total,
		"returned", len(ranked),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		TotalHits: total,
		Results:   ranked,
		TermStats: termStats,
	}, nil
}
