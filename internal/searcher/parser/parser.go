// Package parser turns a raw free-text query into a QueryPlan.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/tokenizer"
)

// QueryPlan is a tokenized query. Terms are unstemmed tokens in query order;
// the corpus stems them with its own language at scoring time.
type QueryPlan struct {
	RawQuery string
	Terms    []string
}

// Parse tokenizes query with the same lexer used for documents. There are no
// operators: every token is a scoring term, punctuation included.
func Parse(query string) *QueryPlan {
	plan := &QueryPlan{RawQuery: query, Terms: []string{}}
	if strings.TrimSpace(query) == "" {
		return plan
	}
	plan.Terms = tokenizer.Tokenize(query)
	return plan
}

// Empty reports whether the plan has nothing to score.
func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Key is a normalized form of the plan used for cache keys. Queries that
// tokenize the same share a key.
func (p *QueryPlan) Key() string {
	return strings.Join(p.Terms, "\x1f")
}
