package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/parser"
)

func testCorpus() *corpus.Corpus {
	return corpus.FromDocuments(
		&document.Document{Path: "a.txt", Terms: map[string]int{"cat": 1, "sat": 1}, TermCount: 2},
		&document.Document{Path: "b.txt", Terms: map[string]int{"cat": 1, "ran": 1, "fast": 1}, TermCount: 3},
		&document.Document{Path: "c.txt", Terms: map[string]int{"dog": 1, "bark": 1}, TermCount: 2},
	)
}

func TestExecute(t *testing.T) {
	e := New(testCorpus())

	res, err := e.Execute(context.Background(), parser.Parse("Cats"), 0)
	require.NoError(t, err)
	assert.Equal(t, "Cats", res.Query)
	assert.Equal(t, 2, res.TotalHits)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "a.txt", res.Results[0].Path)
	assert.Equal(t, "b.txt", res.Results[1].Path)
	assert.Equal(t, map[string]int{"cat": 2}, res.TermStats)
}

func TestExecuteLimit(t *testing.T) {
	res, err := New(testCorpus()).Execute(context.Background(), parser.Parse("cat"), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalHits)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "a.txt", res.Results[0].Path)
}

func TestExecuteEmpty(t *testing.T) {
	res, err := New(testCorpus()).Execute(context.Background(), parser.Parse("   "), 10)
	require.NoError(t, err)
	assert.Zero(t, res.TotalHits)
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)
}

func TestExecuteNoMatch(t *testing.T) {
	res, err := New(testCorpus()).Execute(context.Background(), parser.Parse("the"), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, map[string]int{"the": 0}, res.TermStats)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testCorpus()).Execute(ctx, parser.Parse("cat"), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

// BenchmarkExecuteParallel measures concurrent query throughput over one
// shared corpus.
func BenchmarkExecuteParallel(b *testing.B) {
	docs := make([]*document.Document, 0, 5000)
	for i := 0; i < 5000; i++ {
		docs = append(docs, &document.Document{
			Path:      fmt.Sprintf("doc-%05d.txt", i),
			Terms:     map[string]int{"search": 1 + i%3, "local": 1, fmt.Sprintf("term%d", i%50): 2},
			TermCount: 4 + i%3,
		})
	}
	exec := New(corpus.FromDocuments(docs...))
	plan := parser.Parse("local search term7")

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := exec.Execute(context.Background(), plan, 10); err != nil {
				b.Fatal(err)
			}
		}
	})
}
