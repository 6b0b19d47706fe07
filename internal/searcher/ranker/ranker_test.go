package ranker

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type tfTable map[string]float64

func (t tfTable) TF(term string) float64 { return t[term] }

func TestIDF(t *testing.T) {
	assert.InDelta(t, math.Log10(3), IDF(3, 1), 1e-12)
	assert.InDelta(t, 0, IDF(3, 3), 1e-12)
	assert.InDelta(t, math.Log10(3), IDF(3, 0), 1e-12, "unseen terms are floored to df=1")
	assert.Equal(t, 0.0, IDF(0, 0))
}

func TestIDFMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for df := 1; df <= 10; df++ {
		idf := IDF(10, df)
		assert.LessOrEqual(t, idf, prev, "df=%d", df)
		prev = idf
	}
}

func TestScore(t *testing.T) {
	doc := tfTable{"cat": 0.5, "sat": 0.5}
	idf := func(term string) float64 {
		return map[string]float64{"cat": 0.2, "sat": 1.0}[term]
	}

	assert.InDelta(t, 0.6, Score(doc, []string{"cat", "sat"}, idf), 1e-12)
	assert.InDelta(t, 0.2, Score(doc, []string{"cat", "cat"}, idf), 1e-12)
	assert.Equal(t, 0.0, Score(doc, []string{"dog"}, idf))
	assert.Equal(t, 0.0, Score(doc, nil, idf))
}

func TestRank(t *testing.T) {
	in := []ScoredDoc{
		{Path: "a", Score: 0.1},
		{Path: "b", Score: 0.5},
		{Path: "c", Score: 0},
		{Path: "d", Score: 0.1},
		{Path: "e", Score: -1},
	}

	got := Rank(in, 0)
	assert.Equal(t, []ScoredDoc{
		{Path: "b", Score: 0.5},
		{Path: "a", Score: 0.1},
		{Path: "d", Score: 0.1},
	}, got)

	assert.Equal(t, []ScoredDoc{{Path: "b", Score: 0.5}}, Rank(in, 1))
	assert.Len(t, Rank(in, 10), 3)
	assert.Empty(t, Rank(nil, 0))
	assert.NotNil(t, Rank(nil, 0))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []ScoredDoc{{Path: "a", Score: 0.1}, {Path: "b", Score: 0.9}}
	Rank(in, 0)
	assert.Equal(t, "a", in[0].Path)
}

// BenchmarkRank measures sorting and filtering for growing result sets.
func BenchmarkRank(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			docs := make([]ScoredDoc, n)
			for i := range docs {
				docs[i] = ScoredDoc{Path: fmt.Sprintf("doc-%05d.txt", i), Score: float64(i%97) / 97}
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				scratch := append([]ScoredDoc(nil), docs...)
				_ = Rank(scratch, 10)
			}
		})
	}
}
