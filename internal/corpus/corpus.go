// Package corpus holds the collection of indexed documents for one root
// folder, builds it concurrently, and ranks documents against queries.
package corpus

import (
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/corpus/snapshot"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/searcher/ranker"
)

const (
	SourceCache = "cache"
	SourceBuild = "build"
)

// Corpus is read-only once constructed and safe for concurrent Classify
// calls. DocFreq[t] is the number of documents whose Terms contain t.
type Corpus struct {
	Docs     map[string]*document.Document
	DocFreq  map[string]int
	Language language.Tag

	paths []string
	stem  language.StemFunc
	stats BuildStats
}

// BuildStats describes how a Corpus came to be. It is not persisted.
type BuildStats struct {
	Source              string        `json:"source"`
	FilesDiscovered     int           `json:"files_discovered"`
	DocsIndexed         int           `json:"docs_indexed"`
	FilesSkipped        int           `json:"files_skipped"`
	UnsupportedLanguage int           `json:"unsupported_language"`
	Duration            time.Duration `json:"duration_ns"`
}

// aggregator is the single writer of Docs and DocFreq during a build.
type aggregator struct {
	docs     map[string]*document.Document
	docFreq  map[string]int
	language language.Tag
}

func newAggregator() *aggregator {
	return &aggregator{
		docs:    make(map[string]*document.Document),
		docFreq: make(map[string]int),
	}
}

func (a *aggregator) add(doc *document.Document) {
	if a.language == "" {
		a.language = doc.Language
	}
	a.docs[doc.Path] = doc
	for term := range doc.Terms {
		a.docFreq[term]++
	}
}

func (a *aggregator) corpus() *Corpus {
	lang := a.language
	if lang == "" {
		lang = language.English
	}
	return newCorpus(a.docs, a.docFreq, lang)
}

// FromDocuments aggregates already-indexed documents into a Corpus. When the
// same path occurs twice the later document wins and is counted once.
func FromDocuments(docs ...*document.Document) *Corpus {
	byPath := make(map[string]*document.Document, len(docs))
	var order []*document.Document
	for _, doc := range docs {
		if _, seen := byPath[doc.Path]; !seen {
			order = append(order, doc)
		}
		byPath[doc.Path] = doc
	}
	agg := newAggregator()
	for _, doc := range order {
		agg.add(byPath[doc.Path])
	}
	c := agg.corpus()
	c.stats = BuildStats{Source: SourceBuild, DocsIndexed: len(c.Docs)}
	return c
}

func fromPayload(p *snapshot.Payload) *Corpus {
	lang := p.Language
	if lang == "" {
		lang = language.English
	}
	return newCorpus(p.Docs, p.DocFreq, lang)
}

func newCorpus(docs map[string]*document.Document, docFreq map[string]int, lang language.Tag) *Corpus {
	paths := make([]string, 0, len(docs))
	for path := range docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return &Corpus{
		Docs:     docs,
		DocFreq:  docFreq,
		Language: lang,
		paths:    paths,
		stem:     language.Stemmer(lang),
	}
}

func (c *Corpus) payload() *snapshot.Payload {
	return &snapshot.Payload{Docs: c.Docs, DocFreq: c.DocFreq, Language: c.Language}
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.Docs) }

// TermCount returns the number of distinct terms across all documents.
func (c *Corpus) TermCount() int { return len(c.DocFreq) }

// Paths returns document paths in ascending order.
func (c *Corpus) Paths() []string {
	return append([]string(nil), c.paths...)
}

// Stats reports how the corpus was produced.
func (c *Corpus) Stats() BuildStats { return c.stats }

// IDF returns log10(N / max(DocFreq[term], 1)) for an already stemmed term.
func (c *Corpus) IDF(term string) float64 {
	return ranker.IDF(len(c.Docs), c.DocFreq[term])
}

// Stem normalises a query token with the corpus language's stemmer.
func (c *Corpus) Stem(token string) string {
	return c.stem(token)
}

// Classify scores every document against the query tokens and returns the
// matches in descending score order. Equal scores are ordered by path.
// Stop words are not removed from the query; they match nothing.
func (c *Corpus) Classify(tokens []string) []ranker.ScoredDoc {
	if len(tokens) == 0 {
		return []ranker.ScoredDoc{}
	}
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = c.stem(tok)
	}
	scored := make([]ranker.ScoredDoc, 0, len(c.paths))
	for _, path := range c.paths {
		scored = append(scored, ranker.ScoredDoc{
			Path:  path,
			Score: ranker.Score(c.Docs[path], terms, c.IDF),
		})
	}
	return ranker.Rank(scored, 0)
}
