// Package document turns a single file into a normalised term-frequency
// table: decode, detect language, drop stop words, stem, count.
package document

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/decoder"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/language"
	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

// Document is one indexed file. TermCount always equals the sum of Terms.
type Document struct {
	Path      string         `json:"path"`
	Terms     map[string]int `json:"terms"`
	TermCount int            `json:"term_count"`
	Language  language.Tag   `json:"language"`
}

// TF returns occurrences(term) / TermCount, or 0 when the term is absent or
// the document is empty.
func (d *Document) TF(term string) float64 {
	if d.TermCount == 0 {
		return 0
	}
	return float64(d.Terms[term]) / float64(d.TermCount)
}

// IndexError reports why a single file was left out of the corpus.
type IndexError struct {
	Path string
	Err  error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("indexing %s: %v", e.Path, e.Err)
}

func (e *IndexError) Unwrap() error {
	return e.Err
}

// IsUnsupportedLanguage reports whether err rejected a file for its language.
func IsUnsupportedLanguage(err error) bool {
	return errors.Is(err, apperrors.ErrUnsupportedLanguage)
}

// Indexer builds Documents. It holds no mutable state and is safe for
// concurrent use by many workers.
type Indexer struct {
	resources *language.Resources
	detect    language.Detector
	decoder   *decoder.Decoder
	logger    *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithDetector replaces language detection.
func WithDetector(d language.Detector) Option {
	return func(ix *Indexer) {
		if d != nil {
			ix.detect = d
		}
	}
}

// NewIndexer returns an Indexer using the given language resources.
func NewIndexer(resources *language.Resources, opts ...Option) *Indexer {
	ix := &Indexer{
		resources: resources,
		detect:    language.Detect,
		decoder:   decoder.New(),
		logger:    slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index decodes and indexes the file at path.
func (ix *Indexer) Index(path string) (*Document, error) {
	text, err := ix.decoder.Decode(path)
	if err != nil {
		return nil, &IndexError{Path: path, Err: err}
	}
	return ix.IndexText(path, text)
}

// IndexText indexes text that has already been decoded from path.
func (ix *Indexer) IndexText(path string, text []rune) (*Document, error) {
	lang := ix.detect(string(text))
	if !language.Accepted(lang) {
		return nil, &IndexError{
			Path: path,
			Err:  fmt.Errorf("%w: %s", apperrors.ErrUnsupportedLanguage, lang),
		}
	}

	stopWords := ix.resources.StopWords(lang)
	stem := ix.resources.Stemmer(lang)

	doc := &Document{
		Path:     path,
		Terms:    make(map[string]int),
		Language: lang,
	}
	lexer := tokenizer.NewLexer(text)
	for {
		tok, ok := lexer.Next()
		if !ok {
			break
		}
		if stopWords.Contains(tok) {
			continue
		}
		doc.Terms[stem(tok)]++
		doc.TermCount++
	}
	ix.logger.Debug("document indexed",
		"path", path,
		"language", lang,
		"terms", len(doc.Terms),
		"term_count", doc.TermCount,
	)
	return doc, nil
}
