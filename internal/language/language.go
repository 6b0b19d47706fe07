// Package language detects the language of extracted text and supplies the
// per-language stop-word sets and stemmers used to normalise terms.
//
// Only English, Spanish and Portuguese are accepted. Word lists ship inside
// the binary and can be replaced by pointing LoadResources at a directory
// holding english.txt, spanish.txt and portuguese.txt.
package language

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abadojack/whatlanggo"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/portuguese"
	"github.com/blevesearch/snowballstem/spanish"

	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

// Tag is an ISO 639-3 language code.
type Tag string

const (
	English    Tag = "eng"
	Spanish    Tag = "spa"
	Portuguese Tag = "por"
)

var supported = []Tag{English, Spanish, Portuguese}

var listNames = map[Tag]string{
	English:    "english.txt",
	Spanish:    "spanish.txt",
	Portuguese: "portuguese.txt",
}

//go:embed stopwords/*.txt
var embeddedLists embed.FS

// Accepted reports whether documents in tag can be indexed.
func Accepted(tag Tag) bool {
	_, ok := listNames[tag]
	return ok
}

// Detector classifies a text.
type Detector func(text string) Tag

// Detect classifies text, falling back to English when detection fails or
// is not reliable.
func Detect(text string) Tag {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return English
	}
	switch info.Lang {
	case whatlanggo.Eng:
		return English
	case whatlanggo.Spa:
		return Spanish
	case whatlanggo.Por:
		return Portuguese
	default:
		return Tag(info.Lang.Iso6393())
	}
}

// Fixed returns a Detector that always answers tag.
func Fixed(tag Tag) Detector {
	return func(string) Tag { return tag }
}

// StemFunc reduces a surface token to its stem.
type StemFunc func(term string) string

func identity(term string) string { return term }

func snowball(stem func(*snowballstem.Env) bool) StemFunc {
	return func(term string) string {
		env := snowballstem.NewEnv(term)
		stem(env)
		return env.Current()
	}
}

var stemmers = map[Tag]StemFunc{
	English:    snowball(english.Stem),
	Spanish:    snowball(spanish.Stem),
	Portuguese: snowball(portuguese.Stem),
}

// Stemmer returns the stemmer for tag, or the identity function for tags
// without one.
func Stemmer(tag Tag) StemFunc {
	if s, ok := stemmers[tag]; ok {
		return s
	}
	return identity
}

// WordSet is a set of words.
type WordSet map[string]struct{}

func (s WordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// Resources is the capability set handed to every indexing worker: one
// stop-word set and one stemmer per supported language. It is read-only
// once loaded.
type Resources struct {
	stopWords map[Tag]WordSet
}

// LoadResources reads the stop-word list of every supported language from
// dir, or from the embedded lists when dir is empty. A missing or unreadable
// list is a configuration error wrapping errors.ErrStopWords.
func LoadResources(dir string) (*Resources, error) {
	r := &Resources{stopWords: make(map[Tag]WordSet, len(supported))}
	for _, tag := range supported {
		var (
			data []byte
			err  error
		)
		if dir == "" {
			data, err = embeddedLists.ReadFile("stopwords/" + listNames[tag])
		} else {
			data, err = os.ReadFile(filepath.Join(dir, listNames[tag]))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrStopWords, tag, err)
		}
		tokens := analysis.NewTokenMap()
		if err := tokens.LoadBytes(data); err != nil {
			return nil, fmt.Errorf("%w: parsing %s list: %w", apperrors.ErrStopWords, tag, err)
		}
		set := make(WordSet, len(tokens))
		for word := range tokens {
			set[word] = struct{}{}
		}
		r.stopWords[tag] = set
	}
	return r, nil
}

// MustLoadEmbedded loads the embedded lists. They are compiled in, so a
// failure is a build defect.
func MustLoadEmbedded() *Resources {
	r, err := LoadResources("")
	if err != nil {
		panic(err)
	}
	return r
}

// StopWords returns the stop-word set for tag. Unsupported tags get an
// empty set.
func (r *Resources) StopWords(tag Tag) WordSet {
	if set, ok := r.stopWords[tag]; ok {
		return set
	}
	return WordSet{}
}

// Stemmer returns the stemmer for tag.
func (r *Resources) Stemmer(tag Tag) StemFunc {
	return Stemmer(tag)
}
