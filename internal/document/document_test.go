package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Local-Document-Search/internal/language"
	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

func newEnglishIndexer(t *testing.T) *Indexer {
	t.Helper()
	r, err := language.LoadResources("")
	require.NoError(t, err)
	return NewIndexer(r, WithDetector(language.Fixed(language.English)))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func sum(terms map[string]int) int {
	total := 0
	for _, n := range terms {
		total += n
	}
	return total
}

func TestIndexCountsStemsWithoutStopWords(t *testing.T) {
	ix := newEnglishIndexer(t)
	path := writeFile(t, "a.txt", "The cats are running; the cat runs!")

	doc, err := ix.Index(path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.Path)
	assert.Equal(t, language.English, doc.Language)
	assert.Equal(t, 2, doc.Terms["cat"])
	assert.Equal(t, 2, doc.Terms["run"])
	assert.Equal(t, 1, doc.Terms[";"])
	assert.Equal(t, 1, doc.Terms["!"])
	assert.NotContains(t, doc.Terms, "the")
	assert.NotContains(t, doc.Terms, "are")
	assert.Equal(t, 6, doc.TermCount)
	assert.Equal(t, sum(doc.Terms), doc.TermCount)
}

func TestIndexIsIdempotent(t *testing.T) {
	ix := newEnglishIndexer(t)
	path := writeFile(t, "b.txt", "Search engines rank documents by term frequency and document frequency.")

	first, err := ix.Index(path)
	require.NoError(t, err)
	second, err := ix.Index(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTF(t *testing.T) {
	doc := &Document{Terms: map[string]int{"cat": 1, "sat": 3}, TermCount: 4}

	assert.InDelta(t, 0.25, doc.TF("cat"), 1e-9)
	assert.InDelta(t, 0.75, doc.TF("sat"), 1e-9)
	assert.Zero(t, doc.TF("dog"))
	for term := range doc.Terms {
		tf := doc.TF(term)
		assert.True(t, tf >= 0 && tf <= 1)
	}

	empty := &Document{Terms: map[string]int{}}
	assert.Zero(t, empty.TF("cat"))
}

func TestIndexEmptyFile(t *testing.T) {
	doc, err := newEnglishIndexer(t).Index(writeFile(t, "empty.txt", ""))
	require.NoError(t, err)
	assert.Zero(t, doc.TermCount)
	assert.Empty(t, doc.Terms)
}

func TestIndexRejectsUnsupportedLanguage(t *testing.T) {
	r, err := language.LoadResources("")
	require.NoError(t, err)
	ix := NewIndexer(r, WithDetector(language.Fixed(language.Tag("deu"))))

	_, err = ix.Index(writeFile(t, "de.txt", "Guten Morgen"))
	require.Error(t, err)

	var ixErr *IndexError
	require.True(t, errors.As(err, &ixErr))
	assert.True(t, IsUnsupportedLanguage(err))
	assert.False(t, apperrors.IsFatal(err))
}

func TestIndexDecodeFailure(t *testing.T) {
	_, err := newEnglishIndexer(t).Index(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDecode))
	assert.False(t, IsUnsupportedLanguage(err))
}

func TestIndexTextUsesLanguageResources(t *testing.T) {
	r, err := language.LoadResources("")
	require.NoError(t, err)
	ix := NewIndexer(r, WithDetector(language.Fixed(language.Spanish)))

	doc, err := ix.IndexText("es.txt", []rune("los gatos y el gato"))
	require.NoError(t, err)

	assert.Equal(t, language.Spanish, doc.Language)
	assert.Equal(t, 2, doc.TermCount)
	assert.Len(t, doc.Terms, 1)
}
