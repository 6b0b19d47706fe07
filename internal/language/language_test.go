package language

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Local-Document-Search/pkg/errors"
)

const (
	englishText = `The library opened its doors early in the morning, and the readers who had been
waiting outside for almost an hour finally walked in. Most of them went straight to the
newspapers, while a few older visitors preferred the quiet reading room on the second floor.`
	spanishText = `La biblioteca abrió sus puertas temprano por la mañana, y los lectores que habían
estado esperando afuera durante casi una hora finalmente entraron. La mayoría de ellos fueron
directamente a los periódicos, mientras que algunos visitantes mayores preferían la sala de lectura.`
	portugueseText = `A biblioteca abriu as suas portas cedo pela manhã, e os leitores que estavam
esperando lá fora durante quase uma hora finalmente entraram. A maioria deles foi diretamente
aos jornais, enquanto alguns visitantes mais velhos preferiam a sala de leitura silenciosa.`
	germanText = `Die Bibliothek öffnete ihre Türen früh am Morgen, und die Leser, die fast eine
Stunde lang draußen gewartet hatten, kamen endlich herein. Die meisten von ihnen gingen direkt
zu den Zeitungen, während einige ältere Besucher den ruhigen Lesesaal im zweiten Stock bevorzugten.`
)

func TestDetect(t *testing.T) {
	assert.Equal(t, English, Detect(englishText))
	assert.Equal(t, Spanish, Detect(spanishText))
	assert.Equal(t, Portuguese, Detect(portugueseText))
}

func TestDetectDefaultsToEnglish(t *testing.T) {
	assert.Equal(t, English, Detect(""))
	assert.Equal(t, English, Detect("12345 !!! ???"))
}

func TestDetectUnsupportedLanguage(t *testing.T) {
	tag := Detect(germanText)
	assert.NotEqual(t, English, tag)
	assert.False(t, Accepted(tag))
}

func TestAccepted(t *testing.T) {
	assert.True(t, Accepted(English))
	assert.True(t, Accepted(Spanish))
	assert.True(t, Accepted(Portuguese))
	assert.False(t, Accepted(Tag("deu")))
	assert.False(t, Accepted(Tag("")))
}

func TestStemmer(t *testing.T) {
	en := Stemmer(English)
	assert.Equal(t, "run", en("running"))
	assert.Equal(t, "cat", en("cats"))
	assert.Equal(t, en("connection"), en("connections"))

	assert.Equal(t, Stemmer(Spanish)("gato"), Stemmer(Spanish)("gatos"))
	assert.Equal(t, Stemmer(Portuguese)("livro"), Stemmer(Portuguese)("livros"))
}

func TestStemmerUnknownIsIdentity(t *testing.T) {
	stem := Stemmer(Tag("deu"))
	assert.Equal(t, "häuser", stem("häuser"))
	assert.Equal(t, "running", stem("running"))
}

func TestLoadEmbeddedResources(t *testing.T) {
	r, err := LoadResources("")
	require.NoError(t, err)

	assert.True(t, r.StopWords(English).Contains("the"))
	assert.True(t, r.StopWords(Spanish).Contains("que"))
	assert.True(t, r.StopWords(Portuguese).Contains("não"))
	assert.False(t, r.StopWords(English).Contains("cat"))
	assert.Empty(t, r.StopWords(Tag("deu")))
	assert.Equal(t, "run", r.Stemmer(English)("running"))
}

func TestLoadResourcesFromDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"english.txt", "spanish.txt", "portuguese.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("alpha\nbeta\n\ngamma\n"), 0o644))
	}

	r, err := LoadResources(dir)
	require.NoError(t, err)
	assert.Len(t, r.StopWords(English), 3)
	assert.True(t, r.StopWords(Portuguese).Contains("gamma"))
	assert.False(t, r.StopWords(English).Contains("the"))
}

func TestLoadResourcesMissingList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "english.txt"), []byte("the\n"), 0o644))

	_, err := LoadResources(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStopWords))
	assert.True(t, apperrors.IsFatal(err))
}
