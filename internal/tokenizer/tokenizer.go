// Package tokenizer splits text into normalised tokens for the search engine.
// A token is a lower-cased run of alphabetic characters, a run of digits, or
// a single character of any other class. Whitespace separates tokens and is dropped.
package tokenizer

import (
	"unicode"
)

// Lexer yields the tokens of a fixed rune buffer one at a time.
type Lexer struct {
	content []rune
}

// NewLexer returns a Lexer positioned at the start of content.
func NewLexer(content []rune) *Lexer {
	return &Lexer{content: content}
}

// Next returns the next token, or false once the input is exhausted.
func (l *Lexer) Next() (string, bool) {
	l.trimLeft()
	if len(l.content) == 0 {
		return "", false
	}

	first := l.content[0]
	switch {
	case IsAlphabetic(first):
		run := l.chopWhile(IsAlphabetic)
		for i, r := range run {
			run[i] = unicode.ToLower(r)
		}
		return string(run), true
	case unicode.IsNumber(first):
		return string(l.chopWhile(unicode.IsNumber)), true
	default:
		return string(l.chop(1)), true
	}
}

// IsAlphabetic reports whether r has the Unicode Alphabetic property: letters,
// letter numbers such as Ⅻ, and the vowel signs of scripts like Devanagari.
func IsAlphabetic(r rune) bool {
	return unicode.IsLetter(r) || unicode.In(r, unicode.Nl, unicode.Other_Alphabetic)
}

// Tokens drains the lexer.
func (l *Lexer) Tokens() []string {
	tokens := make([]string, 0, len(l.content)/4)
	for {
		tok, ok := l.Next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// Tokenize breaks text into its token sequence.
func Tokenize(text string) []string {
	return NewLexer([]rune(text)).Tokens()
}

func (l *Lexer) trimLeft() {
	for len(l.content) > 0 && unicode.IsSpace(l.content[0]) {
		l.content = l.content[1:]
	}
}

// chop copies the first n runes out so callers may mutate the result.
func (l *Lexer) chop(n int) []rune {
	token := make([]rune, n)
	copy(token, l.content[:n])
	l.content = l.content[n:]
	return token
}

func (l *Lexer) chopWhile(pred func(rune) bool) []rune {
	n := 0
	for n < len(l.content) && pred(l.content[n]) {
		n++
	}
	return l.chop(n)
}
