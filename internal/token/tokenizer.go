// Package token provides text tokenization for the chunking pipeline.
// A Tokenizer splits text into tokens and reconstructs text from a token
// subsequence, so that chunk boundaries can be expressed in token positions.
package token

import (
	"regexp"
	"strings"
	"unicode"
)

// Tokenizer splits text into tokens and reconstructs text from a token slice.
type Tokenizer interface {
	// Tokenize splits text into a token sequence.
	Tokenize(text string) []string

	// Detokenize reconstructs text from a token subsequence.
	Detokenize(tokens []string) string
}

// wordRegex matches word tokens (letters, digits, underscores) or single
// punctuation characters. Whitespace never becomes a token.
var wordRegex = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\p{L}\p{N}_\s]`)

// WordTokenizer is the default tokenizer. It lowercases input and splits
// into word and punctuation tokens, mirroring the behavior of sub-word
// tokenizers closely enough for window-based chunking.
type WordTokenizer struct{}

// NewWordTokenizer creates the default tokenizer.
func NewWordTokenizer() *WordTokenizer {
	return &WordTokenizer{}
}

// Tokenize splits text into lowercase word and punctuation tokens.
func (t *WordTokenizer) Tokenize(text string) []string {
	tokens := wordRegex.FindAllString(strings.ToLower(text), -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// Detokenize joins tokens back into text. Word tokens are separated by
// single spaces; punctuation tokens attach to the preceding token.
func (t *WordTokenizer) Detokenize(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 && !isPunctuation(tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String()
}

// isPunctuation reports whether a token consists solely of punctuation or
// symbol runes.
func isPunctuation(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// Verify interface implementation at compile time
var _ Tokenizer = (*WordTokenizer)(nil)
