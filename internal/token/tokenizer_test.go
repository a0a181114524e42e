package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordTokenizer_Tokenize(t *testing.T) {
	tok := NewWordTokenizer()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple sentence",
			text: "The cat sat.",
			want: []string{"the", "cat", "sat", "."},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "   \n\t ",
			want: []string{},
		},
		{
			name: "punctuation split",
			text: "hello, world!",
			want: []string{"hello", ",", "world", "!"},
		},
		{
			name: "numbers and underscores kept together",
			text: "chunk_size is 50",
			want: []string{"chunk_size", "is", "50"},
		},
		{
			name: "lowercases input",
			text: "FAISS Index",
			want: []string{"faiss", "index"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Tokenize(tt.text))
		})
	}
}

func TestWordTokenizer_Detokenize(t *testing.T) {
	tok := NewWordTokenizer()

	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{
			name:   "words joined with spaces",
			tokens: []string{"the", "cat", "sat"},
			want:   "the cat sat",
		},
		{
			name:   "punctuation attaches to previous token",
			tokens: []string{"the", "cat", "sat", "."},
			want:   "the cat sat.",
		},
		{
			name:   "empty slice",
			tokens: []string{},
			want:   "",
		},
		{
			name:   "single token",
			tokens: []string{"hello"},
			want:   "hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Detokenize(tt.tokens))
		})
	}
}

func TestWordTokenizer_RoundTripWindow(t *testing.T) {
	tok := NewWordTokenizer()

	tokens := tok.Tokenize("The quick brown fox jumps over the lazy dog.")
	assert.Len(t, tokens, 10)

	window := tok.Detokenize(tokens[0:3])
	assert.Equal(t, "the quick brown", window)
}
