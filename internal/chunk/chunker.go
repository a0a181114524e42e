// Package chunk turns raw document text into overlapping token-window chunks.
//
// Chunking is pure and deterministic: the same text, window size, and stride
// always produce the same chunk sequence, with no side effects.
package chunk

import (
	"fmt"
	"strings"

	"github.com/docdex/docdex/internal/token"
)

// Default window parameters for document chunking.
const (
	// DefaultWindowSize is the token window size per chunk.
	DefaultWindowSize = 50

	// DefaultStride is the token step between consecutive windows.
	// Consecutive windows overlap by DefaultWindowSize - DefaultStride tokens.
	DefaultStride = 40
)

// SlidingWindow chunks text by sliding a fixed-size token window with a
// configurable stride. Trailing tokens beyond the last full window are
// dropped; this truncation is intentional, the overlap between windows
// ensures trailing content still appears in the preceding chunk.
type SlidingWindow struct {
	tokenizer  token.Tokenizer
	windowSize int
	stride     int
}

// NewSlidingWindow creates a chunker with the given window parameters.
// Returns an error for non-positive sizes or a stride larger than the window.
func NewSlidingWindow(tok token.Tokenizer, windowSize, stride int) (*SlidingWindow, error) {
	if tok == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("stride must be positive, got %d", stride)
	}
	if stride > windowSize {
		return nil, fmt.Errorf("stride %d exceeds window size %d, tokens would be skipped", stride, windowSize)
	}
	return &SlidingWindow{
		tokenizer:  tok,
		windowSize: windowSize,
		stride:     stride,
	}, nil
}

// WindowSize returns the configured token window size.
func (c *SlidingWindow) WindowSize() int { return c.windowSize }

// Stride returns the configured stride.
func (c *SlidingWindow) Stride() int { return c.stride }

// Chunk splits text into overlapping token-window chunks.
//
// If the text tokenizes to fewer tokens than the window size, a single chunk
// containing the whole detokenized text is returned. Text with no tokens
// produces no chunks.
func (c *SlidingWindow) Chunk(text string) []string {
	tokens := c.tokenizer.Tokenize(text)
	n := len(tokens)

	if n == 0 {
		return nil
	}

	if n < c.windowSize {
		return []string{c.tokenizer.Detokenize(tokens)}
	}

	var chunks []string
	for i := 0; i+c.windowSize <= n; i += c.stride {
		chunks = append(chunks, c.tokenizer.Detokenize(tokens[i:i+c.windowSize]))
	}
	return chunks
}

// ChunkLines splits text into logical lines and chunks each non-empty line
// independently. Blank lines produce no chunks.
func (c *SlidingWindow) ChunkLines(text string) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		chunks = append(chunks, c.Chunk(line)...)
	}
	return chunks
}
