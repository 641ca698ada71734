package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
)

// DefaultDimensions is the static embedder's default vector size.
const DefaultDimensions = 256

// Weights for vector generation.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

// stopWords filters high-frequency words that carry no retrieval signal.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "to": true, "in": true, "for": true, "is": true,
	"on": true, "with": true, "this": true, "that": true, "be": true,
}

// tokenRegex matches alphanumeric sequences.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

// StaticEmbedder generates embeddings with a hash-based scheme: no network,
// no model download, deterministic output. Semantic quality is reduced, so
// it serves as the offline default and the test embedder.
type StaticEmbedder struct {
	dimensions int

	mu     sync.RWMutex
	closed bool
}

// NewStaticEmbedder creates a static embedder with the given dimension.
// Zero or negative dimensions fall back to DefaultDimensions.
func NewStaticEmbedder(dimensions int) *StaticEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &StaticEmbedder{dimensions: dimensions}
}

// Embed generates an embedding for a single text.
func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, e.dimensions), nil
	}
	return normalizeVector(e.generateVector(trimmed)), nil
}

// EmbedBatch generates embeddings for multiple texts in order.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the model identifier.
func (e *StaticEmbedder) ModelName() string {
	return fmt.Sprintf("static-%d", e.dimensions)
}

// Close marks the embedder closed. Safe to call multiple times.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

var _ Embedder = (*StaticEmbedder)(nil)

// generateVector accumulates hashed token and character-ngram features.
func (e *StaticEmbedder) generateVector(text string) []float32 {
	vector := make([]float32, e.dimensions)

	tokens := tokenize(text)
	for _, token := range tokens {
		if stopWords[token] {
			continue
		}
		vector[hashToIndex(token, e.dimensions)] += tokenWeight

		// Character ngrams catch identifiers and partial matches.
		for _, ngram := range ngrams(token, ngramSize) {
			vector[hashToIndex(ngram, e.dimensions)] += ngramWeight
		}
	}

	return vector
}

func tokenize(text string) []string {
	matches := tokenRegex.FindAllString(strings.ToLower(text), -1)
	return matches
}

func ngrams(token string, n int) []string {
	if len(token) < n {
		return nil
	}
	grams := make([]string, 0, len(token)-n+1)
	for i := 0; i+n <= len(token); i++ {
		grams = append(grams, token[i:i+n])
	}
	return grams
}

func hashToIndex(s string, dimensions int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dimensions))
}

// normalizeVector scales a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
	return v
}
