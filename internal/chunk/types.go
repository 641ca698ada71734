// Package chunk splits loaded documents into retrievable units before
// embedding. Chunkers are selected per document through a registry keyed
// by tool name and content type, with a filename-extension fallback.
package chunk

import (
	"strings"
)

// Chunk size defaults (based on 2025 RAG research)
const (
	DefaultMaxChunkTokens = 512 // Optimal for 85-90% recall
	DefaultOverlapTokens  = 64  // ~12.5% overlap
	TokensPerChar         = 4   // Rough approximation: 4 chars = 1 token
)

// Config controls chunk sizing and an optional forced tool.
type Config struct {
	// MaxChunkTokens caps the estimated token count per chunk.
	MaxChunkTokens int `yaml:"max_chunk_tokens"`

	// OverlapTokens is carried from the tail of one chunk into the next
	// when a single block has to be split.
	OverlapTokens int `yaml:"overlap_tokens"`

	// Tool forces one chunker for every document, bypassing routing.
	Tool string `yaml:"tool"`
}

// DefaultConfig returns the default chunk sizing.
func DefaultConfig() Config {
	return Config{
		MaxChunkTokens: DefaultMaxChunkTokens,
		OverlapTokens:  DefaultOverlapTokens,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxChunkTokens <= 0 {
		c.MaxChunkTokens = DefaultMaxChunkTokens
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = DefaultOverlapTokens
	}
	return c
}

// Piece is one chunk of a document's content, with chunker-specific
// metadata (section titles, symbol names) to merge into the chunk's
// document metadata.
type Piece struct {
	Content string
	Extra   map[string]string
}

// Hint carries routing information resolved by the pipeline.
type Hint struct {
	// Language is the source language for code content, empty otherwise.
	Language string
}

// Chunker splits one document's content into pieces.
type Chunker interface {
	// Name is the tool name the chunker registers under.
	Name() string

	// Split breaks content into pieces. An empty result means the
	// document produced nothing worth indexing.
	Split(content string, hint Hint) []Piece
}

// estimateTokens approximates the token count of a string.
func estimateTokens(s string) int {
	return len(s) / TokensPerChar
}

// normalizeContentType strips parameters: "text/markdown; charset=utf-8"
// becomes "text/markdown".
func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
