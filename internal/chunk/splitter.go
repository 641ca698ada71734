package chunk

import (
	"strings"
)

// ToolText is the registered name of the generic text splitter.
const ToolText = "text"

// TextSplitter accumulates paragraphs into chunks bounded by the token
// budget, carrying an overlap tail between consecutive chunks. It is the
// fallback for content no other chunker claims.
type TextSplitter struct {
	maxTokens     int
	overlapTokens int
}

// NewTextSplitter builds a splitter from the chunk sizing config.
func NewTextSplitter(cfg Config) *TextSplitter {
	cfg = cfg.withDefaults()
	return &TextSplitter{maxTokens: cfg.MaxChunkTokens, overlapTokens: cfg.OverlapTokens}
}

func (s *TextSplitter) Name() string { return ToolText }

func (s *TextSplitter) Split(content string, _ Hint) []Piece {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if estimateTokens(content) <= s.maxTokens {
		return []Piece{{Content: strings.TrimSpace(content)}}
	}

	var pieces []Piece
	var current strings.Builder
	for _, para := range splitParagraphs(content) {
		if current.Len() > 0 && estimateTokens(current.String())+estimateTokens(para) > s.maxTokens {
			text := current.String()
			pieces = append(pieces, Piece{Content: text})
			current.Reset()
			if tail := overlapTail(text, s.overlapTokens); tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}

		// A single oversized paragraph is split by lines.
		if estimateTokens(para) > s.maxTokens {
			for _, part := range s.splitByLines(para) {
				if current.Len() > 0 {
					current.WriteString("\n\n")
				}
				current.WriteString(part)
				pieces = append(pieces, Piece{Content: current.String()})
				current.Reset()
			}
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if strings.TrimSpace(current.String()) != "" {
		pieces = append(pieces, Piece{Content: current.String()})
	}
	return pieces
}

// splitByLines handles paragraphs that alone exceed the budget.
func (s *TextSplitter) splitByLines(para string) []string {
	var parts []string
	var current strings.Builder
	for _, line := range strings.Split(para, "\n") {
		if current.Len() > 0 && estimateTokens(current.String())+estimateTokens(line) > s.maxTokens {
			parts = append(parts, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func splitParagraphs(content string) []string {
	var paragraphs []string
	for _, part := range strings.Split(content, "\n\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// overlapTail returns the last roughly n tokens of text, cut at a
// paragraph or line boundary so the overlap reads naturally.
func overlapTail(text string, tokens int) string {
	if tokens <= 0 {
		return ""
	}
	budget := tokens * TokensPerChar
	if len(text) <= budget {
		return text
	}
	tail := text[len(text)-budget:]
	if i := strings.IndexByte(tail, '\n'); i >= 0 && i+1 < len(tail) {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}

var _ Chunker = (*TextSplitter)(nil)
