package chunk

import (
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Aman-CERP/vectorsync/internal/document"
)

// contentTypeTools maps normalized content types to tool names.
var contentTypeTools = map[string]string{
	"text/markdown":          ToolMarkdown,
	"text/x-markdown":        ToolMarkdown,
	"text/plain":             ToolText,
	"text/x-source":          ToolCode,
	"text/x-go":              ToolCode,
	"text/x-python":          ToolCode,
	"text/javascript":        ToolCode,
	"application/javascript": ToolCode,
}

// contentTypeLanguages maps code content types to language names.
var contentTypeLanguages = map[string]string{
	"text/x-go":              "go",
	"text/x-python":          "python",
	"text/javascript":        "javascript",
	"application/javascript": "javascript",
}

// markdownExtensions route to the markdown chunker by filename.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
}

// Pipeline routes each document to a chunker and fans its pieces out as
// chunk documents. Routing order: the declared content type, the
// document's explicit tool, the configured tool, the filename extension,
// and finally the plain text splitter.
type Pipeline struct {
	cfg       Config
	chunkers  map[string]Chunker
	languages *LanguageRegistry
	code      *CodeChunker
	logger    *slog.Logger
}

// NewPipeline builds a pipeline with the built-in chunkers registered.
func NewPipeline(cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	code := NewCodeChunker(cfg)

	p := &Pipeline{
		cfg:       cfg,
		chunkers:  make(map[string]Chunker),
		languages: DefaultLanguages(),
		code:      code,
		logger:    logger,
	}
	p.RegisterChunker(NewTextSplitter(cfg))
	p.RegisterChunker(NewMarkdownChunker(cfg))
	p.RegisterChunker(code)
	return p
}

// RegisterChunker adds (or replaces) a chunker under its tool name.
func (p *Pipeline) RegisterChunker(c Chunker) {
	p.chunkers[strings.ToLower(c.Name())] = c
}

// Process wraps the stream lazily, replacing each document with its
// chunk documents. Chunks inherit the source metadata, gain a chunk_id
// ordinal and never carry the transient payload.
func (p *Pipeline) Process(stream document.Stream) document.Stream {
	return func(yield func(*document.Document) bool) {
		for doc := range stream {
			content := doc.Content
			if doc.Transient != nil && len(doc.Transient.Data) > 0 {
				content = string(doc.Transient.Data)
			}

			chunker, hint := p.route(doc)
			pieces := chunker.Split(content, hint)
			if len(pieces) == 0 {
				// Unsplittable content passes through as a single chunk.
				p.logger.Debug("document produced no chunks, passing through",
					slog.String("id", doc.ID()),
					slog.String("tool", chunker.Name()))
				pieces = []Piece{{Content: content}}
			}

			for i, piece := range pieces {
				chunkDoc := doc.Clone()
				chunkDoc.Transient = nil
				chunkDoc.Content = piece.Content
				chunkDoc.Metadata[document.KeyChunkID] = strconv.Itoa(i)
				for k, v := range piece.Extra {
					chunkDoc.Metadata[k] = v
				}
				if !yield(chunkDoc) {
					return
				}
			}
		}
	}
}

// Close releases chunker resources.
func (p *Pipeline) Close() {
	p.code.Close()
}

func (p *Pipeline) route(doc *document.Document) (Chunker, Hint) {
	hint := p.languageHint(doc)

	// The content-type hint outranks any configured tool; tools only
	// decide routing for documents that arrive without a hint.
	if doc.Transient != nil && doc.Transient.ContentType != "" {
		ct := normalizeContentType(doc.Transient.ContentType)
		if tool, ok := contentTypeTools[ct]; ok {
			return p.chunkers[tool], hint
		}
	}

	if doc.Transient != nil && doc.Transient.ChunkingTool != "" {
		if c, ok := p.chunkers[strings.ToLower(doc.Transient.ChunkingTool)]; ok {
			return c, hint
		}
		p.logger.Warn("unknown chunking tool, falling back to routing",
			slog.String("tool", doc.Transient.ChunkingTool),
			slog.String("id", doc.ID()))
	}

	if p.cfg.Tool != "" {
		if c, ok := p.chunkers[strings.ToLower(p.cfg.Tool)]; ok {
			return c, hint
		}
	}

	if ext := filepath.Ext(doc.Filename()); ext != "" {
		ext = strings.ToLower(ext)
		if markdownExtensions[ext] {
			return p.chunkers[ToolMarkdown], hint
		}
		if _, ok := p.languages.LanguageForExtension(ext); ok {
			return p.chunkers[ToolCode], hint
		}
	}

	return p.chunkers[ToolText], hint
}

// languageHint resolves the source language from the content type or the
// filename extension.
func (p *Pipeline) languageHint(doc *document.Document) Hint {
	if doc.Transient != nil && doc.Transient.ContentType != "" {
		ct := normalizeContentType(doc.Transient.ContentType)
		if lang, ok := contentTypeLanguages[ct]; ok {
			return Hint{Language: lang}
		}
	}
	if ext := filepath.Ext(doc.Filename()); ext != "" {
		if lang, ok := p.languages.LanguageForExtension(ext); ok {
			return Hint{Language: lang}
		}
	}
	return Hint{}
}
