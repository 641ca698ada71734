// Package loader provides built-in document loaders. The filesystem
// loader walks a directory tree and emits one document per file, keyed
// by path with a content-hash change token, so unchanged files are
// skipped on re-index.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Aman-CERP/vectorsync/internal/dedup"
	"github.com/Aman-CERP/vectorsync/internal/document"
	"github.com/Aman-CERP/vectorsync/internal/indexer"
)

// MaxFileSize caps the file size the loader will read (4 MiB).
const MaxFileSize = 4 << 20

// contentTypes maps file extensions to declared content types. Files
// outside this table flow through the default text splitter.
var contentTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".mdx":      "text/markdown",
	".txt":      "text/plain",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".js":       "text/javascript",
	".mjs":      "text/javascript",
	".jsx":      "text/javascript",
}

// defaultIgnores are always skipped, before any .gitignore is consulted.
var defaultIgnores = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"*.min.js",
}

// FSLoader walks a directory and emits file documents.
type FSLoader struct {
	logger *slog.Logger
}

// NewFSLoader builds a filesystem loader.
func NewFSLoader(logger *slog.Logger) *FSLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSLoader{logger: logger}
}

func (l *FSLoader) Name() string { return "filesystem" }

func (l *FSLoader) IndexParams() map[string]indexer.ParamSpec {
	return map[string]indexer.ParamSpec{
		"path": {
			Description: "root directory to index",
			Required:    true,
		},
		"include": {
			Description: "glob limiting files to index (e.g. *.md)",
		},
	}
}

// Strategy: files are keyed by path and compared by content hash.
func (l *FSLoader) Strategy() dedup.Strategy { return dedup.FileStrategy{} }

// Load walks the tree lazily: no file is read before the stream is
// pulled, and an aborted run stops the walk.
func (l *FSLoader) Load(_ context.Context, params map[string]any) (document.Stream, error) {
	root, _ := params["path"].(string)
	if root == "" {
		return nil, fmt.Errorf("path parameter must be a non-empty string")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	include, _ := params["include"].(string)

	ignores := newIgnoreMatcher(defaultIgnores)
	ignores.loadFile(filepath.Join(root, ".gitignore"))

	return func(yield func(*document.Document) bool) {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				l.logger.Warn("skipping unreadable path",
					slog.String("path", path),
					slog.String("error", err.Error()))
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == "." {
				return nil
			}
			if ignores.Match(rel, entry.IsDir()) {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			if include != "" {
				if ok, _ := filepath.Match(include, filepath.Base(path)); !ok {
					return nil
				}
			}

			doc, ok := l.loadFile(path, rel)
			if !ok {
				return nil
			}
			if !yield(doc) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			l.logger.Warn("directory walk aborted", slog.String("error", err.Error()))
		}
	}, nil
}

// ProcessDocument returns no dependents: files stand alone.
func (l *FSLoader) ProcessDocument(context.Context, *document.Document) (document.Stream, error) {
	return nil, nil
}

func (l *FSLoader) loadFile(path, rel string) (*document.Document, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > MaxFileSize {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("skipping unreadable file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, false
	}
	if len(data) == 0 || !utf8.Valid(data) {
		return nil, false
	}

	hash := sha256.Sum256(data)
	rel = filepath.ToSlash(rel)
	doc := document.New("", map[string]any{
		document.KeyID:         rel,
		document.KeyFilename:   rel,
		document.KeyCommitHash: hex.EncodeToString(hash[:])[:12],
	})
	doc.Transient = &document.Payload{
		Data:        data,
		ContentType: contentTypes[strings.ToLower(filepath.Ext(path))],
	}
	return doc, true
}

var _ indexer.Loader = (*FSLoader)(nil)
