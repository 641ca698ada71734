package chunk

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// LanguageConfig describes how declarations are recognized in one
// language's syntax tree.
type LanguageConfig struct {
	Name       string
	Extensions []string

	// DeclarationTypes are the top-level node types that become chunk
	// boundaries (functions, types, classes).
	DeclarationTypes []string

	// PreambleTypes are nodes prepended to every chunk for context
	// (package clause, imports).
	PreambleTypes []string
}

// LanguageRegistry maps language names and file extensions to tree-sitter
// grammars and their declaration configs.
type LanguageRegistry struct {
	mu        sync.RWMutex
	configs   map[string]*LanguageConfig
	extToLang map[string]string
	grammars  map[string]*sitter.Language
}

// NewLanguageRegistry builds a registry with the built-in languages.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:   make(map[string]*LanguageConfig),
		extToLang: make(map[string]string),
		grammars:  make(map[string]*sitter.Language),
	}

	r.register(&LanguageConfig{
		Name:             "go",
		Extensions:       []string{".go"},
		DeclarationTypes: []string{"function_declaration", "method_declaration", "type_declaration", "const_declaration", "var_declaration"},
		PreambleTypes:    []string{"package_clause", "import_declaration"},
	}, golang.GetLanguage())

	r.register(&LanguageConfig{
		Name:             "python",
		Extensions:       []string{".py"},
		DeclarationTypes: []string{"function_definition", "class_definition", "decorated_definition"},
		PreambleTypes:    []string{"import_statement", "import_from_statement"},
	}, python.GetLanguage())

	r.register(&LanguageConfig{
		Name:             "javascript",
		Extensions:       []string{".js", ".mjs", ".jsx"},
		DeclarationTypes: []string{"function_declaration", "class_declaration", "lexical_declaration", "variable_declaration", "export_statement"},
		PreambleTypes:    []string{"import_statement"},
	}, javascript.GetLanguage())

	return r
}

func (r *LanguageRegistry) register(config *LanguageConfig, grammar *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[config.Name] = config
	r.grammars[config.Name] = grammar
	for _, ext := range config.Extensions {
		r.extToLang[ext] = config.Name
	}
}

// ByName returns the config for a language name.
func (r *LanguageRegistry) ByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	config, ok := r.configs[strings.ToLower(name)]
	return config, ok
}

// LanguageForExtension maps a file extension (with or without the dot)
// to a language name.
func (r *LanguageRegistry) LanguageForExtension(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.extToLang[ext]
	return name, ok
}

// Grammar returns the tree-sitter grammar for a language name.
func (r *LanguageRegistry) Grammar(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	grammar, ok := r.grammars[name]
	return grammar, ok
}

var defaultLanguages = NewLanguageRegistry()

// DefaultLanguages returns the shared language registry.
func DefaultLanguages() *LanguageRegistry {
	return defaultLanguages
}
