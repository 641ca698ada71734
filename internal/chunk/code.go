package chunk

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// ToolCode is the registered name of the syntax-aware code chunker.
const ToolCode = "code"

// CodeChunker splits source files at declaration boundaries using
// tree-sitter. Consecutive small declarations are packed into one chunk
// up to the token budget; the file preamble (package clause, imports) is
// prepended to every chunk for embedding context. Unknown languages and
// parse failures fall back to the text splitter.
type CodeChunker struct {
	mu        sync.Mutex
	parser    *sitter.Parser
	languages *LanguageRegistry
	maxTokens int
	fallback  *TextSplitter
}

// NewCodeChunker builds a code chunker from the sizing config.
func NewCodeChunker(cfg Config) *CodeChunker {
	cfg = cfg.withDefaults()
	return &CodeChunker{
		parser:    sitter.NewParser(),
		languages: DefaultLanguages(),
		maxTokens: cfg.MaxChunkTokens,
		fallback:  NewTextSplitter(cfg),
	}
}

func (c *CodeChunker) Name() string { return ToolCode }

func (c *CodeChunker) Split(content string, hint Hint) []Piece {
	config, ok := c.languages.ByName(hint.Language)
	if !ok {
		return c.fallback.Split(content, hint)
	}
	grammar, ok := c.languages.Grammar(config.Name)
	if !ok {
		return c.fallback.Split(content, hint)
	}

	source := []byte(content)
	root, err := c.parse(source, grammar)
	if err != nil || root == nil {
		return c.fallback.Split(content, hint)
	}

	preamble, decls := c.collectTopLevel(root, source, config)
	if len(decls) == 0 {
		return c.fallback.Split(content, hint)
	}

	preambleTokens := estimateTokens(preamble)
	var pieces []Piece
	var current []string
	var currentTokens int
	var names []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, "\n\n")
		if preamble != "" {
			body = preamble + "\n\n" + body
		}
		extra := map[string]string{"language": config.Name}
		if len(names) > 0 {
			extra["symbols"] = strings.Join(names, ",")
		}
		pieces = append(pieces, Piece{Content: body, Extra: extra})
		current = current[:0]
		names = names[:0]
		currentTokens = 0
	}

	for _, decl := range decls {
		tokens := estimateTokens(decl.text)
		if len(current) > 0 && preambleTokens+currentTokens+tokens > c.maxTokens {
			flush()
		}
		current = append(current, decl.text)
		currentTokens += tokens
		if decl.name != "" {
			names = append(names, decl.name)
		}
	}
	flush()
	return pieces
}

// Close releases the tree-sitter parser.
func (c *CodeChunker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parser != nil {
		c.parser.Close()
		c.parser = nil
	}
}

// parse is serialized: a tree-sitter parser is not safe for concurrent use.
func (c *CodeChunker) parse(source []byte, grammar *sitter.Language) (*sitter.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parser == nil {
		c.parser = sitter.NewParser()
	}
	c.parser.SetLanguage(grammar)
	tree, err := c.parser.ParseCtx(context.Background(), nil, source)
	if err != nil || tree == nil {
		return nil, err
	}
	return tree.RootNode(), nil
}

type declaration struct {
	text string
	name string
}

// collectTopLevel walks the root's direct children, separating preamble
// nodes from declaration nodes.
func (c *CodeChunker) collectTopLevel(root *sitter.Node, source []byte, config *LanguageConfig) (string, []declaration) {
	preambleSet := make(map[string]bool, len(config.PreambleTypes))
	for _, t := range config.PreambleTypes {
		preambleSet[t] = true
	}
	declSet := make(map[string]bool, len(config.DeclarationTypes))
	for _, t := range config.DeclarationTypes {
		declSet[t] = true
	}

	var preambleParts []string
	var decls []declaration
	var pending []string
	withPending := func(text string) string {
		if len(pending) == 0 {
			return text
		}
		joined := strings.Join(append(pending, text), "\n")
		pending = pending[:0]
		return joined
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node == nil {
			continue
		}
		text := string(source[node.StartByte():node.EndByte()])
		switch {
		case node.Type() == "comment":
			// Doc comments travel with the declaration that follows.
			pending = append(pending, text)
		case preambleSet[node.Type()]:
			preambleParts = append(preambleParts, text)
		case declSet[node.Type()]:
			decls = append(decls, declaration{text: withPending(text), name: declarationName(node, source)})
		default:
			// Stray top-level statements ride along as unnamed declarations.
			if strings.TrimSpace(text) != "" {
				decls = append(decls, declaration{text: withPending(text)})
			}
		}
	}
	return strings.Join(preambleParts, "\n"), decls
}

func declarationName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return string(source[name.StartByte():name.EndByte()])
	}
	// Declarations without a name field (type blocks, const blocks):
	// use the first identifier-ish descendant.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			return string(source[name.StartByte():name.EndByte()])
		}
	}
	return ""
}

var _ Chunker = (*CodeChunker)(nil)
