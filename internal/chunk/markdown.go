package chunk

import (
	"regexp"
	"strconv"
	"strings"
)

// ToolMarkdown is the registered name of the markdown chunker.
const ToolMarkdown = "markdown"

var (
	// Matches headers: # Title, ## Title, etc.
	headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

	// Matches frontmatter: ---\n...\n---
	frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.+?)\n---\n*`)
)

// MarkdownChunker splits markdown by header sections. Sections within the
// token budget become one piece each; oversized sections fall back to
// paragraph splitting with the section path prepended for context.
type MarkdownChunker struct {
	maxTokens int
	splitter  *TextSplitter
}

// NewMarkdownChunker builds a markdown chunker from the sizing config.
func NewMarkdownChunker(cfg Config) *MarkdownChunker {
	cfg = cfg.withDefaults()
	return &MarkdownChunker{
		maxTokens: cfg.MaxChunkTokens,
		splitter:  NewTextSplitter(cfg),
	}
}

func (c *MarkdownChunker) Name() string { return ToolMarkdown }

func (c *MarkdownChunker) Split(content string, _ Hint) []Piece {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	var pieces []Piece

	if match := frontmatterPattern.FindString(content); match != "" {
		pieces = append(pieces, Piece{
			Content: strings.TrimSpace(match),
			Extra:   map[string]string{"section": "frontmatter"},
		})
		content = content[len(match):]
	}

	sections := parseSections(content)
	if len(sections) == 0 {
		for _, p := range c.splitter.Split(content, Hint{}) {
			pieces = append(pieces, p)
		}
		return pieces
	}

	for _, sec := range sections {
		body := strings.TrimSpace(sec.content)
		if body == "" || body == strings.TrimSpace(sec.headerLine) {
			// Header with no body.
			continue
		}
		extra := map[string]string{
			"section":      sec.path,
			"header_level": strconv.Itoa(sec.level),
		}
		if estimateTokens(body) <= c.maxTokens {
			pieces = append(pieces, Piece{Content: body, Extra: extra})
			continue
		}
		for i, p := range c.splitter.Split(body, Hint{}) {
			text := p.Content
			if i > 0 && sec.path != "" {
				// Continuation chunks repeat the section path so they
				// remain searchable on their own.
				text = "<!-- " + sec.path + " -->\n\n" + text
			}
			pieces = append(pieces, Piece{Content: text, Extra: extra})
		}
	}
	return pieces
}

type mdSection struct {
	level      int
	title      string
	path       string
	headerLine string
	content    string
}

// parseSections walks the content line by line, tracking the header
// hierarchy so each section knows its full path ("Guide > Install").
func parseSections(content string) []*mdSection {
	var sections []*mdSection
	var current *mdSection
	var builder strings.Builder
	stack := make([]string, 6)

	flush := func() {
		if current != nil {
			current.content = builder.String()
			sections = append(sections, current)
		}
		builder.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		match := headerPattern.FindStringSubmatch(line)
		if match == nil {
			if current == nil && strings.TrimSpace(line) != "" {
				// Content before the first header becomes its own section.
				current = &mdSection{headerLine: ""}
			}
			builder.WriteString(line)
			builder.WriteString("\n")
			continue
		}

		flush()
		level := len(match[1])
		title := strings.TrimSpace(match[2])
		stack[level-1] = title
		for i := level; i < 6; i++ {
			stack[i] = ""
		}
		var parts []string
		for i := 0; i < level; i++ {
			if stack[i] != "" {
				parts = append(parts, stack[i])
			}
		}

		current = &mdSection{
			level:      level,
			title:      title,
			path:       strings.Join(parts, " > "),
			headerLine: line,
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	flush()
	return sections
}

var _ Chunker = (*MarkdownChunker)(nil)
