package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownChunkerSections(t *testing.T) {
	c := NewMarkdownChunker(DefaultConfig())

	content := `# Guide

Intro paragraph.

## Install

Run the installer.

## Configure

Edit the config file.
`
	pieces := c.Split(content, Hint{})
	require.Len(t, pieces, 3)

	assert.Contains(t, pieces[0].Content, "Intro paragraph.")
	assert.Equal(t, "Guide", pieces[0].Extra["section"])

	assert.Contains(t, pieces[1].Content, "Run the installer.")
	assert.Equal(t, "Guide > Install", pieces[1].Extra["section"])
	assert.Equal(t, "2", pieces[1].Extra["header_level"])

	assert.Equal(t, "Guide > Configure", pieces[2].Extra["section"])
}

func TestMarkdownChunkerFrontmatter(t *testing.T) {
	c := NewMarkdownChunker(DefaultConfig())

	content := `---
title: Release Notes
---

# Notes

Body text.
`
	pieces := c.Split(content, Hint{})
	require.Len(t, pieces, 2)
	assert.Equal(t, "frontmatter", pieces[0].Extra["section"])
	assert.Contains(t, pieces[0].Content, "title: Release Notes")
	assert.Contains(t, pieces[1].Content, "Body text.")
}

func TestMarkdownChunkerHeaderOnlySectionSkipped(t *testing.T) {
	c := NewMarkdownChunker(DefaultConfig())

	content := "# Empty\n\n# Full\n\nSome text.\n"
	pieces := c.Split(content, Hint{})
	require.Len(t, pieces, 1)
	assert.Equal(t, "Full", pieces[0].Extra["section"])
}

func TestMarkdownChunkerNoHeaders(t *testing.T) {
	c := NewMarkdownChunker(DefaultConfig())

	pieces := c.Split("Just a plain paragraph with no structure.", Hint{})
	require.Len(t, pieces, 1)
	assert.Contains(t, pieces[0].Content, "plain paragraph")
}

func TestMarkdownChunkerLargeSectionSplits(t *testing.T) {
	c := NewMarkdownChunker(Config{MaxChunkTokens: 20, OverlapTokens: 0})

	var body []string
	for i := 0; i < 6; i++ {
		body = append(body, strings.Repeat("word ", 10))
	}
	content := "# Big Section\n\n" + strings.Join(body, "\n\n")

	pieces := c.Split(content, Hint{})
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		assert.Equal(t, "Big Section", p.Extra["section"])
	}
	// Continuation chunks carry the section path inline.
	assert.Contains(t, pieces[1].Content, "Big Section")
}

func TestMarkdownChunkerEmpty(t *testing.T) {
	c := NewMarkdownChunker(DefaultConfig())
	assert.Empty(t, c.Split("", Hint{}))
	assert.Empty(t, c.Split("  \n ", Hint{}))
}
