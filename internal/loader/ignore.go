package loader

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignoreMatcher filters walked paths using gitignore-style patterns.
// It covers the common pattern forms (name match, anchored paths,
// directory suffixes, * and ** globs); exotic forms like negation are
// not supported and such lines are skipped.
type ignoreMatcher struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern  string
	anchored bool
	dirOnly  bool
}

func newIgnoreMatcher(patterns []string) *ignoreMatcher {
	m := &ignoreMatcher{}
	for _, p := range patterns {
		m.add(p)
	}
	return m
}

func (m *ignoreMatcher) add(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" || strings.HasPrefix(pattern, "#") || strings.HasPrefix(pattern, "!") {
		return
	}
	p := ignorePattern{}
	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		p.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	} else if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
		p.anchored = true
	}
	p.pattern = pattern
	m.patterns = append(m.patterns, p)
}

// loadFile adds patterns from a .gitignore-style file, if it exists.
func (m *ignoreMatcher) loadFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		m.add(scanner.Text())
	}
}

// Match reports whether the slash-separated relative path is ignored.
func (m *ignoreMatcher) Match(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if p.matches(relPath) {
			return true
		}
	}
	return false
}

func (p ignorePattern) matches(relPath string) bool {
	if p.anchored {
		return globMatch(p.pattern, relPath)
	}
	// Unanchored patterns match the basename or any path segment run.
	if globMatch(p.pattern, filepath.Base(relPath)) {
		return true
	}
	segments := strings.Split(relPath, "/")
	for i := range segments {
		if globMatch(p.pattern, strings.Join(segments[i:], "/")) {
			return true
		}
	}
	return false
}

// globMatch extends path.Match with ** support.
func globMatch(pattern, name string) bool {
	if !strings.Contains(pattern, "**") {
		ok, err := filepath.Match(pattern, name)
		return err == nil && ok
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" {
		if !strings.HasPrefix(name, prefix+"/") && name != prefix {
			return false
		}
		name = strings.TrimPrefix(strings.TrimPrefix(name, prefix), "/")
	}
	if suffix == "" {
		return true
	}
	// The suffix may match at any depth.
	segments := strings.Split(name, "/")
	for i := range segments {
		if globMatch(suffix, strings.Join(segments[i:], "/")) {
			return true
		}
	}
	return false
}
