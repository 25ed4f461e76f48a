package main

import "strings"

// extensionMatcher matches filenames by their final extension.
// The zero value matches nothing.
type extensionMatcher struct {
	exts     []string
	suffixes []string
}

// compileExtensions turns a comma-separated list such as "go, py" into a
// matcher. The list is split on commas only; tokens are trimmed and used
// literally, and empty tokens are dropped.
func compileExtensions(list string) extensionMatcher {
	var m extensionMatcher
	for _, tok := range strings.Split(list, ",") {
		ext := strings.TrimSpace(tok)
		if ext == "" {
			continue
		}
		m.exts = append(m.exts, ext)
		m.suffixes = append(m.suffixes, "."+ext)
	}
	return m
}

// Match reports whether name ends in ".<ext>" for any compiled extension.
// Matching is case-sensitive.
func (m extensionMatcher) Match(name string) bool {
	for _, suffix := range m.suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Empty reports whether no extension was compiled.
func (m extensionMatcher) Empty() bool {
	return len(m.suffixes) == 0
}

// Extensions returns the compiled extensions without the leading dot.
func (m extensionMatcher) Extensions() []string {
	return m.exts
}
