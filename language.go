package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultLanguageTag is used for any extension without a table entry.
const defaultLanguageTag = "text"

// builtinLanguageTags maps extensions, as extracted, to code-fence tags.
var builtinLanguageTags = map[string]string{
	"js":   "javascript",
	"py":   "python",
	"rb":   "ruby",
	"sh":   "bash",
	"bash": "bash",
	"php":  "php",
	"java": "java",
	"go":   "go",
	"rs":   "rust",
	"cpp":  "cpp",
	"cc":   "cpp",
	"c":    "c",
	"cs":   "csharp",
	"ts":   "typescript",
	"html": "html",
	"css":  "css",
	"md":   "markdown",
	"json": "json",
	"xml":  "xml",
	"yaml": "yaml",
	"yml":  "yaml",
}

// LanguageTable resolves extensions to language tags. Lookups are
// case-sensitive and never fail.
type LanguageTable struct {
	tags map[string]string
}

// newLanguageTable returns the built-in table.
func newLanguageTable() *LanguageTable {
	tags := make(map[string]string, len(builtinLanguageTags))
	for ext, tag := range builtinLanguageTags {
		tags[ext] = tag
	}
	return &LanguageTable{tags: tags}
}

// loadLanguageTable layers the overrides in a YAML file of the form
//
//	vue: html
//	tf: hcl
//
// over the built-in table. An empty path returns the built-in table.
func loadLanguageTable(path string) (*LanguageTable, error) {
	table := newLanguageTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading language file %s: %w", path, err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("error parsing language file %s: %w", path, err)
	}
	for ext, tag := range overrides {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		tag = strings.TrimSpace(tag)
		if ext == "" || tag == "" {
			continue
		}
		table.tags[ext] = tag
	}
	return table, nil
}

// Tag returns the code-fence tag for ext, or "text" when unknown.
func (t *LanguageTable) Tag(ext string) string {
	if t == nil {
		return defaultLanguageTag
	}
	if tag, ok := t.tags[ext]; ok {
		return tag
	}
	return defaultLanguageTag
}
