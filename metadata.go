package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// extractMetadata builds the FileRecords for the kept files. IDs follow the
// order of files, which is the sorted discovery order.
func extractMetadata(files []DiscoveredFile, langs *LanguageTable) ([]FileRecord, error) {
	records := make([]FileRecord, 0, len(files))
	for i, f := range files {
		info, err := os.Stat(f.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("error reading file info for %s: %w", f.RelPath, err)
		}
		content, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, fmt.Errorf("error reading file %s: %w", f.RelPath, err)
		}

		ext := fileExtension(filepath.Base(f.AbsPath))
		records = append(records, FileRecord{
			ID:        i + 1,
			RelPath:   f.RelPath,
			Extension: ext,
			Lines:     countLines(content),
			Size:      info.Size(),
			Language:  langs.Tag(ext),
			Content:   content,
		})
	}
	return records, nil
}

// fileExtension returns what follows the last '.' in name. A name without a
// dot is its own extension, so "README" yields "README".
func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(content []byte) int {
	n := bytes.Count(content, []byte{'\n'})
	if len(content) > 0 && content[len(content)-1] != '\n' {
		n++
	}
	return n
}
