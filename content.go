package main

import (
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// detectText sniffs the head of the file and treats it as text when the
// detected MIME type is text/plain or one of its descendants (json, xml,
// html, source files with a shebang, ...). Empty files count as text.
func detectText(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return true, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false, fmt.Errorf("sniffing %s: %w", path, err)
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true, nil
		}
	}
	return false, nil
}
