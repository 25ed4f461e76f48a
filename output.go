package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

const (
	inventoryBegin = "<!-- BEGIN_FILE_INVENTORY -->"
	inventoryEnd   = "<!-- END_FILE_INVENTORY -->"
	noFilesMessage = "No matching files found."
)

// renderDocument assembles the inventory, the verbose skip annotations and
// one section per record. With no records the whole document collapses to
// noFilesMessage.
func renderDocument(doc Document) string {
	if len(doc.Records) == 0 {
		return noFilesMessage + "\n"
	}

	var builder strings.Builder
	renderInventory(&builder, doc)

	if doc.Verbose && len(doc.Skipped) > 0 {
		for _, skip := range doc.Skipped {
			fmt.Fprintf(&builder, "<!-- SKIPPED_FILE: %s (Reason: %s) -->\n", skip.File.RelPath, skip.Reason)
		}
		builder.WriteString("\n")
	}

	for _, record := range doc.Records {
		renderSection(&builder, record)
	}
	return builder.String()
}

func renderInventory(builder *strings.Builder, doc Document) {
	builder.WriteString(inventoryBegin + "\n")
	builder.WriteString("# File Inventory\n\n")
	fmt.Fprintf(builder, "Total files: %d\n", len(doc.Records))
	if doc.ShowTokens {
		fmt.Fprintf(builder, "Estimated tokens: %d\n", doc.TotalTokens)
	}
	builder.WriteString("\n| ID | Path | Type | Lines | Size |\n")
	builder.WriteString("|----|------|------|-------|------|\n")
	for _, r := range doc.Records {
		fmt.Fprintf(builder, "| %d | %s | %s | %d | %d |\n", r.ID, r.RelPath, r.Extension, r.Lines, r.Size)
	}
	builder.WriteString(inventoryEnd + "\n\n")
}

func renderSection(builder *strings.Builder, r FileRecord) {
	fmt.Fprintf(builder, "<!-- BEGIN_FILE id=\"%d\" path=\"%s\" -->\n", r.ID, r.RelPath)
	fmt.Fprintf(builder, "## %d. %s\n\n", r.ID, r.RelPath)
	fmt.Fprintf(builder, "Type: %s | Lines: %d | Size: %d bytes\n\n", r.Extension, r.Lines, r.Size)

	fence := codeFence(r.Content)
	builder.WriteString(fence + r.Language + "\n")
	builder.Write(r.Content)
	if len(r.Content) > 0 && r.Content[len(r.Content)-1] != '\n' {
		builder.WriteString("\n")
	}
	builder.WriteString(fence + "\n")
	fmt.Fprintf(builder, "<!-- END_FILE id=\"%d\" -->\n\n", r.ID)
}

// codeFence returns a backtick fence longer than any backtick run in content.
func codeFence(content []byte) string {
	longest, run := 0, 0
	for _, b := range content {
		if b == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	n := 3
	if longest >= n {
		n = longest + 1
	}
	return strings.Repeat("`", n)
}

// clipboardWrite is swapped out in tests.
var clipboardWrite = clipboard.WriteAll

// writeOutput sends the rendered document to its destination: a file, the
// clipboard, or stdout. Each destination gets a single write.
func writeOutput(out string, cfg Config, stdout io.Writer, log *ConsoleLogger) error {
	switch {
	case cfg.OutputFile != "":
		if err := os.WriteFile(cfg.OutputFile, []byte(out), 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", cfg.OutputFile, err)
		}
		log.Infof("output saved to %s", cfg.OutputFile)
		return nil
	case cfg.Clipboard:
		if err := clipboardWrite(out); err != nil {
			log.Warnf("error writing to clipboard, printing instead: %v", err)
			break
		}
		log.Infof("output copied to clipboard")
		return nil
	}

	if _, err := io.WriteString(stdout, out); err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	return nil
}
