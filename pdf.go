package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10
	pdfLineHeight = 5
	pdfFontSize   = 9
	pdfTabWidth   = 4
	pdfTextWidth  = pdfPageWidth - 2*pdfMargin
)

// generatePDF renders the same inventory and file sections as the Markdown
// document into a PDF at outputPath, highlighting each file by its language
// tag.
func generatePDF(doc Document, outputPath string, log *ConsoleLogger) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	if len(doc.Records) == 0 {
		pdf.SetFont("Helvetica", "", pdfFontSize)
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, noFilesMessage, "", "L", false)
		return savePDF(pdf, outputPath)
	}

	// Inventory
	pdf.SetFont("Helvetica", "B", pdfFontSize+3)
	pdf.MultiCell(pdfTextWidth, pdfLineHeight+1, "File Inventory", "", "L", false)
	pdf.Ln(pdfLineHeight / 2)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	summary := fmt.Sprintf("Total files: %d", len(doc.Records))
	if doc.ShowTokens {
		summary += fmt.Sprintf("\nEstimated tokens: %d", doc.TotalTokens)
	}
	pdf.MultiCell(pdfTextWidth, pdfLineHeight, summary, "", "L", false)
	pdf.Ln(pdfLineHeight / 2)

	pdf.SetFont("Courier", "", pdfFontSize)
	for _, r := range doc.Records {
		row := fmt.Sprintf("%4d  %-60s %-8s %6d %9d", r.ID, r.RelPath, r.Extension, r.Lines, r.Size)
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(row), "", "L", false)
	}

	// Sections
	for _, r := range doc.Records {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", pdfFontSize+1)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(fmt.Sprintf("%d. %s", r.ID, r.RelPath)), "", "L", false)
		pdf.SetFont("Helvetica", "", pdfFontSize-1)
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, fmt.Sprintf("Type: %s | Lines: %d | Size: %d bytes", r.Extension, r.Lines, r.Size), "", "L", false)
		pdf.Line(pdfMargin, pdf.GetY(), pdfPageWidth-pdfMargin, pdf.GetY())
		pdf.Ln(pdfLineHeight / 2)

		if err := writeHighlightedCode(pdf, style, tr, r); err != nil {
			log.Warnf("syntax highlighting failed for %s, writing plain text: %v", r.RelPath, err)
			pdf.SetFont("Courier", "", pdfFontSize)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(string(r.Content)), "", "L", false)
		}
	}

	return savePDF(pdf, outputPath)
}

func savePDF(pdf *gofpdf.Fpdf, outputPath string) error {
	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}
	return nil
}

// writeHighlightedCode tokenizes the record's content with the chroma lexer
// for its language tag and writes each token in the style's colors.
func writeHighlightedCode(pdf *gofpdf.Fpdf, style *chroma.Style, tr func(string) string, r FileRecord) error {
	lexer := lexers.Get(r.Language)
	if lexer == nil {
		lexer = lexers.Match(r.RelPath)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, string(r.Content))
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	pdf.SetFont("Courier", "", pdfFontSize)
	fg := style.Get(chroma.Text).Colour
	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := style.Get(token.Type)
		fontStyle := ""
		if entry.Bold == chroma.Yes {
			fontStyle += "B"
		}
		if entry.Italic == chroma.Yes {
			fontStyle += "I"
		}
		pdf.SetFontStyle(fontStyle)

		switch {
		case entry.Colour.IsSet():
			pdf.SetTextColor(int(entry.Colour.Red()), int(entry.Colour.Green()), int(entry.Colour.Blue()))
		case fg.IsSet():
			pdf.SetTextColor(int(fg.Red()), int(fg.Green()), int(fg.Blue()))
		default:
			pdf.SetTextColor(0, 0, 0)
		}

		value := strings.ReplaceAll(token.Value, "\t", strings.Repeat(" ", pdfTabWidth))
		pdf.Write(pdfLineHeight, tr(value))
	}
	pdf.Ln(-1)
	return pdf.Error()
}
