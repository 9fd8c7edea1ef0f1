// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// wordGapRatio is the horizontal gap, as a fraction of the font size, above
// which two adjacent glyph runs on a row are treated as separate words.
const wordGapRatio = 0.15

// PDFConverter reads the text layer in-process.
type PDFConverter struct{}

// NewPDFConverter creates the in-process converter.
func NewPDFConverter() *PDFConverter {
	return &PDFConverter{}
}

// Convert extracts text row by row from every page of pdfPath.
func (c *PDFConverter) Convert(ctx context.Context, pdfPath string) (doc *Document, err error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	// The parser panics on some malformed content streams.
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("reading PDF %s: %v", pdfPath, p)
		}
	}()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", i, pdfPath, err)
		}
		pages = append(pages, rowsText(rows))
	}
	return &Document{Text: joinPages(pages), Pages: n}, nil
}

func rowsText(rows pdf.Rows) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		var prev *pdf.Text
		for i := range row.Content {
			t := &row.Content[i]
			if prev != nil && needsSpace(prev, t) {
				b.WriteByte(' ')
			}
			b.WriteString(t.S)
			prev = t
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// needsSpace reports whether a word break falls between prev and next.
func needsSpace(prev, next *pdf.Text) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap > wordGapRatio*prev.FontSize
}
