// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert extracts the text layer of PDF files with pluggable
// backends.
package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paperfetch/internal/container"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Document is the text layer of a PDF.
type Document struct {
	// Text holds the page texts in order, separated by blank lines.
	Text string

	// Pages is the page count reported by the backend.
	Pages int
}

// Converter extracts text from a PDF file. Different backends (in-process,
// pdftotext in a container) implement this interface.
type Converter interface {
	// Convert reads the PDF at pdfPath and returns its text layer.
	Convert(ctx context.Context, pdfPath string) (*Document, error)
}

// New returns the Converter selected by cfg.Backend. The pdftotext backend
// requires a container runtime and its image to be present locally.
func New(ctx context.Context, cfg types.ConversionConfig) (Converter, error) {
	switch cfg.Backend {
	case "", types.BackendPDF:
		return NewPDFConverter(), nil
	case types.BackendPdftotext:
		rt, err := container.DetectRuntime(ctx)
		if err != nil {
			return nil, err
		}
		return NewPdftotextConverter(ctx, rt, cfg.Image)
	default:
		return nil, fmt.Errorf("unknown conversion backend %q (want %s or %s)",
			cfg.Backend, types.BackendPDF, types.BackendPdftotext)
	}
}

// joinPages builds Document.Text from per-page texts, dropping trailing
// whitespace on each page.
func joinPages(pages []string) string {
	trimmed := make([]string, 0, len(pages))
	for _, p := range pages {
		trimmed = append(trimmed, strings.TrimRight(p, " \t\r\n\f"))
	}
	return strings.Join(trimmed, "\n\n")
}
