// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/paperfetch/internal/container"
)

// DefaultPdftotextImage ships poppler-utils.
const DefaultPdftotextImage = "minidocks/poppler:latest"

// PdftotextConverter pipes PDFs through pdftotext inside a container. It
// depends on a container.Runtime (docker or podman) injected at
// construction time.
type PdftotextConverter struct {
	runtime container.Runtime
	image   string
}

// NewPdftotextConverter verifies that image exists locally and returns a
// converter that runs it. An empty image selects DefaultPdftotextImage.
func NewPdftotextConverter(ctx context.Context, rt container.Runtime, image string) (*PdftotextConverter, error) {
	if image == "" {
		image = DefaultPdftotextImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	return &PdftotextConverter{runtime: rt, image: image}, nil
}

// Convert pipes the PDF at pdfPath through pdftotext. Pages are delimited by
// the form feeds pdftotext emits after each page.
func (c *PdftotextConverter) Convert(ctx context.Context, pdfPath string) (*Document, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	cmd := []string{"pdftotext", "-enc", "UTF-8", "-", "-"}
	if err := c.runtime.Run(ctx, c.image, cmd, f, &out); err != nil {
		return nil, fmt.Errorf("converting %s with pdftotext: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftotext produced empty output for %s", pdfPath)
	}

	pages := splitPages(out.String())
	return &Document{Text: joinPages(pages), Pages: len(pages)}, nil
}

// splitPages splits pdftotext output on form feeds. The feed after the last
// page does not start a new one.
func splitPages(s string) []string {
	s = strings.TrimSuffix(strings.TrimRight(s, "\n"), "\f")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\f")
}
