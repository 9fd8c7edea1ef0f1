// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxTitleScan bounds how much of an HTML body PageTitle reads.
const maxTitleScan = 64 << 10

// PageTitle returns the whitespace-normalized <title> of an HTML document,
// or "" if r does not hold parseable HTML with a title. At most 64 KiB of r
// is read.
func PageTitle(r io.Reader) string {
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(r, maxTitleScan))
	if err != nil {
		return ""
	}
	title := doc.Find("title").First().Text()
	return strings.Join(strings.Fields(title), " ")
}
