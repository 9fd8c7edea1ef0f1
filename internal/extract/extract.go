// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract recovers structured paper metadata (title, authors,
// abstract, code links) from unstructured document text and from LaTeX
// sources.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paperfetch/pkg/types"
)

const (
	// Untitled is the title of a document with no non-blank line.
	Untitled = "Untitled"

	// TruncationMarker is appended to content cut at the length cap.
	TruncationMarker = "... [content truncated]"
)

// FromText extracts metadata from the text layer of a document. It never
// fails: fields whose heuristics find nothing are left empty.
func FromText(text string, pageCount int, cfg types.ExtractionConfig) types.PaperMetadata {
	doc := newDocument(text)
	github, code := FindLinks(text)

	return types.PaperMetadata{
		Title:       first(doc, titleRules, Untitled),
		Authors:     first(doc, authorRules, []string{}),
		Abstract:    first(doc, abstractRules, ""),
		Content:     Truncate(text, maxContentLength(cfg)),
		GitHubLinks: github,
		CodeLinks:   code,
		PageCount:   pageCount,
		SourceType:  types.SourcePDF,
	}
}

// Truncate caps s at max characters (runes), appending TruncationMarker
// when anything was cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + TruncationMarker
		}
		n++
	}
	return s
}

func maxContentLength(cfg types.ExtractionConfig) int {
	if cfg.MaxContentLength > 0 {
		return cfg.MaxContentLength
	}
	return types.DefaultMaxContentLength
}

// collapse folds runs of whitespace to single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
