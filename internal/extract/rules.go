// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// document is the text under extraction, split once into lines.
type document struct {
	text  string
	lines []string

	// titleLine is the index of the first non-blank line, or -1.
	titleLine int
}

func newDocument(text string) *document {
	d := &document{text: text, lines: strings.Split(text, "\n"), titleLine: -1}
	for i, l := range d.lines {
		if strings.TrimSpace(l) != "" {
			d.titleLine = i
			break
		}
	}
	return d
}

// rule is one heuristic for a field. It reports false when it finds nothing.
type rule[T any] func(*document) (T, bool)

// first returns the value of the first rule that matches, or fallback.
func first[T any](d *document, rules []rule[T], fallback T) T {
	for _, r := range rules {
		if v, ok := r(d); ok {
			return v
		}
	}
	return fallback
}

var (
	titleRules    = []rule[string]{firstNonBlankLine}
	abstractRules = []rule[string]{abstractBeforeIntroduction}
	authorRules   = []rule[[]string]{headerAuthorLine}
)

func firstNonBlankLine(d *document) (string, bool) {
	if d.titleLine < 0 {
		return "", false
	}
	return strings.TrimSpace(d.lines[d.titleLine]), true
}

// abstractPattern captures the text between an "Abstract" marker and the
// first introduction heading, optionally numbered "1." or "I.".
var abstractPattern = regexp.MustCompile(
	`(?is)\babstract\b[\s:.\-–—]*(.+?)\s+(?:[ivx]+\.\s*|\d+\.?\s*)?introduction\b`)

func abstractBeforeIntroduction(d *document) (string, bool) {
	m := abstractPattern.FindStringSubmatch(d.text)
	if m == nil {
		return "", false
	}
	abstract := strings.TrimSpace(m[1])
	return abstract, abstract != ""
}

const (
	// headerWindow bounds the author search when no abstract marker is found.
	headerWindow = 30

	authorName = `[A-Z][a-z]+(?:-[A-Z][a-z]+)?(?:\s+[A-Z]\.)?\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?`
	authorSep  = `(?:\s*,\s*(?:and\s+)?|\s+and\s+)`
)

var (
	authorNamePattern   = regexp.MustCompile(`^` + authorName + `$`)
	authorSplitPattern  = regexp.MustCompile(authorSep)
	abstractLinePattern = regexp.MustCompile(`(?i)^abstract\b`)

	// Parenthesised affiliations and footnote marks that trail author names.
	affiliationPattern = regexp.MustCompile(`\([^)]*\)`)
	authorMarkPattern  = regexp.MustCompile(`[\d*∗⋆†‡§¶]+`)
)

// headerAuthorLine finds the first line between the title and the abstract
// marker that starts with "Firstname Lastname" names. Affiliation marks
// are stripped and the list ends at the first part that is not a name.
func headerAuthorLine(d *document) ([]string, bool) {
	if d.titleLine < 0 {
		return nil, false
	}
	end := min(len(d.lines), d.titleLine+1+headerWindow)
	for i := d.titleLine + 1; i < len(d.lines); i++ {
		if abstractLinePattern.MatchString(strings.TrimSpace(d.lines[i])) {
			end = i
			break
		}
	}

	for _, l := range d.lines[d.titleLine+1 : end] {
		if authors := leadingAuthors(l); len(authors) > 0 {
			return authors, true
		}
	}
	return nil, false
}

// leadingAuthors returns the run of names at the start of line.
func leadingAuthors(line string) []string {
	line = affiliationPattern.ReplaceAllString(line, "")
	line = authorMarkPattern.ReplaceAllString(line, ",")

	var authors []string
	for _, part := range authorSplitPattern.Split(strings.TrimSpace(line), -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !authorNamePattern.MatchString(part) {
			break
		}
		authors = append(authors, part)
	}
	return authors
}
