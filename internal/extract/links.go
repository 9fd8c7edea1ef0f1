// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"slices"
)

// linkSet holds the URL patterns for one flavor of input. stop lists the
// characters that end a URL.
type linkSet struct {
	github *regexp.Regexp
	code   []*regexp.Regexp
}

func newLinkSet(stop string) linkSet {
	url := `[^` + stop + `]+`
	return linkSet{
		github: regexp.MustCompile(`https?://github\.com/` + url),
		code: []*regexp.Regexp{
			regexp.MustCompile(`(?i)https?://(?:www\.)?arxiv\.org/(?:code|src)/` + url),
			regexp.MustCompile(`(?i)https?://(?:www\.)?codeocean\.com/` + url),
			regexp.MustCompile(`(?i)https?://(?:www\.)?openreview\.net/code` + `[^` + stop + `]*`),
			regexp.MustCompile(`(?i)https?://(?:www\.)?paperswithcode\.com/` + url),
			regexp.MustCompile(`(?i)https?://(?:www\.)?gitlab\.com/` + url),
			regexp.MustCompile(`(?i)https?://(?:www\.)?bitbucket\.org/` + url),
			// Markdown [code](url); the URL is the first group.
			regexp.MustCompile(`(?i)\[code[^\]]*\]\((https?://[^)\s]+)\)`),
		},
	}
}

var (
	textLinks = newLinkSet(`\s)`)
	texLinks  = newLinkSet(`\s)}\]`)
)

// FindLinks returns the GitHub URLs in text and the other code-hosting URLs
// that are not among them. Both lists are deduplicated and keep first-seen
// order.
func FindLinks(text string) (github, code []string) {
	return textLinks.find(text)
}

func (ls linkSet) find(text string) (github, code []string) {
	github = dedupe(ls.github.FindAllString(text, -1))

	type hit struct {
		pos int
		url string
	}
	var hits []hit
	for _, re := range ls.code {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			hits = append(hits, hit{pos: start, url: text[start:end]})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.pos - b.pos })

	code = []string{}
	seen := make(map[string]bool, len(github)+len(hits))
	for _, g := range github {
		seen[g] = true
	}
	for _, h := range hits {
		if !seen[h.url] {
			seen[h.url] = true
			code = append(code, h.url)
		}
	}
	return github, code
}

// dedupe drops repeated strings, keeping first occurrences. The result is
// never nil.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
