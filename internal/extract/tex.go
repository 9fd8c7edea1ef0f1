// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// FromTeX extracts metadata from a root LaTeX document, inlining the files
// it pulls in with \input and \include.
func FromTeX(mainTexPath string, cfg types.ExtractionConfig) (types.PaperMetadata, error) {
	src, err := readTeX(mainTexPath)
	if err != nil {
		return types.PaperMetadata{}, err
	}

	abs, err := filepath.Abs(mainTexPath)
	if err != nil {
		abs = mainTexPath
	}
	tex := resolveIncludes(stripComments(src), filepath.Dir(mainTexPath), map[string]bool{abs: true})

	github, code := texLinks.find(tex)
	title := texTitle(tex)
	if title == "" {
		title = Untitled
	}
	return types.PaperMetadata{
		Title:       title,
		Authors:     texAuthors(tex),
		Abstract:    texAbstract(tex),
		Content:     Truncate(texContent(tex), maxContentLength(cfg)),
		GitHubLinks: github,
		CodeLinks:   code,
		SourceType:  types.SourceTeX,
	}, nil
}

// readTeX reads a source file as UTF-8, falling back to ISO-8859-1 for
// older submissions.
func readTeX(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}
	return string(decoded), nil
}

// stripComments removes % comments, leaving escaped \% in place.
func stripComments(tex string) string {
	lines := strings.Split(tex, "\n")
	for i, l := range lines {
		for j := 0; j < len(l); j++ {
			if l[j] == '\\' {
				j++
				continue
			}
			if l[j] == '%' {
				lines[i] = l[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

var includePattern = regexp.MustCompile(`\\(?:input|include)\s*\{([^}]+)\}`)

// resolveIncludes replaces \input{f} and \include{f} with the contents of
// f, relative to baseDir. Files already inlined are dropped to break cycles;
// unreadable files leave the directive in place.
func resolveIncludes(tex, baseDir string, visited map[string]bool) string {
	var b strings.Builder
	last := 0
	for _, m := range includePattern.FindAllStringSubmatchIndex(tex, -1) {
		b.WriteString(tex[last:m[0]])
		last = m[1]

		name := strings.TrimSpace(tex[m[2]:m[3]])
		if !strings.HasSuffix(name, ".tex") {
			name += ".tex"
		}
		// Includes resolve only below baseDir.
		if !filepath.IsLocal(filepath.Clean(name)) {
			b.WriteString(tex[m[0]:m[1]])
			continue
		}
		path := filepath.Join(baseDir, name)
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if visited[abs] {
			continue
		}

		included, err := readTeX(path)
		if err != nil {
			b.WriteString(tex[m[0]:m[1]])
			continue
		}
		visited[abs] = true
		b.WriteString(resolveIncludes(stripComments(included), baseDir, visited))
	}
	b.WriteString(tex[last:])
	return b.String()
}

// braceGroup returns the contents of the balanced {...} group that starts
// at the first non-space character at or after i, and the index just past
// its closing brace.
func braceGroup(s string, i int) (string, int, bool) {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	if i >= len(s) || s[i] != '{' {
		return "", i, false
	}
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[i+1 : j], j + 1, true
			}
		}
	}
	return "", i, false
}

// skipOptional skips a [...] argument starting at or after i.
func skipOptional(s string, i int) int {
	j := i
	for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
		j++
	}
	if j >= len(s) || s[j] != '[' {
		return i
	}
	if k := strings.IndexByte(s[j:], ']'); k >= 0 {
		return j + k + 1
	}
	return i
}

// commandArg returns the mandatory argument of the first \name command in
// tex, skipping an optional [...] argument.
func commandArg(tex, name string) (string, bool) {
	re := regexp.MustCompile(`\\` + regexp.QuoteMeta(name) + `\b\*?`)
	loc := re.FindStringIndex(tex)
	if loc == nil {
		return "", false
	}
	arg, _, ok := braceGroup(tex, skipOptional(tex, loc[1]))
	return arg, ok
}

// removeCommand deletes every \name[...]{...} including its argument.
func removeCommand(tex, name string) string {
	re := regexp.MustCompile(`\\` + regexp.QuoteMeta(name) + `\b\*?`)
	var b strings.Builder
	for {
		loc := re.FindStringIndex(tex)
		if loc == nil {
			b.WriteString(tex)
			return b.String()
		}
		b.WriteString(tex[:loc[0]])
		end := skipOptional(tex, loc[1])
		if _, after, ok := braceGroup(tex, end); ok {
			end = after
		}
		tex = tex[end:]
	}
}

func texTitle(tex string) string {
	title, ok := commandArg(tex, "title")
	if !ok {
		return ""
	}
	return collapse(latexToText(title))
}

var (
	authorSplitTeX    = regexp.MustCompile(`\\(?:and|And|AND)\b`)
	footnotemarkTeX   = regexp.MustCompile(`\\footnotemark(?:\[[^\]]*\])?`)
	mathTeX           = regexp.MustCompile(`\$[^$]*\$`)
	plainAuthorSplit  = regexp.MustCompile(`\s*,\s*|\s+and\s+`)
	anyCommandWithArg = regexp.MustCompile(`\\[a-zA-Z@]+\*?(?:\[[^\]]*\])?(?:\{[^{}]*\})?`)
)

// texAuthors splits the \author block into names. Each \and-separated block
// contributes its first line; affiliations, marks and e-mail addresses are
// dropped.
func texAuthors(tex string) []string {
	authors := []string{}
	block, ok := commandArg(tex, "author")
	if !ok {
		return authors
	}
	for _, cmd := range []string{"thanks", "footnote", "hspace", "vspace"} {
		block = removeCommand(block, cmd)
	}
	block = footnotemarkTeX.ReplaceAllString(block, "")
	block = mathTeX.ReplaceAllString(block, "")

	for _, part := range authorSplitTeX.Split(block, -1) {
		line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(part), `\\`, 2)[0])
		line = unwrapFormatting(line)
		line = anyCommandWithArg.ReplaceAllString(line, "")
		line = strings.NewReplacer("{", "", "}", "", "~", " ").Replace(line)
		for _, name := range plainAuthorSplit.Split(line, -1) {
			name = strings.Trim(collapse(name), " ,*")
			if len(name) < 3 || strings.Contains(name, "@") {
				continue
			}
			authors = append(authors, name)
		}
	}
	return authors
}

var abstractEnv = regexp.MustCompile(`(?is)\\begin\{abstract\}(.*?)\\end\{abstract\}`)

func texAbstract(tex string) string {
	m := abstractEnv.FindStringSubmatch(tex)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(latexToText(m[1]))
}

var (
	documentEnv     = regexp.MustCompile(`(?s)\\begin\{document\}(.*?)\\end\{document\}`)
	bibliographyEnv = regexp.MustCompile(`(?s)\\begin\{thebibliography\}.*?\\end\{thebibliography\}`)
	bibliographyCmd = regexp.MustCompile(`\\bibliography\{[^}]+\}`)
	ackEnv          = regexp.MustCompile(`(?is)\\begin\{acknowledg(?:e)?ments?\}.*?\\end\{acknowledg(?:e)?ments?\}`)
)

func texContent(tex string) string {
	content := tex
	if m := documentEnv.FindStringSubmatch(tex); m != nil {
		content = m[1]
	}
	content = bibliographyEnv.ReplaceAllString(content, "")
	content = bibliographyCmd.ReplaceAllString(content, "")
	content = ackEnv.ReplaceAllString(content, "")
	return latexToText(content)
}

var (
	formattingCmd = regexp.MustCompile(`\\(?:textbf|textit|textsc|texttt|textrm|textsf|emph|underline|mbox|text|url)\s*\{([^{}]*)\}`)
	envDelim      = regexp.MustCompile(`\\(?:begin|end)\s*\{[^}]*\}`)
	dropWithArg   = regexp.MustCompile(`\\(?:cite[a-z]*|ref|eqref|autoref|cref|Cref|label|includegraphics|bibliographystyle)\*?(?:\[[^\]]*\])*\{[^}]*\}`)
	bareCommand   = regexp.MustCompile(`\\[a-zA-Z@]+\*?`)
	blankLines    = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)+`)
	spaceRuns     = regexp.MustCompile(`[ \t]+`)
)

var texEscapes = strings.NewReplacer(
	`\\`, "\n",
	`\%`, "%",
	`\&`, "&",
	`\$`, "$",
	`\#`, "#",
	`\_`, "_",
	`\{`, "",
	`\}`, "",
	"~", " ",
	"``", `"`,
	"''", `"`,
	"---", "—",
	"--", "–",
)

// unwrapFormatting replaces formatting commands with their argument,
// innermost first.
func unwrapFormatting(s string) string {
	for {
		out := formattingCmd.ReplaceAllString(s, "$1")
		if out == s {
			return out
		}
		s = out
	}
}

// latexToText reduces LaTeX markup to plain text: comments and references
// go, formatting keeps its content, other commands and braces are dropped.
func latexToText(s string) string {
	s = stripComments(s)
	s = dropWithArg.ReplaceAllString(s, "")
	s = unwrapFormatting(s)
	s = envDelim.ReplaceAllString(s, "")
	s = texEscapes.Replace(s)
	s = bareCommand.ReplaceAllString(s, "")
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
