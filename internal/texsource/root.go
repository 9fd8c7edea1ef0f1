// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package texsource

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// priorityNames are conventional root document names, most likely first.
var priorityNames = []string{"main.tex", "ms.tex", "paper.tex", "article.tex"}

// documentClassPattern matches \documentclass on a line where it is not
// commented out.
var documentClassPattern = regexp.MustCompile(`(?m)^[^%\n]*\\documentclass`)

// selector picks a root among candidates, or reports false.
type selector func([]types.RootCandidate) (types.RootCandidate, bool)

// selectors run in order; the first match wins.
var selectors = []selector{byPriorityName, firstWithDocumentClass, largest}

// FindRoot returns the path of the root document under dir. It fails with
// types.ErrNoRootDocument when dir holds no .tex files.
func FindRoot(dir string) (string, error) {
	candidates, err := ScanCandidates(dir)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", types.NewError(types.KindNoRootDocument, "source", "no .tex files found in "+dir, nil)
	}
	for _, sel := range selectors {
		if c, ok := sel(candidates); ok {
			return c.Path, nil
		}
	}
	// largest always matches a non-empty list.
	return candidates[0].Path, nil
}

// ScanCandidates lists the .tex files under dir in lexical path order.
func ScanCandidates(dir string) ([]types.RootCandidate, error) {
	var out []types.RootCandidate
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".tex") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out = append(out, types.RootCandidate{
			Path:             path,
			HasDocumentClass: documentClassPattern.Match(data),
			Size:             int64(len(data)),
		})
		return nil
	})
	if err != nil {
		return nil, types.NewError(types.KindIO, "source", "scanning "+dir, err)
	}
	return out, nil
}

func byPriorityName(candidates []types.RootCandidate) (types.RootCandidate, bool) {
	for _, name := range priorityNames {
		for _, c := range candidates {
			if filepath.Base(c.Path) == name && c.HasDocumentClass {
				return c, true
			}
		}
	}
	return types.RootCandidate{}, false
}

func firstWithDocumentClass(candidates []types.RootCandidate) (types.RootCandidate, bool) {
	for _, c := range candidates {
		if c.HasDocumentClass {
			return c, true
		}
	}
	return types.RootCandidate{}, false
}

// largest picks the biggest file; ties go to the first in scan order.
func largest(candidates []types.RootCandidate) (types.RootCandidate, bool) {
	if len(candidates) == 0 {
		return types.RootCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Size > best.Size {
			best = c
		}
	}
	return best, true
}
