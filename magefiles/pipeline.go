//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Study builds the CLI and runs the full pipeline on one reference, writing
// the result under output/results.
func Study(reference string) error {
	mg.SerialDeps(Init, Build)
	return sh.RunV(filepath.Join(binDir, binName), "study",
		"--workspace", workspace,
		"--out", filepath.Join("output", "results"),
		reference)
}

// Source builds the CLI and retrieves the TeX source of an arXiv paper into
// the local workspace.
func Source(arxivID string) error {
	mg.SerialDeps(Init, Build)
	out, err := sh.Output(filepath.Join(binDir, binName), "source", "--workspace", workspace, arxivID)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}
