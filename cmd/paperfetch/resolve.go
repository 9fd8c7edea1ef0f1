package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/acquire"
)

// resolution is the printed form of a classified reference.
type resolution struct {
	Reference string `json:"reference" yaml:"reference"`
	Kind      string `json:"kind" yaml:"kind"`
	Target    string `json:"target" yaml:"target"`
	ArxivID   string `json:"arxivId,omitempty" yaml:"arxiv_id,omitempty"`
	Remote    bool   `json:"remote" yaml:"remote"`
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Classify a reference and print its fetch target",
	Long: `Resolve classifies a URL, arXiv identifier, or local path. arXiv abstract
and PDF URLs, and bare identifiers, resolve to the canonical arXiv PDF URL.
Local paths must name an existing PDF file. Nothing is downloaded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref, err := acquire.Resolve(args[0])
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), resolution{
			Reference: ref.Raw,
			Kind:      ref.Kind.String(),
			Target:    ref.Target,
			ArxivID:   ref.ArxivID,
			Remote:    ref.Remote(),
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
