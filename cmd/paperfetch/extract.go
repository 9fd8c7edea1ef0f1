package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/convert"
	"github.com/pdiddy/paperfetch/internal/extract"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract metadata from a local PDF or LaTeX root document",
	Long: `Extract reads a local PDF through the configured text backend and
recovers title, authors, abstract, content, and code links. With --tex the
argument is a root .tex file; \input and \include are followed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Bool("tex", false, "treat the argument as a LaTeX root document")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	path := args[0]

	if tex, _ := cmd.Flags().GetBool("tex"); tex {
		meta, err := extract.FromTeX(path, cfg.Extraction)
		if err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), meta)
	}

	meta, err := extractPDF(cmd, path, cfg)
	if err != nil {
		return err
	}
	return printValue(cmd.OutOrStdout(), meta)
}

func extractPDF(cmd *cobra.Command, path string, cfg types.PipelineConfig) (types.PaperMetadata, error) {
	conv, err := convert.New(cmd.Context(), cfg.Conversion)
	if err != nil {
		return types.PaperMetadata{}, err
	}
	doc, err := conv.Convert(cmd.Context(), path)
	if err != nil {
		return types.PaperMetadata{}, fmt.Errorf("converting %s: %w", path, err)
	}
	return extract.FromText(doc.Text, doc.Pages, cfg.Extraction), nil
}
