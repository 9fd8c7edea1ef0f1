// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/acquire"
	"github.com/pdiddy/paperfetch/internal/texsource"
)

var sourceCmd = &cobra.Command{
	Use:   "source <arxiv-id>",
	Short: "Download and unpack the TeX source of an arXiv paper",
	Long: `Source downloads the arXiv e-print archive, unpacks it into
{workspace}/{id}, and locates the root LaTeX document. arXiv URLs are
accepted in place of the identifier. On failure the failure record is
printed to stderr and the exit status is 1.`,
	Args: cobra.ExactArgs(1),
	RunE: runSource,
}

func init() {
	rootCmd.AddCommand(sourceCmd)
}

func runSource(cmd *cobra.Command, args []string) error {
	id := args[0]
	if ref, err := acquire.Resolve(id); err == nil && ref.ArxivID != "" {
		id = ref.ArxivID
	}

	r := texsource.NewRetriever(nil, pipelineConfig().Source, logger)
	res, err := r.Retrieve(cmd.Context(), id)
	if err != nil {
		if perr := printValue(cmd.ErrOrStderr(), texsource.Failure(err)); perr != nil {
			return perr
		}
		cmd.SilenceErrors = true
		return err
	}
	return printValue(cmd.OutOrStdout(), res)
}
