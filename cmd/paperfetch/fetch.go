package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfetch/internal/acquire"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <reference>",
	Short: "Download a referenced PDF into the workspace and print its path",
	Long: `Fetch resolves the reference and downloads remote PDFs into the workspace,
following up to --max-redirects redirects. The response must declare the
PDF content type; HTML pages are rejected with their title. Local PDFs are
validated and printed unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := acquire.NewPipeline(nil, nil, pipelineConfig(), logger)
		_, path, err := p.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
