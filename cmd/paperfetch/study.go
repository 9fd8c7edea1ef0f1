// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfetch/internal/acquire"
	"github.com/pdiddy/paperfetch/internal/convert"
	"github.com/pdiddy/paperfetch/pkg/types"
)

var studyCmd = &cobra.Command{
	Use:   "study [references...]",
	Short: "Run the full pipeline on one or more references",
	Long: `Study resolves each reference, downloads the PDF, extracts its text and
metadata, and for arXiv papers retrieves the TeX source, whose title,
authors and abstract take precedence. Papers without TeX source are still
studied. Failures are reported per reference and the batch continues.

Status lines go to stderr. With --out each result is written to
{out}/{slug}.json (or .yaml with --format yaml); otherwise results are
printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStudy,
}

func init() {
	f := studyCmd.Flags()
	f.String("out", "", "directory to write one result file per reference")
	f.Duration("delay", time.Second, "delay between consecutive references")
	f.Bool("source", true, "retrieve TeX source for arXiv references")
	f.Bool("enrich", false, "fill missing fields from the arXiv API")
	f.String("image", "", "container image for the pdftotext backend")

	for key, flag := range map[string]string{
		"output_dir":   "out",
		"delay":        "delay",
		"fetch_source": "source",
		"enrich":       "enrich",
		"image":        "image",
	} {
		if err := viper.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(studyCmd)
}

func runStudy(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	cfg.OutputDir = viper.GetString("output_dir")

	conv, err := convert.New(cmd.Context(), cfg.Conversion)
	if err != nil {
		return err
	}
	p := acquire.NewPipeline(nil, conv, cfg, logger)

	result := p.StudyBatch(cmd.Context(), args, cmd.ErrOrStderr())
	if cfg.OutputDir == "" {
		var out any = result.Results
		if len(args) == 1 && len(result.Results) == 1 {
			out = result.Results[0]
		}
		if result.Results == nil {
			out = []*types.StudyResult{}
		}
		if err := printValue(cmd.OutOrStdout(), out); err != nil {
			return err
		}
	}
	if result.HasFailures() {
		return fmt.Errorf("%d reference(s) failed", result.Failed)
	}
	return nil
}
