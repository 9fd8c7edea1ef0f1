// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperfetch CLI. Each pipeline
// stage is a subcommand: resolve, fetch, source, extract, and study.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from --verbose before any subcommand runs.
var logger = slog.Default()

// rootCmd is the base command for the paperfetch CLI.
var rootCmd = &cobra.Command{
	Use:   "paperfetch",
	Short: "Fetch scholarly papers and extract their metadata",
	Long: `paperfetch ingests a paper given as a URL, an arXiv identifier, or a local
PDF. It downloads the PDF, optionally retrieves and unpacks the arXiv TeX
source, and extracts title, authors, abstract, content, and code links.

Each stage is a subcommand; study runs them all.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paperfetch.yaml or ~/.config/paperfetch/paperfetch.yaml)")
	pf.String("workspace", "", "scratch directory for downloads and unpacked sources (default: $TMPDIR/paperfetch)")
	pf.Duration("timeout", types.DefaultTimeout, "HTTP request timeout")
	pf.Int("max-redirects", types.DefaultMaxRedirects, "redirect budget per request")
	pf.String("user-agent", types.DefaultUserAgent, "User-Agent header for HTTP requests")
	pf.String("format", "json", "output format: json or yaml")
	pf.String("backend", string(types.BackendPDF), "PDF text backend: pdf or pdftotext")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	for key, flag := range map[string]string{
		"workspace":     "workspace",
		"timeout":       "timeout",
		"max_redirects": "max-redirects",
		"user_agent":    "user-agent",
		"format":        "format",
		"backend":       "backend",
		"verbose":       "verbose",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetDefault("content_type", types.DefaultContentType)
	viper.SetDefault("max_content_length", types.DefaultMaxContentLength)
	viper.SetDefault("max_entry_size", types.DefaultMaxEntrySize)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperfetch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperfetch"))
		}
	}

	viper.SetEnvPrefix("PAPERFETCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles stage configuration from flags, environment and
// the config file.
func pipelineConfig() types.PipelineConfig {
	httpCfg := types.HTTPConfig{
		Timeout:      viper.GetDuration("timeout"),
		UserAgent:    viper.GetString("user_agent"),
		MaxRedirects: viper.GetInt("max_redirects"),
	}
	workspace := viper.GetString("workspace")
	return types.PipelineConfig{
		Acquisition: types.AcquisitionConfig{
			HTTPConfig:    httpCfg,
			Workspace:     workspace,
			ContentType:   viper.GetString("content_type"),
			DownloadDelay: viper.GetDuration("delay"),
		},
		Source: types.SourceConfig{
			HTTPConfig:   httpCfg,
			Workspace:    workspace,
			MaxEntrySize: viper.GetInt64("max_entry_size"),
			EPrintBase:   viper.GetString("eprint_base"),
		},
		Conversion: types.ConversionConfig{
			Backend: types.ConversionBackend(viper.GetString("backend")),
			Image:   viper.GetString("image"),
		},
		Extraction: types.ExtractionConfig{
			MaxContentLength: viper.GetInt("max_content_length"),
		},
		FetchSource:     viper.GetBool("fetch_source"),
		EnrichFromArxiv: viper.GetBool("enrich"),
		OutputFormat:    viper.GetString("format"),
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
