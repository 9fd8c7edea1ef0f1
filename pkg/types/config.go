// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"os"
	"path/filepath"
	"time"
)

// Defaults shared by the CLI and by stages that receive a zero-valued config.
const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxRedirects     = 5
	DefaultUserAgent        = "paperfetch/0.1 (+https://github.com/pdiddy/paperfetch)"
	DefaultContentType      = "application/pdf"
	DefaultMaxContentLength = 50000
	DefaultMaxEntrySize     = 100 << 20
)

// DefaultWorkspace returns the scratch root used when none is configured.
func DefaultWorkspace() string {
	return filepath.Join(os.TempDir(), "paperfetch")
}

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each request, including reading the body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRedirects is the redirect budget for a single fetch (default 5).
	MaxRedirects int `json:"max_redirects" yaml:"max_redirects"`
}

// WithDefaults returns a copy with zero fields replaced by package defaults.
func (c HTTPConfig) WithDefaults() HTTPConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	return c
}

// AcquisitionConfig holds settings for resolving and downloading papers.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Workspace is the scratch directory downloaded artifacts are written to.
	Workspace string `json:"workspace" yaml:"workspace"`

	// ContentType is the media type a download must declare (default application/pdf).
	ContentType string `json:"content_type" yaml:"content_type"`

	// DownloadDelay is the delay between consecutive items of a batch.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// SourceConfig holds settings for arXiv e-print retrieval.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Workspace is the scratch directory archives are unpacked into.
	Workspace string `json:"workspace" yaml:"workspace"`

	// MaxEntrySize caps the size of a single unpacked file (default 100 MiB).
	MaxEntrySize int64 `json:"max_entry_size" yaml:"max_entry_size"`

	// EPrintBase is the e-print endpoint prefix; the arXiv id is appended.
	EPrintBase string `json:"eprint_base,omitempty" yaml:"eprint_base,omitempty"`
}

// ConversionBackend identifies the PDF text-layer implementation.
type ConversionBackend string

const (
	BackendPDF       ConversionBackend = "pdf"
	BackendPdftotext ConversionBackend = "pdftotext"
)

// ConversionConfig holds settings for the text layer.
type ConversionConfig struct {
	// Backend selects the text extractor: pdf (in-process) or pdftotext (container).
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// Image is the container image used by the pdftotext backend.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// ExtractionConfig holds settings for metadata extraction.
type ExtractionConfig struct {
	// MaxContentLength caps the content field, in characters (default 50000).
	MaxContentLength int `json:"max_content_length" yaml:"max_content_length"`
}

// PipelineConfig groups all stage configurations for the study pipeline.
type PipelineConfig struct {
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Source      SourceConfig      `json:"source" yaml:"source"`
	Conversion  ConversionConfig  `json:"conversion" yaml:"conversion"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction"`

	// FetchSource retrieves the TeX source for arXiv references.
	FetchSource bool `json:"fetch_source" yaml:"fetch_source"`

	// EnrichFromArxiv fills empty fields from the arXiv API for arXiv references.
	EnrichFromArxiv bool `json:"enrich_from_arxiv" yaml:"enrich_from_arxiv"`

	// OutputDir, when set, receives one result file per studied reference.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// OutputFormat is the result file format: json (default) or yaml.
	OutputFormat string `json:"output_format" yaml:"output_format"`
}
