// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceType records which representation metadata was extracted from.
type SourceType string

const (
	SourcePDF SourceType = "pdf"
	SourceTeX SourceType = "tex"
)

// PaperMetadata is the structured record extracted from a paper's text.
// Field names follow the JSON artifacts consumed by the library viewer.
type PaperMetadata struct {
	// Title is the paper title, or "Untitled" when none was found.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract, empty when none was found.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Content is the full text, capped with a truncation marker.
	Content string `json:"content" yaml:"content"`

	// GitHubLinks are github.com URLs in first-seen order.
	GitHubLinks []string `json:"githubLinks" yaml:"github_links"`

	// CodeLinks are other code-hosting URLs, excluding GitHubLinks.
	CodeLinks []string `json:"codeLinks" yaml:"code_links"`

	// PageCount is the number of pages reported by the text layer.
	PageCount int `json:"pageCount" yaml:"page_count"`

	SourceType SourceType `json:"sourceType,omitempty" yaml:"source_type,omitempty"`
}

// Artifact is a file produced by a successful download. The caller owns it.
type Artifact struct {
	// Path is the local filesystem path of the saved body.
	Path string `json:"path" yaml:"path"`

	// ContentType is the Content-Type header the server declared.
	ContentType string `json:"content_type" yaml:"content_type"`

	// SourceURL is the URL the body was served from, after redirects.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Size is the number of bytes written.
	Size int64 `json:"size" yaml:"size"`
}

// RootCandidate is a .tex file considered during root-document detection.
type RootCandidate struct {
	Path             string `json:"path" yaml:"path"`
	HasDocumentClass bool   `json:"has_document_class" yaml:"has_document_class"`
	Size             int64  `json:"size" yaml:"size"`
}

// SourceResult is the payload of an e-print retrieval. On failure only
// Success and Error are set.
type SourceResult struct {
	Success     bool   `json:"success" yaml:"success"`
	MainTex     string `json:"mainTex,omitempty" yaml:"main_tex,omitempty"`
	ExtractPath string `json:"extractPath,omitempty" yaml:"extract_path,omitempty"`
	ArxivID     string `json:"arxivId,omitempty" yaml:"arxiv_id,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// StudyResult is the outcome of running the full pipeline on one reference.
type StudyResult struct {
	// Reference is the raw input.
	Reference string `json:"reference" yaml:"reference"`

	// Kind is the reference classification (e.g. "url", "arxiv-abs", "local").
	Kind string `json:"kind" yaml:"kind"`

	ArxivID string `json:"arxivId,omitempty" yaml:"arxiv_id,omitempty"`

	// PDFPath is the local PDF the metadata was extracted from.
	PDFPath string `json:"pdfPath" yaml:"pdf_path"`

	Metadata PaperMetadata `json:"metadata" yaml:"metadata"`

	// Source is set when TeX source retrieval was attempted.
	Source *SourceResult `json:"source,omitempty" yaml:"source,omitempty"`
}
