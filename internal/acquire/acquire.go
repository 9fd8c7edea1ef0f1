// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire resolves paper references, downloads them, and runs the
// study pipeline that turns a reference into structured metadata.
package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfetch/internal/convert"
	"github.com/pdiddy/paperfetch/internal/extract"
	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/internal/texsource"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// BatchResult holds the outcome of a batch study run.
type BatchResult struct {
	Studied int
	Failed  int
	Results []*types.StudyResult
}

// Total returns the total number of references processed.
func (r BatchResult) Total() int {
	return r.Studied + r.Failed
}

// HasFailures reports whether any references failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline runs resolve, fetch, convert and extract for one reference at a
// time, optionally adding the TeX source and arXiv API metadata.
type Pipeline struct {
	cfg        types.PipelineConfig
	client     *http.Client
	downloader *Downloader
	retriever  *texsource.Retriever
	converter  convert.Converter
	logger     *slog.Logger
}

// NewPipeline wires the stages together. Source settings left empty inherit
// the acquisition workspace and HTTP settings. A nil converter selects the
// in-process PDF backend; a nil client is built from the acquisition config.
func NewPipeline(client *http.Client, conv convert.Converter, cfg types.PipelineConfig, logger *slog.Logger) *Pipeline {
	cfg.Acquisition.HTTPConfig = cfg.Acquisition.HTTPConfig.WithDefaults()
	if cfg.Acquisition.Workspace == "" {
		cfg.Acquisition.Workspace = types.DefaultWorkspace()
	}
	if cfg.Source.Workspace == "" {
		cfg.Source.Workspace = cfg.Acquisition.Workspace
	}
	if cfg.Source.HTTPConfig == (types.HTTPConfig{}) {
		cfg.Source.HTTPConfig = cfg.Acquisition.HTTPConfig
	}
	if client == nil {
		client = httputil.NewClient(cfg.Acquisition.HTTPConfig)
	}
	if conv == nil {
		conv = convert.NewPDFConverter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		client:     client,
		downloader: NewDownloader(client, cfg.Acquisition, logger),
		retriever:  texsource.NewRetriever(client, cfg.Source, logger),
		converter:  conv,
		logger:     logger,
	}
}

// Fetch resolves raw and returns the local PDF path, downloading remote
// references into the workspace. Local references are returned as-is.
func (p *Pipeline) Fetch(ctx context.Context, raw string) (Reference, string, error) {
	ref, err := Resolve(raw)
	if err != nil {
		return ref, "", err
	}
	if !ref.Remote() {
		return ref, ref.Target, nil
	}
	art, err := p.downloader.Download(ctx, ref.Target)
	if err != nil {
		return ref, "", err
	}
	return ref, art.Path, nil
}

// Study runs the full pipeline on one reference.
func (p *Pipeline) Study(ctx context.Context, raw string) (*types.StudyResult, error) {
	_, res, err := p.study(ctx, raw)
	return res, err
}

func (p *Pipeline) study(ctx context.Context, raw string) (Reference, *types.StudyResult, error) {
	ref, pdfPath, err := p.Fetch(ctx, raw)
	if err != nil {
		return ref, nil, err
	}

	doc, err := p.converter.Convert(ctx, pdfPath)
	if err != nil {
		return ref, nil, fmt.Errorf("converting %s: %w", pdfPath, err)
	}

	res := &types.StudyResult{
		Reference: raw,
		Kind:      ref.Kind.String(),
		ArxivID:   ref.ArxivID,
		PDFPath:   pdfPath,
		Metadata:  extract.FromText(doc.Text, doc.Pages, p.cfg.Extraction),
	}

	if ref.ArxivID != "" && p.cfg.FetchSource {
		p.addSource(ctx, ref.ArxivID, res)
	}
	if ref.ArxivID != "" && p.cfg.EnrichFromArxiv {
		rec, err := fetchArxivMetadata(ctx, p.client, ref.ArxivID, p.cfg.Acquisition.HTTPConfig)
		if err != nil {
			p.logger.Warn("arXiv metadata fetch failed", "arxiv_id", ref.ArxivID, "error", err)
		} else {
			fillFromArxiv(&res.Metadata, rec)
		}
	}
	return ref, res, nil
}

// addSource retrieves the TeX source and prefers its title, authors and
// abstract. Retrieval failures are recorded in res.Source, not returned.
func (p *Pipeline) addSource(ctx context.Context, arxivID string, res *types.StudyResult) {
	src, err := p.retriever.Retrieve(ctx, arxivID)
	if err != nil {
		res.Source = texsource.Failure(err)
		if errors.Is(err, types.ErrSourceUnavailable) {
			p.logger.Info("no TeX source", "arxiv_id", arxivID)
		} else {
			p.logger.Warn("TeX source retrieval failed", "arxiv_id", arxivID, "error", err)
		}
		return
	}
	res.Source = src

	tex, err := extract.FromTeX(src.MainTex, p.cfg.Extraction)
	if err != nil {
		p.logger.Warn("TeX extraction failed", "path", src.MainTex, "error", err)
		return
	}
	mergeTeX(&res.Metadata, tex)
}

// mergeTeX overlays the fields TeX extraction recovers more reliably than
// the text layer. Content and page count stay with the PDF.
func mergeTeX(meta *types.PaperMetadata, tex types.PaperMetadata) {
	if tex.Title != "" && tex.Title != extract.Untitled {
		meta.Title = tex.Title
	}
	if len(tex.Authors) > 0 {
		meta.Authors = tex.Authors
	}
	if tex.Abstract != "" {
		meta.Abstract = tex.Abstract
	}
	meta.GitHubLinks = union(meta.GitHubLinks, tex.GitHubLinks)

	seen := make(map[string]bool, len(meta.GitHubLinks))
	for _, g := range meta.GitHubLinks {
		seen[g] = true
	}
	var code []string
	for _, c := range union(meta.CodeLinks, tex.CodeLinks) {
		if !seen[c] {
			code = append(code, c)
		}
	}
	meta.CodeLinks = append([]string{}, code...)
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// StudyBatch studies each reference, printing per-item status to w and
// returning a summary. It continues after individual failures and waits
// DownloadDelay between consecutive references. When OutputDir is set each
// result is also written to {OutputDir}/{slug}.{json|yaml}.
func (p *Pipeline) StudyBatch(ctx context.Context, refs []string, w io.Writer) BatchResult {
	var result BatchResult
	for i, raw := range refs {
		if i > 0 && p.cfg.Acquisition.DownloadDelay > 0 {
			if err := sleep(ctx, p.cfg.Acquisition.DownloadDelay); err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", raw, err)
				result.Failed += len(refs) - i
				break
			}
		}

		ref, res, err := p.study(ctx, raw)
		if err == nil && p.cfg.OutputDir != "" {
			err = p.writeOutput(ref, res)
		}
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", raw, err)
			result.Failed++
			continue
		}

		fmt.Fprintf(w, "studied: %s (%s)\n", Slug(ref), ref.Kind)
		if res.Source != nil && !res.Source.Success {
			fmt.Fprintf(w, "  source: %s\n", res.Source.Error)
		}
		result.Studied++
		result.Results = append(result.Results, res)
	}
	fmt.Fprintf(w, "\nBatch summary: %d studied, %d failed (total: %d)\n",
		result.Studied, result.Failed, result.Total())
	return result
}

func (p *Pipeline) writeOutput(ref Reference, res *types.StudyResult) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", p.cfg.OutputDir, err)
	}
	ext := ".json"
	if strings.EqualFold(p.cfg.OutputFormat, "yaml") {
		ext = ".yaml"
	}
	return WriteResult(res, filepath.Join(p.cfg.OutputDir, Slug(ref)+ext))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WriteResult writes res to path as YAML when the extension is .yaml or
// .yml and as indented JSON otherwise.
func WriteResult(res *types.StudyResult, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(res)
	} else {
		data, err = json.MarshalIndent(res, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResult reads a result written by WriteResult.
func ReadResult(path string) (*types.StudyResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res types.StudyResult
	if isYAML(path) {
		err = yaml.Unmarshal(data, &res)
	} else {
		err = json.Unmarshal(data, &res)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &res, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
