// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/pdiddy/paperfetch/internal/convert"
	"github.com/pdiddy/paperfetch/pkg/types"
)

const samplePDFText = "PDF Title\n\nJohn Smith, Jane Doe\n\nSome body text, code at https://github.com/a/b for reuse.\n"

const sampleMainTeX = `\documentclass{article}
\title{TeX Title}
\author{Alice Smith \and Bob Jones}
\begin{document}
\begin{abstract}
From TeX.
\end{abstract}
\end{document}
`

const sampleArxivXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>Test Paper
      Title</title>
    <summary>  This is the abstract
      of the test paper.  </summary>
    <author><name>Alice Smith</name></author>
    <author><name>Bob Jones</name></author>
  </entry>
</feed>`

// fakeConverter returns fixed text and records the paths it was asked for.
type fakeConverter struct {
	mu    sync.Mutex
	text  string
	err   error
	paths []string
}

func (f *fakeConverter) Convert(_ context.Context, path string) (*convert.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return &convert.Document{Text: f.text, Pages: 3}, nil
}

func sourceArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	if _, err := gz.Write(tarBuf.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return gzBuf.Bytes()
}

// newArxivServer stands in for the arXiv PDF, e-print and API endpoints.
// When eprint is nil the e-print endpoint answers 404.
func newArxivServer(t *testing.T, eprint []byte) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/pdf/"):
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, fakePDFContent)
		case strings.HasPrefix(r.URL.Path, "/e-print/") && eprint != nil:
			w.Header().Set("Content-Type", "application/gzip")
			w.Write(eprint)
		case r.URL.Path == "/api/query":
			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, sampleArxivXML)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	origPDF, origAPI := arxivPDFBase, arxivAPIBase
	arxivPDFBase = ts.URL + "/pdf/"
	arxivAPIBase = ts.URL + "/api/query"
	t.Cleanup(func() {
		arxivPDFBase, arxivAPIBase = origPDF, origAPI
	})
	return ts
}

func testPipelineConfig(t *testing.T, ts *httptest.Server) types.PipelineConfig {
	t.Helper()
	return types.PipelineConfig{
		Acquisition: testAcquisitionConfig(t.TempDir()),
		Source:      types.SourceConfig{EPrintBase: ts.URL + "/e-print/"},
	}
}

func TestStudyArxivWithSource(t *testing.T) {
	ts := newArxivServer(t, sourceArchive(t, map[string]string{
		"main.tex":     sampleMainTeX,
		"appendix.tex": "appendix",
	}))
	cfg := testPipelineConfig(t, ts)
	cfg.FetchSource = true
	cfg.EnrichFromArxiv = true
	conv := &fakeConverter{text: samplePDFText}

	p := NewPipeline(ts.Client(), conv, cfg, nil)
	res, err := p.Study(context.Background(), "https://arxiv.org/abs/2301.07041v2")
	if err != nil {
		t.Fatalf("Study: %v", err)
	}

	if res.Kind != "arxiv-abs" || res.ArxivID != "2301.07041" {
		t.Errorf("Kind, ArxivID = %q, %q", res.Kind, res.ArxivID)
	}
	if len(conv.paths) != 1 || conv.paths[0] != res.PDFPath {
		t.Errorf("converter saw %v, want [%s]", conv.paths, res.PDFPath)
	}
	if !strings.HasPrefix(res.PDFPath, cfg.Acquisition.Workspace) {
		t.Errorf("PDFPath = %q, want it under the workspace", res.PDFPath)
	}

	if res.Source == nil || !res.Source.Success {
		t.Fatalf("Source = %+v, want success", res.Source)
	}
	wantRoot := filepath.Join(cfg.Acquisition.Workspace, "2301.07041", "main.tex")
	if res.Source.MainTex != wantRoot {
		t.Errorf("MainTex = %q, want %q", res.Source.MainTex, wantRoot)
	}

	meta := res.Metadata
	if meta.Title != "TeX Title" {
		t.Errorf("Title = %q, want TeX title", meta.Title)
	}
	if want := []string{"Alice Smith", "Bob Jones"}; !reflect.DeepEqual(meta.Authors, want) {
		t.Errorf("Authors = %q, want %q", meta.Authors, want)
	}
	if meta.Abstract != "From TeX." {
		t.Errorf("Abstract = %q, want %q", meta.Abstract, "From TeX.")
	}
	if meta.Content != samplePDFText {
		t.Errorf("Content should come from the PDF text layer")
	}
	if meta.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", meta.PageCount)
	}
	if want := []string{"https://github.com/a/b"}; !reflect.DeepEqual(meta.GitHubLinks, want) {
		t.Errorf("GitHubLinks = %q, want %q", meta.GitHubLinks, want)
	}
}

func TestStudySourceUnavailableIsNotFatal(t *testing.T) {
	ts := newArxivServer(t, nil)
	cfg := testPipelineConfig(t, ts)
	cfg.FetchSource = true
	cfg.EnrichFromArxiv = true

	p := NewPipeline(ts.Client(), &fakeConverter{text: samplePDFText}, cfg, nil)
	res, err := p.Study(context.Background(), "2301.07041")
	if err != nil {
		t.Fatalf("Study: %v", err)
	}

	if res.Source == nil || res.Source.Success {
		t.Fatalf("Source = %+v, want recorded failure", res.Source)
	}
	if !strings.Contains(res.Source.Error, "TeX source not available") {
		t.Errorf("Source.Error = %q", res.Source.Error)
	}
	if res.Metadata.Title != "PDF Title" {
		t.Errorf("Title = %q, want the PDF title", res.Metadata.Title)
	}
	if want := "This is the abstract of the test paper."; res.Metadata.Abstract != want {
		t.Errorf("Abstract = %q, want %q from the arXiv API", res.Metadata.Abstract, want)
	}
}

func TestStudyLocalFile(t *testing.T) {
	ts := newArxivServer(t, nil)
	cfg := testPipelineConfig(t, ts)
	cfg.FetchSource = true

	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdf, []byte(fakePDFContent), 0o644); err != nil {
		t.Fatal(err)
	}

	conv := &fakeConverter{text: samplePDFText}
	p := NewPipeline(ts.Client(), conv, cfg, nil)
	res, err := p.Study(context.Background(), pdf)
	if err != nil {
		t.Fatalf("Study: %v", err)
	}
	if res.Kind != "local" || res.PDFPath != pdf {
		t.Errorf("Kind, PDFPath = %q, %q", res.Kind, res.PDFPath)
	}
	if res.Source != nil {
		t.Errorf("Source = %+v, want nil for a local file", res.Source)
	}
	assertOnlyFiles(t, cfg.Acquisition.Workspace, 0)
}

func TestStudyErrors(t *testing.T) {
	ts := newArxivServer(t, nil)
	cfg := testPipelineConfig(t, ts)

	convErr := errors.New("corrupt xref table")
	p := NewPipeline(ts.Client(), &fakeConverter{err: convErr}, cfg, nil)

	if _, err := p.Study(context.Background(), "2301.07041"); !errors.Is(err, convErr) {
		t.Errorf("conversion failure: error = %v, want %v", err, convErr)
	}
	if _, err := p.Study(context.Background(), ts.URL+"/elsewhere.pdf"); !errors.Is(err, types.ErrProtocol) {
		t.Errorf("download failure: error = %v, want protocol error", err)
	}
	if _, err := p.Study(context.Background(), "no such paper"); !errors.Is(err, types.ErrValidation) {
		t.Errorf("resolve failure: error = %v, want validation error", err)
	}
}

func TestStudyBatch(t *testing.T) {
	ts := newArxivServer(t, nil)
	cfg := testPipelineConfig(t, ts)
	cfg.OutputDir = filepath.Join(t.TempDir(), "results")

	pdf := filepath.Join(t.TempDir(), "paper.pdf")
	if err := os.WriteFile(pdf, []byte(fakePDFContent), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(ts.Client(), &fakeConverter{text: samplePDFText}, cfg, nil)
	var buf bytes.Buffer
	result := p.StudyBatch(context.Background(), []string{"2301.07041", "bad ref", pdf}, &buf)

	if result.Studied != 2 {
		t.Errorf("Studied = %d, want 2", result.Studied)
	}
	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Total() != 3 || !result.HasFailures() {
		t.Errorf("Total = %d, HasFailures = %v", result.Total(), result.HasFailures())
	}
	if len(result.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2", len(result.Results))
	}

	out := buf.String()
	for _, want := range []string{
		"studied: 2301.07041 (arxiv-id)",
		"failed:  bad ref",
		"studied: paper (local)",
		"Batch summary: 2 studied, 1 failed (total: 3)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	for _, name := range []string{"2301.07041.json", "paper.json"} {
		got, err := ReadResult(filepath.Join(cfg.OutputDir, name))
		if err != nil {
			t.Errorf("ReadResult(%s): %v", name, err)
			continue
		}
		if got.Metadata.Title != "PDF Title" {
			t.Errorf("%s: Title = %q", name, got.Metadata.Title)
		}
	}
}

func TestStudyBatchCancelled(t *testing.T) {
	ts := newArxivServer(t, nil)
	cfg := testPipelineConfig(t, ts)
	cfg.Acquisition.DownloadDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(ts.Client(), &fakeConverter{text: samplePDFText}, cfg, nil)
	var buf bytes.Buffer
	result := p.StudyBatch(ctx, []string{"bad one", "bad two", "bad three"}, &buf)

	if result.Total() != 3 {
		t.Errorf("Total = %d, want 3", result.Total())
	}
	if result.Studied != 0 {
		t.Errorf("Studied = %d, want 0", result.Studied)
	}
}

func TestFetchArxivMetadata(t *testing.T) {
	ts := newArxivServer(t, nil)

	rec, err := fetchArxivMetadata(context.Background(), ts.Client(), "2301.07041", types.HTTPConfig{})
	if err != nil {
		t.Fatalf("fetchArxivMetadata: %v", err)
	}
	if rec.Title != "Test Paper Title" {
		t.Errorf("Title = %q, want %q", rec.Title, "Test Paper Title")
	}
	if rec.Abstract != "This is the abstract of the test paper." {
		t.Errorf("Abstract = %q", rec.Abstract)
	}
	if want := []string{"Alice Smith", "Bob Jones"}; !reflect.DeepEqual(rec.Authors, want) {
		t.Errorf("Authors = %q, want %q", rec.Authors, want)
	}
}

func TestFetchArxivMetadataNoEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`)
	}))
	defer ts.Close()
	orig := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = orig }()

	if _, err := fetchArxivMetadata(context.Background(), ts.Client(), "2301.07041", types.HTTPConfig{}); err == nil {
		t.Error("expected an error for an empty feed")
	}
}

func TestFillFromArxiv(t *testing.T) {
	rec := &arxivRecord{Title: "API Title", Abstract: "API abstract.", Authors: []string{"Ann Lee"}}

	meta := types.PaperMetadata{Title: "Untitled", Authors: []string{}}
	fillFromArxiv(&meta, rec)
	if meta.Title != "API Title" || meta.Abstract != "API abstract." || len(meta.Authors) != 1 {
		t.Errorf("empty fields not filled: %+v", meta)
	}

	meta = types.PaperMetadata{Title: "Kept", Authors: []string{"Bo Chen"}, Abstract: "Kept abstract."}
	fillFromArxiv(&meta, rec)
	if meta.Title != "Kept" || meta.Abstract != "Kept abstract." || meta.Authors[0] != "Bo Chen" {
		t.Errorf("extracted fields overwritten: %+v", meta)
	}
}

func TestMergeTeX(t *testing.T) {
	meta := types.PaperMetadata{
		Title:       "PDF",
		Authors:     []string{"A B"},
		Abstract:    "pdf abstract",
		GitHubLinks: []string{"https://github.com/a/b"},
		CodeLinks:   []string{"https://gitlab.com/x/y"},
	}
	tex := types.PaperMetadata{
		Title:       "Untitled",
		Authors:     []string{},
		Abstract:    "tex abstract",
		GitHubLinks: []string{"https://github.com/c/d", "https://github.com/a/b"},
		CodeLinks:   []string{"https://bitbucket.org/z/w"},
	}
	mergeTeX(&meta, tex)

	if meta.Title != "PDF" {
		t.Errorf("Title = %q, want PDF title kept over Untitled", meta.Title)
	}
	if !reflect.DeepEqual(meta.Authors, []string{"A B"}) {
		t.Errorf("Authors = %q, want PDF authors kept", meta.Authors)
	}
	if meta.Abstract != "tex abstract" {
		t.Errorf("Abstract = %q, want TeX abstract", meta.Abstract)
	}
	if want := []string{"https://github.com/a/b", "https://github.com/c/d"}; !reflect.DeepEqual(meta.GitHubLinks, want) {
		t.Errorf("GitHubLinks = %q, want %q", meta.GitHubLinks, want)
	}
	if want := []string{"https://gitlab.com/x/y", "https://bitbucket.org/z/w"}; !reflect.DeepEqual(meta.CodeLinks, want) {
		t.Errorf("CodeLinks = %q, want %q", meta.CodeLinks, want)
	}
}

func TestWriteAndReadResult(t *testing.T) {
	res := &types.StudyResult{
		Reference: "2301.07041",
		Kind:      "arxiv-id",
		ArxivID:   "2301.07041",
		PDFPath:   "/tmp/2301.07041.pdf",
		Metadata: types.PaperMetadata{
			Title:       "Test Paper",
			Authors:     []string{"Alice", "Bob"},
			GitHubLinks: []string{"https://github.com/a/b"},
			CodeLinks:   []string{},
			SourceType:  types.SourcePDF,
		},
		Source: &types.SourceResult{Success: false, Error: "source: TeX source not available"},
	}

	for _, name := range []string{"result.json", "result.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteResult(res, path); err != nil {
				t.Fatalf("WriteResult: %v", err)
			}
			got, err := ReadResult(path)
			if err != nil {
				t.Fatalf("ReadResult: %v", err)
			}
			if got.Metadata.Title != res.Metadata.Title || got.ArxivID != res.ArxivID {
				t.Errorf("got %+v", got)
			}
			if !reflect.DeepEqual(got.Metadata.Authors, res.Metadata.Authors) {
				t.Errorf("Authors = %q", got.Metadata.Authors)
			}
			if got.Source == nil || got.Source.Error != res.Source.Error {
				t.Errorf("Source = %+v", got.Source)
			}
		})
	}
}

func TestWriteResultJSONKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.json")
	res := &types.StudyResult{Metadata: types.PaperMetadata{GitHubLinks: []string{}}}
	if err := WriteResult(res, path); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"githubLinks"`, `"codeLinks"`, `"pageCount"`, `"pdfPath"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("JSON result missing key %s:\n%s", key, data)
		}
	}
}
