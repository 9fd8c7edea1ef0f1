// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texsource retrieves arXiv e-print archives, unpacks them into the
// workspace, and locates the root LaTeX document.
package texsource

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// DefaultEPrintBase is the arXiv e-print endpoint.
const DefaultEPrintBase = "https://arxiv.org/e-print/"

// idPattern restricts identifiers to new-style arXiv ids, which are safe to
// use as directory names.
var idPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// EPrintURL returns the e-print (source archive) URL for id under base.
func EPrintURL(base, arxivID string) string {
	if base == "" {
		base = DefaultEPrintBase
	}
	return base + arxivID
}

// Retriever downloads and unpacks e-print archives.
type Retriever struct {
	client *http.Client
	cfg    types.SourceConfig
	logger *slog.Logger
}

// NewRetriever creates a Retriever. A nil client gets one built from
// cfg.HTTPConfig; a nil logger uses slog.Default().
func NewRetriever(client *http.Client, cfg types.SourceConfig, logger *slog.Logger) *Retriever {
	cfg.HTTPConfig = cfg.HTTPConfig.WithDefaults()
	if cfg.Workspace == "" {
		cfg.Workspace = types.DefaultWorkspace()
	}
	if cfg.MaxEntrySize <= 0 {
		cfg.MaxEntrySize = types.DefaultMaxEntrySize
	}
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{client: client, cfg: cfg, logger: logger}
}

// Retrieve downloads the e-print for arxivID to {workspace}/{id}.tar.gz,
// unpacks it into {workspace}/{id} and returns the root document. A paper
// without TeX source fails with types.ErrSourceUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, arxivID string) (*types.SourceResult, error) {
	if !idPattern.MatchString(arxivID) {
		return nil, types.NewError(types.KindValidation, "source",
			fmt.Sprintf("invalid arXiv identifier %q", arxivID), nil)
	}
	if err := os.MkdirAll(r.cfg.Workspace, 0o755); err != nil {
		return nil, types.NewError(types.KindIO, "source", "creating workspace "+r.cfg.Workspace, err)
	}

	archivePath := filepath.Join(r.cfg.Workspace, arxivID+".tar.gz")
	if err := r.download(ctx, arxivID, archivePath); err != nil {
		return nil, err
	}

	extractDir := filepath.Join(r.cfg.Workspace, arxivID)
	if err := Unpack(archivePath, extractDir, r.cfg.MaxEntrySize); err != nil {
		return nil, err
	}

	root, err := FindRoot(extractDir)
	if err != nil {
		return nil, err
	}
	r.logger.Info("found root document", "arxiv_id", arxivID, "path", root)

	return &types.SourceResult{
		Success:     true,
		MainTex:     root,
		ExtractPath: extractDir,
		ArxivID:     arxivID,
	}, nil
}

func (r *Retriever) download(ctx context.Context, arxivID, dest string) error {
	url := EPrintURL(r.cfg.EPrintBase, arxivID)
	r.logger.Info("downloading source", "arxiv_id", arxivID, "url", url)

	resp, err := httputil.Get(ctx, r.client, url, httputil.Options{
		UserAgent:    r.cfg.UserAgent,
		MaxRedirects: r.cfg.MaxRedirects,
		Op:           "source",
		Logger:       r.logger,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		e := types.NewError(types.KindSourceUnavailable, "source",
			"TeX source not available for "+arxivID, nil)
		e.StatusCode = resp.StatusCode
		return e
	case resp.StatusCode != http.StatusOK:
		return httputil.StatusError("source", resp)
	}

	// arXiv answers with the PDF itself for PDF-only submissions.
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "application/pdf" {
		e := types.NewError(types.KindSourceUnavailable, "source",
			"only a PDF is available for "+arxivID, nil)
		e.StatusCode = resp.StatusCode
		e.ContentType = mt
		return e
	}

	n, err := httputil.SaveBody("source", dest, resp.Body)
	if err != nil {
		return err
	}
	r.logger.Debug("saved source archive", "path", dest, "bytes", n)
	return nil
}

// Failure returns the failure payload for err.
func Failure(err error) *types.SourceResult {
	return &types.SourceResult{Success: false, Error: err.Error()}
}
