// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// Downloader fetches remote artifacts into the workspace.
type Downloader struct {
	client *http.Client
	cfg    types.AcquisitionConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewDownloader creates a Downloader. A nil client gets one built from
// cfg.HTTPConfig; a nil logger uses slog.Default().
func NewDownloader(client *http.Client, cfg types.AcquisitionConfig, logger *slog.Logger) *Downloader {
	cfg.HTTPConfig = cfg.HTTPConfig.WithDefaults()
	if cfg.Workspace == "" {
		cfg.Workspace = types.DefaultWorkspace()
	}
	if cfg.ContentType == "" {
		cfg.ContentType = types.DefaultContentType
	}
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{client: client, cfg: cfg, logger: logger, now: time.Now}
}

// Download fetches rawURL, following at most cfg.MaxRedirects redirects, and
// streams a 2xx body declaring the expected content type into the workspace.
// On failure no file is left behind.
func (d *Downloader) Download(ctx context.Context, rawURL string) (*types.Artifact, error) {
	if err := os.MkdirAll(d.cfg.Workspace, 0o755); err != nil {
		return nil, types.NewError(types.KindIO, "fetch", "creating workspace "+d.cfg.Workspace, err)
	}

	d.logger.Info("downloading", "url", rawURL)
	resp, err := httputil.Get(ctx, d.client, rawURL, httputil.Options{
		UserAgent:    d.cfg.UserAgent,
		Accept:       d.cfg.ContentType,
		MaxRedirects: d.cfg.MaxRedirects,
		Op:           "fetch",
		Logger:       d.logger,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httputil.StatusError("fetch", resp)
	}

	contentType := resp.Header.Get("Content-Type")
	if !matchesMediaType(contentType, d.cfg.ContentType) {
		return nil, d.contentTypeError(resp, contentType)
	}

	final := resp.Request.URL
	destPath := filepath.Join(d.cfg.Workspace, artifactName(final, d.cfg.ContentType, d.now()))
	size, err := httputil.SaveBody("fetch", destPath, resp.Body)
	if err != nil {
		return nil, err
	}

	d.logger.Info("downloaded", "url", final.String(), "path", destPath, "bytes", size)
	return &types.Artifact{
		Path:        destPath,
		ContentType: contentType,
		SourceURL:   final.String(),
		Size:        size,
	}, nil
}

func (d *Downloader) contentTypeError(resp *http.Response, observed string) *types.Error {
	msg := fmt.Sprintf("URL must point to %s (got: %q)", d.cfg.ContentType, observed)
	if mt, _, _ := mime.ParseMediaType(observed); mt == "text/html" {
		if title := httputil.PageTitle(resp.Body); title != "" {
			msg += fmt.Sprintf(", page title %q", title)
		}
	}
	e := types.NewError(types.KindContentType, "fetch", msg, nil)
	e.ContentType = observed
	return e
}

// matchesMediaType compares the media type of a Content-Type header with
// want, ignoring parameters and case. Unparseable headers fall back to a
// substring check.
func matchesMediaType(header, want string) bool {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return strings.Contains(strings.ToLower(header), strings.ToLower(want))
	}
	return strings.EqualFold(mt, want)
}

// artifactName derives the saved filename from the final URL's last path
// segment, or download-<millis> when there is none. A short hash of the URL
// keeps different URLs with the same basename apart.
func artifactName(u *url.URL, contentType string, now time.Time) string {
	stem := sanitizeName(path.Base(u.Path))
	if stem == "" || stem == "." || stem == "_" {
		stem = fmt.Sprintf("download-%d", now.UnixMilli())
	}

	ext := ""
	if strings.EqualFold(contentType, types.DefaultContentType) {
		ext = ".pdf"
		if strings.EqualFold(filepath.Ext(stem), ext) {
			stem = stem[:len(stem)-len(ext)]
		}
	} else if e := filepath.Ext(stem); e != "" && e != stem {
		ext = e
		stem = strings.TrimSuffix(stem, e)
	}
	return stem + "-" + urlHash(u.String()) + ext
}

// maxNameBytes caps a filename stem, in bytes.
const maxNameBytes = 200

// sanitizeName replaces characters that are unsafe in filenames and caps
// the length on a rune boundary.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if len(name) <= maxNameBytes {
		return name
	}
	cut := maxNameBytes
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
