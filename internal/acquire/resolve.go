// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// ReferenceKind classifies a user-supplied reference.
type ReferenceKind int

const (
	KindUnknown ReferenceKind = iota
	KindLocalPath
	KindURL
	KindArxivAbs
	KindArxivPDF
	KindArxivID
)

func (k ReferenceKind) String() string {
	switch k {
	case KindLocalPath:
		return "local"
	case KindURL:
		return "url"
	case KindArxivAbs:
		return "arxiv-abs"
	case KindArxivPDF:
		return "arxiv-pdf"
	case KindArxivID:
		return "arxiv-id"
	default:
		return "unknown"
	}
}

// Base URLs for arXiv resolution. Declared as vars so tests can
// substitute httptest servers.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	arxivAPIBase = "https://export.arxiv.org/api/query"
)

var (
	// arxivAbsPattern and arxivPDFPattern match host+path of arXiv URLs.
	// A version suffix ("v2") is not part of the captured identifier.
	arxivAbsPattern = regexp.MustCompile(`arxiv\.org/abs/(\d+\.\d+)`)
	arxivPDFPattern = regexp.MustCompile(`arxiv\.org/pdf/(\d+\.\d+)`)

	// arxivIDPattern matches bare identifiers: "2301.07041", "arXiv:2301.07041v2".
	arxivIDPattern = regexp.MustCompile(`^(?i:arxiv:)?(\d{4}\.\d{4,5})(?:v\d+)?$`)
)

// Reference is a classified reference. Target is the URL to fetch for remote
// kinds and the validated filesystem path for KindLocalPath.
type Reference struct {
	Raw     string        `json:"reference"`
	Kind    ReferenceKind `json:"-"`
	Target  string        `json:"target"`
	ArxivID string        `json:"arxivId,omitempty"`
}

// Remote reports whether the reference must be fetched over the network.
func (r Reference) Remote() bool {
	return r.Kind != KindLocalPath && r.Kind != KindUnknown
}

// Resolve classifies raw and derives its fetch target. Syntactically valid
// URLs are remote; arXiv abstract and PDF URLs are rewritten to the canonical
// PDF URL. Bare arXiv identifiers resolve the same way unless a file of that
// name exists. Anything else must be an existing regular file with a .pdf
// suffix; otherwise Resolve fails with types.ErrValidation naming the cause.
func Resolve(raw string) (Reference, error) {
	ref := Reference{Raw: raw}
	input := strings.TrimSpace(raw)

	if u, ok := parseURL(input); ok {
		ref.Kind = KindURL
		ref.Target = input
		if kind, id := arxivFromURL(u); id != "" {
			ref.Kind = kind
			ref.ArxivID = id
			ref.Target = PDFURL(id)
		}
		return ref, nil
	}

	if m := arxivIDPattern.FindStringSubmatch(input); m != nil {
		if _, err := os.Stat(input); os.IsNotExist(err) {
			ref.Kind = KindArxivID
			ref.ArxivID = m[1]
			ref.Target = PDFURL(m[1])
			return ref, nil
		}
	}

	path, err := validateLocalPath(input)
	if err != nil {
		return ref, err
	}
	ref.Kind = KindLocalPath
	ref.Target = path
	return ref, nil
}

// PDFURL returns the canonical arXiv PDF URL for id.
func PDFURL(arxivID string) string {
	return arxivPDFBase + arxivID + ".pdf"
}

// Slug returns a filesystem-safe filename stem for a resolved reference.
func Slug(ref Reference) string {
	switch {
	case ref.ArxivID != "":
		return ref.ArxivID
	case ref.Kind == KindLocalPath:
		return strings.TrimSuffix(filepath.Base(ref.Target), filepath.Ext(ref.Target))
	}
	u, err := url.Parse(ref.Target)
	if err != nil {
		return urlHashSlug(ref.Target)
	}
	base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
	if base == "" || base == "." || base == "/" {
		return urlHashSlug(ref.Target)
	}
	return sanitizeName(base)
}

// parseURL accepts absolute URLs with a scheme and host.
func parseURL(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

func arxivFromURL(u *url.URL) (ReferenceKind, string) {
	host := strings.ToLower(u.Hostname())
	if host != "arxiv.org" && !strings.HasSuffix(host, ".arxiv.org") {
		return KindURL, ""
	}
	hostPath := host + u.Path
	if m := arxivAbsPattern.FindStringSubmatch(hostPath); m != nil {
		return KindArxivAbs, m[1]
	}
	if m := arxivPDFPattern.FindStringSubmatch(hostPath); m != nil {
		return KindArxivPDF, m[1]
	}
	return KindURL, ""
}

func validateLocalPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", types.NewError(types.KindValidation, "resolve", "file not found: "+path, nil)
		}
		return "", types.NewError(types.KindValidation, "resolve", "cannot stat "+path, err)
	}
	if !info.Mode().IsRegular() {
		return "", types.NewError(types.KindValidation, "resolve", "path is not a file: "+path, nil)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", types.NewError(types.KindValidation, "resolve", "file must be a PDF: "+path, nil)
	}
	return path, nil
}

func urlHashSlug(rawURL string) string {
	return "url-" + urlHash(rawURL)
}

func urlHash(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%x", h[:4])
}
