// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/paperfetch/internal/extract"
	"github.com/pdiddy/paperfetch/internal/httputil"
	"github.com/pdiddy/paperfetch/pkg/types"
)

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title   string        `xml:"title"`
	Summary string        `xml:"summary"`
	Authors []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// arxivRecord is the bibliographic subset the arXiv API contributes.
type arxivRecord struct {
	Title    string
	Abstract string
	Authors  []string
}

// fetchArxivMetadata retrieves title, abstract and authors for arxivID from
// the arXiv Atom API.
func fetchArxivMetadata(ctx context.Context, client *http.Client, arxivID string, cfg types.HTTPConfig) (*arxivRecord, error) {
	apiURL := arxivAPIBase + "?id_list=" + url.QueryEscape(arxivID)

	resp, err := httputil.Get(ctx, client, apiURL, httputil.Options{
		UserAgent:    cfg.UserAgent,
		MaxRedirects: cfg.MaxRedirects,
		Op:           "arxiv api",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httputil.StatusError("arxiv api", resp)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("no entries found for arXiv ID %s", arxivID)
	}

	entry := feed.Entries[0]
	rec := &arxivRecord{
		Title:    collapseSpace(entry.Title),
		Abstract: collapseSpace(entry.Summary),
	}
	for _, a := range entry.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	return rec, nil
}

// fillFromArxiv copies rec's fields into the empty fields of meta.
func fillFromArxiv(meta *types.PaperMetadata, rec *arxivRecord) {
	if (meta.Title == "" || meta.Title == extract.Untitled) && rec.Title != "" {
		meta.Title = rec.Title
	}
	if len(meta.Authors) == 0 && len(rec.Authors) > 0 {
		meta.Authors = rec.Authors
	}
	if meta.Abstract == "" {
		meta.Abstract = rec.Abstract
	}
}

// collapseSpace folds the hard line wraps the Atom feed puts in titles and
// summaries.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
