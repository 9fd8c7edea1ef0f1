// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/pdiddy/paperfetch/pkg/types"
)

// Options configures a single Get.
type Options struct {
	// UserAgent is sent on every hop.
	UserAgent string

	// Accept is sent on every hop when non-empty.
	Accept string

	// MaxRedirects is the redirect budget. When 0 or negative the default (5) is used.
	MaxRedirects int

	// Op names the calling stage in returned errors.
	Op string

	Logger *slog.Logger
}

// NewClient returns an HTTP client with the given timeout that never follows
// redirects on its own.
func NewClient(cfg types.HTTPConfig) *http.Client {
	cfg = cfg.WithDefaults()
	return &http.Client{
		Timeout:       cfg.Timeout,
		CheckRedirect: noFollow,
	}
}

func noFollow(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// IsRedirect reports whether code is a status Get follows.
func IsRedirect(code int) bool {
	return code == http.StatusMovedPermanently || code == http.StatusFound
}

// Get issues a GET for rawURL and follows 301/302 responses in a loop,
// resolving relative Location headers against the current request URL.
// Each hop consumes one unit of the redirect budget; a redirect beyond the
// budget fails with types.ErrRedirectLimit, and a redirect without Location
// fails with types.ErrProtocol.
//
// The returned response may carry any non-redirect status; the caller closes
// its body. resp.Request.URL is the URL that produced it.
func Get(ctx context.Context, client *http.Client, rawURL string, opts Options) (*http.Response, error) {
	budget := opts.MaxRedirects
	if budget <= 0 {
		budget = types.DefaultMaxRedirects
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Redirects are handled here, so the client must hand them back.
	c := *client
	c.CheckRedirect = noFollow

	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, types.NewError(types.KindValidation, opts.Op, fmt.Sprintf("invalid URL %q", rawURL), err)
	}

	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, types.NewError(types.KindValidation, opts.Op, fmt.Sprintf("creating request for %s", current), err)
		}
		if opts.UserAgent != "" {
			req.Header.Set("User-Agent", opts.UserAgent)
		}
		if opts.Accept != "" {
			req.Header.Set("Accept", opts.Accept)
		}

		resp, err := c.Do(req)
		if err != nil {
			return nil, TransportError(opts.Op, current.String(), err)
		}

		if !IsRedirect(resp.StatusCode) {
			return resp, nil
		}

		location := resp.Header.Get("Location")
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		if location == "" {
			e := types.NewError(types.KindProtocol, opts.Op,
				fmt.Sprintf("redirect (status %d) without Location header from %s", resp.StatusCode, current), nil)
			e.StatusCode = resp.StatusCode
			return nil, e
		}
		if hops >= budget {
			return nil, types.NewError(types.KindRedirectLimit, opts.Op,
				fmt.Sprintf("too many redirects (budget %d) at %s", budget, current), nil)
		}

		next, err := current.Parse(location)
		if err != nil {
			return nil, types.NewError(types.KindProtocol, opts.Op, fmt.Sprintf("invalid Location %q", location), err)
		}
		logger.Debug("following redirect", "status", resp.StatusCode, "from", current.String(), "to", next.String(), "hop", hops+1)
		current = next
	}
}

// StatusError builds the protocol error for an unexpected response status.
func StatusError(op string, resp *http.Response) *types.Error {
	msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if resp.Request != nil {
		msg += " from " + resp.Request.URL.String()
	}
	e := types.NewError(types.KindProtocol, op, msg, nil)
	e.StatusCode = resp.StatusCode
	return e
}

// TransportError classifies a failed request or body read as a timeout or a
// network error.
func TransportError(op, target string, err error) *types.Error {
	if IsTimeout(err) {
		return types.NewError(types.KindTimeout, op, fmt.Sprintf("request to %s timed out", target), err)
	}
	return types.NewError(types.KindNetwork, op, fmt.Sprintf("request to %s failed", target), err)
}

// IsTimeout reports whether err is a deadline or client timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
