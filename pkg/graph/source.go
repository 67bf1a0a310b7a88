package graph

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Opener establishes the byte stream for a URI. Tag updates discovered by
// the transport (ICY headers at connect time, inline title changes
// mid-stream) are delivered through onTags; implementations may invoke it
// from their own read path at any time until the stream is closed.
type Opener interface {
	Open(ctx context.Context, uri string, onTags func(map[string]string)) (io.ReadCloser, error)
}

// StatusError reports a non-200 HTTP response for a stream URI.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}

// Retryable reports whether the status is worth a reconnect attempt.
// Authorization failures and gone/missing streams are permanent.
func (e *StatusError) Retryable() bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return false
	}
	return true
}

// URIOpener is the production Opener. It connects http and https URIs with
// a client tuned for long-lived radio streams and negotiates ICY inline
// metadata; file URIs and bare paths open the local filesystem.
type URIOpener struct {
	Client    *http.Client
	UserAgent string
}

// NewURIOpener returns an opener with streaming-friendly HTTP defaults:
// no overall request timeout (streams are long-lived), bounded dial and
// header timeouts, and compression disabled so ICY byte counts line up.
func NewURIOpener(userAgent string) *URIOpener {
	return &URIOpener{
		Client: &http.Client{
			Timeout: 0,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				DisableCompression:    true,
			},
		},
		UserAgent: userAgent,
	}
}

func (o *URIOpener) Open(ctx context.Context, uri string, onTags func(map[string]string)) (io.ReadCloser, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse uri: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return o.openHTTP(ctx, uri, onTags)
	case "file":
		return os.Open(u.Path)
	case "":
		return os.Open(uri)
	default:
		return nil, fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
}

func (o *URIOpener) openHTTP(ctx context.Context, uri string, onTags func(map[string]string)) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if o.UserAgent != "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}
	req.Header.Set("Icy-MetaData", "1")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if onTags != nil {
		if tags := icyHeaderTags(resp.Header); len(tags) > 0 {
			onTags(tags)
		}
	}

	var metaint int
	if val := resp.Header.Get("icy-metaint"); val != "" {
		fmt.Sscanf(val, "%d", &metaint)
	}
	if metaint > 0 {
		return newICYReader(resp.Body, metaint, onTags), nil
	}
	return resp.Body, nil
}

// icyHeaderTags maps connection-time ICY headers to stream tags.
func icyHeaderTags(h http.Header) map[string]string {
	tags := make(map[string]string)
	if name := strings.TrimSpace(h.Get("icy-name")); name != "" {
		tags["organization"] = name
	}
	if genre := strings.TrimSpace(h.Get("icy-genre")); genre != "" {
		tags["genre"] = genre
	}
	if home := strings.TrimSpace(h.Get("icy-url")); home != "" {
		tags["homepage"] = home
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
