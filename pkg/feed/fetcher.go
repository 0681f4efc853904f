package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// xmlContentTypes is the allowlist for feed responses; anything else is a
// validation failure. An absent content-type header is accepted, plenty of
// feeds ship without one.
var xmlContentTypes = []string{
	"application/rss+xml",
	"application/xml",
	"text/xml",
	"application/atom+xml",
	"application/rdf+xml",
	"text/plain",
}

// Fetcher retrieves raw feed bytes over HTTP. It does no parsing; the
// normalizer consumes its output.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// NewFetcher creates a fetcher with the given timeout and user agent.
func NewFetcher(timeout time.Duration, userAgent string, maxBodySize int64) *Fetcher {
	if maxBodySize <= 0 {
		maxBodySize = 10 * 1024 * 1024 // 10MB
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:   userAgent,
		maxBodySize: maxBodySize,
	}
}

// Fetch retrieves the body of the given URL. Failure modes are reported
// distinctly: invalid URL and disallowed content-type as InputError,
// timeout and transport/status problems as NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if err := validateURL(feedURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, &InputError{Msg: fmt.Sprintf("invalid request for URL %q: %v", feedURL, err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &NetworkError{Msg: "request timeout, the feed took too long to respond", Timeout: true}
		}
		return nil, &NetworkError{Msg: fmt.Sprintf("failed to fetch URL: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Msg: fmt.Sprintf("failed to fetch feed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	if err := validateContentType(resp.Header.Get("Content-Type")); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		if isTimeout(err) {
			return nil, &NetworkError{Msg: "request timeout while reading feed body", Timeout: true}
		}
		return nil, &NetworkError{Msg: fmt.Sprintf("failed to read feed body: %v", err)}
	}
	if len(body) == 0 {
		return nil, &InputError{Msg: "feed returned empty content"}
	}
	return body, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InputError{Msg: "invalid URL format, must be a valid HTTP or HTTPS URL"}
	}
	return nil
}

func validateContentType(ct string) error {
	if ct == "" {
		return nil
	}
	lower := strings.ToLower(ct)
	for _, valid := range xmlContentTypes {
		if strings.Contains(lower, valid) {
			return nil
		}
	}
	return &InputError{Msg: fmt.Sprintf("invalid content type %q, expected XML feed content", ct)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
