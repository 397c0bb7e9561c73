// Package session provides the pooled HTTP client used for plain asset
// fetches. Requests go out with a full browser-shaped header set and a
// user agent drawn at random when the session is built; the target mirrors
// block anything that looks like a bare Go client.
package session

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"

	"mangograb/internal/models"
	"mangograb/internal/sites"
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

// RandomUserAgent returns one entry from the fixed pool.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// Session wraps one connection-pooled http.Client. The user agent is fixed
// per session; the referer defaults to the primary site and can be
// overridden per call because some mirrors demand a referer unrelated to
// the page actually being fetched.
type Session struct {
	client    *http.Client
	userAgent string
	closeOnce sync.Once
}

// New builds a session with its own transport. Compression is negotiated
// by hand (gzip, deflate, br) so the Accept-Encoding header matches what a
// real browser sends; responses are decoded in Fetch.
func New(timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}
	return &Session{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: RandomUserAgent(),
	}
}

// UserAgent reports the identity this session presents.
func (s *Session) UserAgent() string { return s.userAgent }

// Fetch issues a GET and returns the decoded body. An empty referer keeps
// the primary-site default.
func (s *Session) Fetch(ctx context.Context, rawURL, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &models.NetworkError{Op: "fetch", URL: rawURL, Cause: err}
	}
	s.applyHeaders(req, referer)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Op: "fetch", URL: rawURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.NetworkError{Op: "fetch", URL: rawURL, Cause: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.NetworkError{Op: "fetch", URL: rawURL, Cause: err}
	}

	decoded, err := decodeBody(body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, &models.NetworkError{Op: "fetch", URL: rawURL, Cause: err}
	}
	return decoded, nil
}

func (s *Session) applyHeaders(req *http.Request, referer string) {
	if referer == "" {
		referer = sites.BaseURL
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Cache-Control", "max-age=0")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Referer", referer)
}

// decodeBody reverses the negotiated content encoding. Servers that ignore
// Accept-Encoding send identity, which passes through untouched.
func decodeBody(body []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return out, nil
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return out, nil
	case "br":
		out, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// Close releases the connection pool. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if t, ok := s.client.Transport.(*http.Transport); ok {
			t.CloseIdleConnections()
		}
	})
}
