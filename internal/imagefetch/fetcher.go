// Package imagefetch downloads article and feed images and inlines them as
// data URIs, so the store never needs to serve or proxy remote image
// traffic. Results are cached for the lifetime of the process.
package imagefetch

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"feedlode/internal/domain"
	"feedlode/internal/resilience/circuitbreaker"
	"feedlode/internal/resilience/retry"
)

// maxBodyBytes bounds how large an image we'll inline; anything larger is
// treated as a fetch failure (degrades to null image).
const maxBodyBytes = 5 << 20 // 5 MiB

// extensionContentTypes is the fixed fallback table used when a response
// carries no (or a non-image) Content-Type header.
var extensionContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
}

// cache is the seam between the default unbounded map and a future bounded
// implementation, so swapping in
// an LRU is a one-line change at the call site.
type cache interface {
	Load(url string) (string, bool)
	Store(url, dataURI string)
}

// syncMapCache is a process-local, concurrency-safe, never-evicting cache.
type syncMapCache struct {
	m sync.Map
}

func (c *syncMapCache) Load(url string) (string, bool) {
	v, ok := c.m.Load(url)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (c *syncMapCache) Store(url, dataURI string) {
	c.m.Store(url, dataURI)
}

// Fetcher downloads an image URL and inlines it as a data URI, caching
// results and guarding against SSRF the same way any other outbound fetch
// of an attacker-influenced URL must.
type Fetcher struct {
	client         *http.Client
	breaker        *circuitbreaker.Breaker
	retryPolicy    retry.Policy
	cache          cache
	denyPrivateIPs bool
}

// New creates a Fetcher using the given HTTP client, with SSRF protection
// enabled.
func New(client *http.Client) *Fetcher {
	return &Fetcher{
		client:         client,
		breaker:        circuitbreaker.New(circuitbreaker.ImageFetchConfig()),
		retryPolicy:    retry.ImageFetchPolicy(),
		cache:          &syncMapCache{},
		denyPrivateIPs: true,
	}
}

// Fetch downloads url and returns a data URI, or "" if the image could not
// be fetched or decoded for any reason — callers degrade to a null image on
// "", never treat it as a hard failure of the surrounding operation.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	if url == "" {
		return ""
	}

	if cached, ok := f.cache.Load(url); ok {
		return cached
	}

	if f.denyPrivateIPs {
		if err := domain.ValidateURL(url); err != nil {
			slog.Warn("image url rejected", slog.String("url", url), slog.Any("error", err))
			return ""
		}
	}

	var dataURI string
	retryErr := retry.Do(ctx, f.retryPolicy, "image fetch", func() error {
		uri, err := circuitbreaker.Do(f.breaker, func() (string, error) {
			return f.doFetch(ctx, url)
		})
		if err != nil {
			if circuitbreaker.IsOpen(err) {
				slog.Warn("image fetch rejected, circuit open",
					slog.String("url", url))
			}
			return err
		}
		dataURI = uri
		return nil
	})

	if retryErr != nil {
		slog.Warn("image fetch failed", slog.String("url", url), slog.Any("error", retryErr))
		return ""
	}

	if dataURI != "" {
		f.cache.Store(url, dataURI)
	}
	return dataURI
}

func (f *Fetcher) doFetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: "non-2xx image response"}
	}

	contentType := resolveContentType(resp.Header.Get("Content-Type"), url)
	if contentType == "" {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return "", fmt.Errorf("image body exceeds %d bytes", maxBodyBytes)
	}

	encoded := base64.StdEncoding.EncodeToString(body)
	return fmt.Sprintf("data:%s;base64,%s", contentType, encoded), nil
}

// resolveContentType prefers a header that already declares an image type,
// falling back to the URL's file extension via a fixed lookup table.
func resolveContentType(header, url string) string {
	header = strings.TrimSpace(strings.ToLower(header))
	if idx := strings.Index(header, ";"); idx >= 0 {
		header = header[:idx]
	}
	if strings.HasPrefix(header, "image/") {
		return header
	}

	ext := strings.ToLower(path.Ext(stripQuery(url)))
	return extensionContentTypes[ext]
}

func stripQuery(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		return url[:idx]
	}
	return url
}
