// Package feedparser fetches an RSS or Atom document over HTTP, classifies
// it, and extracts the feed metadata and item list the rest of the system
// cares about. Parsing itself is delegated to gofeed, which already
// unifies RSS and Atom fields into one shape; this package layers the
// text-normalization, best-image selection, and date-fallback rules on
// top, plus the retry/circuit-breaker resilience wrapper around the fetch.
package feedparser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"feedlode/internal/resilience/circuitbreaker"
	"feedlode/internal/resilience/retry"
)

// atomNamespace is the XML namespace URI that, combined with the `<feed`
// substring, classifies a document as Atom rather than RSS.
const atomNamespace = "http://www.w3.org/2005/Atom"

// maxBodyBytes bounds how much of a feed response we read, guarding against
// a misbehaving or malicious server streaming an unbounded response.
const maxBodyBytes = 10 << 20 // 10 MiB

const defaultUserAgent = "feedlode/1.0 (+adaptive feed poller)"

// Item is a single extracted entry, prior to image inlining — ImageURL is
// a candidate URL, not yet fetched.
type Item struct {
	URL         string
	Title       string
	Description string
	Content     string
	Author      string
	Published   *time.Time
	ImageURL    string
}

// Result is the outcome of successfully parsing one feed document.
type Result struct {
	// FinalURL is the URL after following redirects — the canonical key
	// a Feed row is stored under.
	FinalURL string
	Name     string
	HomeURL  string
	Link     string
	Image    string
	// FeedType is "atom" or "rss", the cheap pre-parse classification.
	// It is reported only, not used for extraction: actual field
	// extraction runs against gofeed's already-unified Feed/Item structs.
	FeedType string
	Items    []Item
}

// Parser fetches and parses feed documents with retry and circuit-breaker
// protection, mirroring the resilience wrapping every outbound HTTP call in
// this system gets.
type Parser struct {
	client      *http.Client
	breaker     *circuitbreaker.Breaker
	retryPolicy retry.Policy
	userAgent   string
}

// New creates a Parser using the given HTTP client (callers own its
// timeout/transport configuration).
func New(client *http.Client) *Parser {
	return &Parser{
		client:      client,
		breaker:     circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryPolicy: retry.FeedFetchPolicy(),
		userAgent:   defaultUserAgent,
	}
}

// Parse fetches feedURL, following redirects, and extracts its metadata and
// items. A non-2xx response, network failure, or parse failure is logged
// and reported as an error; callers treat any error as "no result" and move
// on to the next feed rather than aborting a scheduler tick.
func (p *Parser) Parse(ctx context.Context, feedURL string) (*Result, error) {
	var result *Result

	retryErr := retry.Do(ctx, p.retryPolicy, "feed fetch", func() error {
		parsed, err := circuitbreaker.Do(p.breaker, func() (*Result, error) {
			return p.doParse(ctx, feedURL)
		})
		if err != nil {
			if circuitbreaker.IsOpen(err) {
				slog.Warn("feed fetch rejected, circuit open",
					slog.String("url", feedURL))
			}
			return err
		}
		result = parsed
		return nil
	})

	if retryErr != nil {
		slog.Warn("feed parse failed", slog.String("url", feedURL), slog.Any("error", retryErr))
		return nil, retryErr
	}

	return result, nil
}

func (p *Parser) doParse(ctx context.Context, feedURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "non-2xx feed response"}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	finalURL := feedURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	fp := gofeed.NewParser()
	parsed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed document: %w", err)
	}

	return extract(finalURL, classify(body), parsed), nil
}

// classify is a cheap pre-parse Atom/RSS detection: a
// document is Atom if it contains both the `<feed` substring and the Atom
// namespace URI, otherwise RSS. It only sets Result.FeedType.
func classify(body []byte) string {
	s := string(body)
	if strings.Contains(s, "<feed") && strings.Contains(s, atomNamespace) {
		return "atom"
	}
	return "rss"
}

func extract(finalURL, feedType string, feed *gofeed.Feed) *Result {
	result := &Result{
		FinalURL: finalURL,
		Name:     orEmpty(normalize(feed.Title)),
		HomeURL:  orEmpty(feed.Link),
		Link:     orEmpty(feed.Link),
		FeedType: feedType,
	}

	candidates := feedImageCandidates(feed)
	result.Image = orEmpty(bestImage(candidates))

	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, extractItem(it))
	}
	result.Items = items

	return result
}

func extractItem(it *gofeed.Item) Item {
	published := it.PublishedParsed
	if published == nil {
		published = it.UpdatedParsed
	}

	return Item{
		URL:         strings.TrimSpace(it.Link),
		Title:       orEmpty(normalize(it.Title)),
		Description: orEmpty(normalize(it.Description)),
		Content:     it.Content,
		Author:      orEmpty(authorName(it)),
		Published:   published,
		ImageURL:    bestImage(itemImageCandidates(it)),
	}
}

// authorName extracts the item author: `author` with a
// `dc:creator` fallback for RSS, `author/name` for Atom. gofeed already
// folds both shapes into Authors/Author; dc:creator survives separately on
// the DublinCoreExt extension when the item carries it.
func authorName(it *gofeed.Item) string {
	if len(it.Authors) > 0 && it.Authors[0] != nil && it.Authors[0].Name != "" {
		return it.Authors[0].Name
	}
	if it.Author != nil && it.Author.Name != "" {
		return it.Author.Name
	}
	if it.DublinCoreExt != nil && it.DublinCoreExt.Creator != nil && len(it.DublinCoreExt.Creator) > 0 {
		return it.DublinCoreExt.Creator[0]
	}
	return ""
}

// feedImageCandidates gathers feed-level image sources: channel/image (RSS)
// and feed/icon with a feed/logo fallback (Atom) both land in gofeed's
// unified Image field, so there is a single candidate at this level.
func feedImageCandidates(feed *gofeed.Feed) []imageCandidate {
	if feed.Image == nil || feed.Image.URL == "" {
		return nil
	}
	return []imageCandidate{{url: feed.Image.URL}}
}

// itemImageCandidates gathers every image source considered for an
// item: gofeed's item Image, enclosures whose type starts with "image", and media:content /
// media:thumbnail extension elements (present under the same key for both
// RSS and Atom items since gofeed exposes them identically).
func itemImageCandidates(it *gofeed.Item) []imageCandidate {
	var candidates []imageCandidate

	if it.Image != nil && it.Image.URL != "" {
		candidates = append(candidates, imageCandidate{url: it.Image.URL})
	}

	for _, enc := range it.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image") {
			candidates = append(candidates, imageCandidate{url: enc.URL})
		}
	}

	if it.Extensions == nil {
		return candidates
	}
	media, ok := it.Extensions["media"]
	if !ok {
		return candidates
	}
	for _, key := range []string{"content", "thumbnail"} {
		for _, ext := range media[key] {
			url := ext.Attrs["url"]
			if url == "" {
				continue
			}
			medium := ext.Attrs["medium"]
			if medium != "" && medium != "image" {
				continue
			}
			w, _ := strconv.Atoi(ext.Attrs["width"])
			h, _ := strconv.Atoi(ext.Attrs["height"])
			candidates = append(candidates, imageCandidate{url: url, width: w, height: h})
		}
	}

	return candidates
}
