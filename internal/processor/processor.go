// Package processor implements the per-feed processing pipeline: fetch and
// parse a feed, re-estimate its publish rate, upsert the feed row, and
// insert any items not already seen. It is the unit of work the scheduler
// fans out across its concurrency-bounded batches.
package processor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"feedlode/internal/domain"
	"feedlode/internal/feedparser"
	"feedlode/internal/observability/metrics"
	"feedlode/internal/rate"
	"feedlode/internal/store"
)

// Parser is the subset of feedparser.Parser the processor depends on,
// narrowed to an interface so tests can substitute a fake.
type Parser interface {
	Parse(ctx context.Context, feedURL string) (*feedparser.Result, error)
}

// ImageFetcher is the subset of imagefetch.Fetcher the processor depends on.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Result is what one successful Process call reports back to its caller —
// the scheduler logs it, and the synchronous POST /feeds handler looks up
// the feed under FinalURL and returns it with ItemsInserted.
type Result struct {
	FinalURL      string
	ItemsInserted int
}

// itemParallelism bounds how many of one feed's items are image-inlined and
// inserted concurrently. Item work is independent, so the only constraint is
// not hammering a single image host.
const itemParallelism = 4

// Processor wires the feed parser, image fetcher, rate estimator, and store
// together into the single-feed processing pipeline.
type Processor struct {
	Parser       Parser
	ImageFetcher ImageFetcher
	FeedStore    store.FeedStore
	ItemStore    store.ItemStore
	RateConfig   rate.Config
	// FetchTimeout bounds the fetch-and-parse of a single feed so a hanging
	// server cannot occupy a scheduler concurrency slot indefinitely.
	// Zero disables the deadline.
	FetchTimeout time.Duration
	Now          func() time.Time
}

// New builds a Processor with the production rate.DefaultConfig and
// time.Now clock; tests construct the struct literal directly to inject a
// fixed clock.
func New(parser Parser, imageFetcher ImageFetcher, feedStore store.FeedStore, itemStore store.ItemStore) *Processor {
	return &Processor{
		Parser:       parser,
		ImageFetcher: imageFetcher,
		FeedStore:    feedStore,
		ItemStore:    itemStore,
		RateConfig:   rate.DefaultConfig(),
		FetchTimeout: 30 * time.Second,
		Now:          time.Now,
	}
}

// Process fetches feedURL, re-estimates its rate, upserts the feed, and
// inserts any new items. A parse failure returns (nil, nil): the caller
// treats "no result" as "nothing to do this tick," not an error to abort on.
// Individual item failures are logged and skipped; they never abort the
// feed as a whole.
func (p *Processor) Process(ctx context.Context, feedURL string) (*Result, error) {
	start := p.Now()

	parseCtx := ctx
	if p.FetchTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, p.FetchTimeout)
		defer cancel()
	}

	parsed, err := p.Parser.Parse(parseCtx, feedURL)
	if err != nil || parsed == nil {
		metrics.FeedFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		metrics.FeedFetchErrorsTotal.WithLabelValues("parse").Inc()
		return nil, nil
	}

	priorRate, err := p.FeedStore.SelectFeedRate(ctx, parsed.FinalURL)
	if err != nil {
		slog.Warn("select feed rate failed, proceeding without prior",
			slog.String("feed_url", parsed.FinalURL), slog.Any("error", err))
		priorRate = nil
	}

	publishedTimestamps := make([]time.Time, 0, len(parsed.Items))
	var lastPublished *time.Time
	for _, item := range parsed.Items {
		if item.Published == nil {
			continue
		}
		publishedTimestamps = append(publishedTimestamps, *item.Published)
		if lastPublished == nil || item.Published.After(*lastPublished) {
			t := *item.Published
			lastPublished = &t
		}
	}

	now := p.Now()
	nextFetchAt, newRate := rate.Estimate(now, publishedTimestamps, priorRate, p.RateConfig)
	if newRate != nil {
		metrics.FeedPublishRate.Observe(*newRate)
	}

	feed := domain.Feed{
		FeedURL:            parsed.FinalURL,
		HomeURL:            parsed.HomeURL,
		Name:               parsed.Name,
		Link:               parsed.Link,
		Image:              parsed.Image,
		LastPublished:      lastPublished,
		LastFetched:        &now,
		NextFetchAt:        &nextFetchAt,
		PublishRatePerHour: newRate,
	}
	if err := p.FeedStore.UpsertFeed(ctx, feed); err != nil {
		metrics.FeedFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		metrics.FeedFetchErrorsTotal.WithLabelValues("upsert_feed").Inc()
		return nil, err
	}

	inserted := p.processItems(ctx, parsed)

	metrics.FeedFetchDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	return &Result{FinalURL: parsed.FinalURL, ItemsInserted: inserted}, nil
}

// processItems inlines images and inserts every parsed item with a non-empty
// URL, skipping the image fetch for URLs that are already stored (their
// insert would conflict anyway). Items are handled with bounded parallelism;
// a failure on one item is logged and never aborts its siblings.
func (p *Processor) processItems(ctx context.Context, parsed *feedparser.Result) int {
	urls := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	if len(urls) == 0 {
		return 0
	}

	known, err := p.ItemStore.ExistsByURLBatch(ctx, urls)
	if err != nil {
		slog.Warn("item url batch check failed, proceeding without pre-filter",
			slog.String("feed_url", parsed.FinalURL), slog.Any("error", err))
		known = nil
	}

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(itemParallelism)

	for _, item := range parsed.Items {
		if item.URL == "" {
			continue
		}
		item := item

		g.Go(func() error {
			image := ""
			if item.ImageURL != "" && !known[item.URL] {
				image = p.ImageFetcher.Fetch(gctx, item.ImageURL)
				if image != "" {
					metrics.ImageFetchAttemptsTotal.WithLabelValues("success").Inc()
				} else {
					metrics.ImageFetchAttemptsTotal.WithLabelValues("failure").Inc()
				}
			}

			row := domain.Item{
				URL:         item.URL,
				Title:       item.Title,
				Description: item.Description,
				Content:     item.Content,
				Image:       image,
				Published:   item.Published,
				Author:      item.Author,
				FeedURL:     parsed.FinalURL,
			}

			didInsert, err := p.ItemStore.InsertItemIfAbsent(gctx, row)
			if err != nil {
				slog.Warn("item insert failed, skipping",
					slog.String("url", item.URL), slog.Any("error", err))
				return nil
			}
			if didInsert {
				inserted.Add(1)
				metrics.ItemsInsertedTotal.WithLabelValues("inserted").Inc()
			} else {
				metrics.ItemsInsertedTotal.WithLabelValues("duplicate").Inc()
			}
			return nil
		})
	}

	_ = g.Wait()
	return int(inserted.Load())
}
