// Package domain defines the core domain entities and validation logic shared
// across the feed poller. It contains the fundamental business objects — Feed
// and Item — along with their validation rules and domain-specific errors.
package domain

import "time"

// Feed represents a subscribed RSS/Atom feed.
//
// FeedURL is the final URL after following HTTP redirects, not necessarily
// the URL a caller originally subscribed with — it is the canonical primary
// key (see ValidateURL for the input-side check performed before a feed is
// first fetched).
type Feed struct {
	FeedURL            string
	HomeURL            string
	Name               string
	Link               string
	Image              string
	LastPublished      *time.Time
	LastFetched        *time.Time
	NextFetchAt        *time.Time
	PublishRatePerHour *float64
}
