package domain

import "time"

// Item represents a single article extracted from a Feed.
//
// URL is the article permalink and primary key. There is no update path for
// items: once inserted, a row is immutable for the lifetime of its Feed.
type Item struct {
	URL         string
	Title       string
	Description string
	Content     string
	Image       string
	Published   *time.Time
	Author      string
	FeedURL     string
}
