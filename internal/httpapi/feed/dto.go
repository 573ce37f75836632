package feed

import (
	"time"

	"feedlode/internal/domain"
)

// DTO is the JSON shape of a feed row.
type DTO struct {
	FeedURL            string     `json:"feed_url"`
	HomeURL            string     `json:"home_url,omitempty"`
	Name               string     `json:"name,omitempty"`
	Link               string     `json:"link,omitempty"`
	Image              string     `json:"image,omitempty"`
	LastPublished      *time.Time `json:"last_published,omitempty"`
	LastFetched        *time.Time `json:"last_fetched,omitempty"`
	NextFetchAt        *time.Time `json:"next_fetch_at,omitempty"`
	PublishRatePerHour *float64   `json:"publish_rate_per_hour,omitempty"`
}

func toDTO(f domain.Feed) DTO {
	return DTO{
		FeedURL:            f.FeedURL,
		HomeURL:            f.HomeURL,
		Name:               f.Name,
		Link:               f.Link,
		Image:              f.Image,
		LastPublished:      f.LastPublished,
		LastFetched:        f.LastFetched,
		NextFetchAt:        f.NextFetchAt,
		PublishRatePerHour: f.PublishRatePerHour,
	}
}

// SubscribeResponse is returned by the subscription endpoint: the stored feed
// row (keyed by its post-redirect URL) and how many items the initial fetch
// inserted.
type SubscribeResponse struct {
	Feed          DTO `json:"feed"`
	ItemsInserted int `json:"items_inserted"`
}
