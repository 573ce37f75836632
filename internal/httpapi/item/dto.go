package item

import (
	"time"

	"feedlode/internal/store"
)

// DTO is one search result row: an item flattened with the metadata of the
// feed it came from.
type DTO struct {
	URL         string     `json:"url"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Content     string     `json:"content,omitempty"`
	Image       string     `json:"image,omitempty"`
	Published   *time.Time `json:"published,omitempty"`
	Author      string     `json:"author,omitempty"`
	FeedURL     string     `json:"feed_url"`
	FeedName    string     `json:"feed_name,omitempty"`
}

func toDTO(res store.ItemSearchResult) DTO {
	return DTO{
		URL:         res.Item.URL,
		Title:       res.Item.Title,
		Description: res.Item.Description,
		Content:     res.Item.Content,
		Image:       res.Item.Image,
		Published:   res.Item.Published,
		Author:      res.Item.Author,
		FeedURL:     res.Item.FeedURL,
		FeedName:    res.FeedName,
	}
}
