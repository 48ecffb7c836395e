// Package reddit fetches posts from Reddit's public JSON API and maps them
// to flat dataset records.
package reddit

import "time"

// DefaultBaseURL is Reddit's public endpoint.
const DefaultBaseURL = "https://www.reddit.com"

// Columns is the canonical column order for scraped post records. The id
// column is implicit and always first on disk.
var Columns = []string{
	"title",
	"selftext",
	"score",
	"num_comments",
	"created_utc",
	"subreddit",
	"author",
	"over_18",
	"is_self",
	"url",
	"scraped_at",
}

// Config controls scraper behavior.
type Config struct {
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// UserAgent identifies the client; Reddit throttles anonymous defaults.
	UserAgent string
	// RateLimit is the minimum spacing between requests.
	RateLimit time.Duration
	// Burst allows short bursts above the steady rate.
	Burst int
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
}

// listingResponse is the Reddit listing envelope.
type listingResponse struct {
	Data struct {
		Children []listingChild `json:"children"`
		After    string         `json:"after"`
	} `json:"data"`
}

type listingChild struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Over18      bool    `json:"over_18"`
	IsSelf      bool    `json:"is_self"`
	URL         string  `json:"url"`
}
