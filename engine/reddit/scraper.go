package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/mindsift/mindsift/engine/dataset"
	"github.com/mindsift/mindsift/engine/ingest"
	"github.com/mindsift/mindsift/pkg/fn"
)

// maxPerRequest is Reddit's listing page cap.
const maxPerRequest = 100

// Scraper fetches subreddit listings from the public JSON API. It implements
// ingest.Source.
type Scraper struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	retry   fn.RetryOpts
}

// NewScraper creates a Scraper with the given config, filling in defaults.
func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "mindsift-scraper/1.0 (mental health research data collection)"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimit), cfg.Burst),
		retry: fn.RetryOpts{
			MaxAttempts: 3,
			InitialWait: 5 * time.Second,
			MaxWait:     30 * time.Second,
			Jitter:      true,
		},
	}
}

// Fetch retrieves up to limit posts from r/<subreddit> ordered by sort and
// maps each one to a flat record. Listings larger than one page are paged
// through with the after cursor.
func (s *Scraper) Fetch(ctx context.Context, subreddit string, sort ingest.SortOrder, limit int) ([]dataset.Record, error) {
	var (
		recs  []dataset.Record
		after string
	)
	for len(recs) < limit {
		page := limit - len(recs)
		if page > maxPerRequest {
			page = maxPerRequest
		}

		url := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&raw_json=1", s.cfg.BaseURL, subreddit, sort, page)
		if after != "" {
			url += "&after=" + after
		}

		result := fn.Retry(ctx, s.retry, func(ctx context.Context) fn.Result[*listingResponse] {
			if err := s.limiter.Wait(ctx); err != nil {
				return fn.Err[*listingResponse](err)
			}
			return s.doGet(ctx, url)
		})

		resp, err := result.Unwrap()
		if err != nil {
			return nil, fmt.Errorf("r/%s %s listing: %w", subreddit, sort, err)
		}

		now := time.Now().UTC()
		for _, child := range resp.Data.Children {
			if child.Kind != "t3" {
				continue
			}
			recs = append(recs, recordFromPost(child.Data, now))
		}

		after = resp.Data.After
		if after == "" || len(resp.Data.Children) == 0 {
			break
		}
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func recordFromPost(d listingData, scrapedAt time.Time) dataset.Record {
	return dataset.Record{
		ID: d.ID,
		Fields: map[string]string{
			"title":        d.Title,
			"selftext":     d.SelfText,
			"score":        strconv.Itoa(d.Score),
			"num_comments": strconv.Itoa(d.NumComments),
			"created_utc":  strconv.FormatInt(int64(d.CreatedUTC), 10),
			"subreddit":    d.Subreddit,
			"author":       d.Author,
			"over_18":      strconv.FormatBool(d.Over18),
			"is_self":      strconv.FormatBool(d.IsSelf),
			"url":          d.URL,
			"scraped_at":   scrapedAt.Format(time.RFC3339),
		},
	}
}

func (s *Scraper) doGet(ctx context.Context, url string) fn.Result[*listingResponse] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fn.Err[*listingResponse](err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fn.Err[*listingResponse](fmt.Errorf("%w: %w", ingest.ErrSourceUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fn.Err[*listingResponse](fmt.Errorf("%w: http 429 from %s", ingest.ErrRateLimited, url))
	case resp.StatusCode >= 500:
		return fn.Err[*listingResponse](fmt.Errorf("%w: http %d from %s", ingest.ErrSourceUnavailable, resp.StatusCode, url))
	case resp.StatusCode != http.StatusOK:
		// Other 4xx won't heal on retry.
		return fn.Err[*listingResponse](fn.Permanent(fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)))
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return fn.Err[*listingResponse](fmt.Errorf("%w: decode listing: %w", ingest.ErrSourceUnavailable, err))
	}
	return fn.Ok(&listing)
}
