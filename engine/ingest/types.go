// Package ingest implements the deduplicating ingestion pipeline: load the
// master dataset, fetch new records per category, filter out already-known
// ids, and persist the merged result atomically with a timestamped backup.
package ingest

import (
	"context"
	"fmt"

	"github.com/mindsift/mindsift/engine/dataset"
)

// SortOrder selects the listing ordering a source should fetch.
type SortOrder string

const (
	SortHot SortOrder = "hot"
	SortNew SortOrder = "new"
	SortTop SortOrder = "top"
)

// ParseSort validates a sort string, defaulting empty input to hot.
func ParseSort(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "":
		return SortHot, nil
	case SortHot, SortNew, SortTop:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Source fetches records for one category (e.g. a subreddit). Implementations
// classify failures with the package sentinels: ErrRateLimited for throttling,
// ErrSourceUnavailable for transport and server failures.
type Source interface {
	Fetch(ctx context.Context, category string, sort SortOrder, limit int) ([]dataset.Record, error)
}

// FetchStats counts what happened to one fetched batch.
type FetchStats struct {
	Fetched   int
	Accepted  int
	Skipped   int
	Malformed int
}

func (s *FetchStats) add(o FetchStats) {
	s.Fetched += o.Fetched
	s.Accepted += o.Accepted
	s.Skipped += o.Skipped
	s.Malformed += o.Malformed
}

// RunSummary reports the outcome of a full ingest run.
type RunSummary struct {
	FetchStats
	// FailedCategories lists categories whose fetch failed and was skipped.
	FailedCategories []string
	// MasterSize is the row count of the master dataset after the merge.
	MasterSize int
	// BackupPath is the timestamped backup written for this run's delta,
	// empty when no new records arrived.
	BackupPath string
}
