package ingest

import "errors"

var (
	// ErrSourceUnavailable marks transport failures and server errors from
	// the record source. Retryable on a later run.
	ErrSourceUnavailable = errors.New("ingest: source unavailable")

	// ErrRateLimited marks throttling responses from the record source.
	ErrRateLimited = errors.New("ingest: rate limited by source")

	// ErrMalformedRecord marks a fetched record that cannot enter the
	// dataset, e.g. one with an empty id.
	ErrMalformedRecord = errors.New("ingest: malformed record")
)
