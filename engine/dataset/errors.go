package dataset

import "errors"

var (
	// ErrStorageRead wraps failures to load or parse an existing dataset file.
	ErrStorageRead = errors.New("dataset: storage read failed")

	// ErrStorageWrite wraps failures to persist a dataset file.
	ErrStorageWrite = errors.New("dataset: storage write failed")
)
