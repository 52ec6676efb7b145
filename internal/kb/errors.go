package kb

import "errors"

var (
	// ErrInvalidChunking indicates a chunk size / overlap combination that
	// can never terminate or produces empty windows.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrNotFound indicates the referenced document is not tracked by the store.
	ErrNotFound = errors.New("document not found")
)
