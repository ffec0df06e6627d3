package repos

import "errors"

var (
	// ErrRunAlreadyActive is returned by BeginRun when another crawl run is
	// still in progress. The caller must not retry until the stuck run is
	// completed or reset.
	ErrRunAlreadyActive = errors.New("crawl run already active")

	// ErrRunNotFound is returned when the referenced run does not exist or
	// is no longer in progress.
	ErrRunNotFound = errors.New("crawl run not found")
)
