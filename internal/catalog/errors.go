package catalog

import "errors"

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrPackageNotFound    = errors.New("package not found")

	// errCallerAborted marks fetches cut short by the caller's own context.
	// Such fetches never trip the breaker.
	errCallerAborted = errors.New("request aborted by caller")
)
