package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrNotHandled marks an event kind/action the relay does not act on.
	// It is an ordinary outcome, responded with success status.
	ErrNotHandled = errors.New("event not handled")

	// ErrMappingMissing is terminal for a creation attempt: no counterpart
	// record is created without a valid owner.
	ErrMappingMissing = errors.New("assignee not found in identity map")

	// ErrLinkNotFound is terminal for a closure attempt: the originating
	// record's body carries no extractable cross-link.
	ErrLinkNotFound = errors.New("cross-link not found")
)

// UpstreamError is a non-2xx response (or transport failure) from one of the
// counterpart platform APIs. Body carries the upstream response verbatim so
// the webhook caller sees what the platform said.
type UpstreamError struct {
	Op         string // e.g. "create Asana task"
	StatusCode int    // 0 when the request never completed
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.StatusCode, e.Body)
}
