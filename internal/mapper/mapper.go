// Package mapper normalizes raw webhook payloads into canonical relay
// events. All platform-specific payload shape differences are absorbed here;
// the orchestrator sees one Event type regardless of origin.
package mapper

import (
	"context"

	"tasklink.app/relay/internal/relay"
)

type CanonicalEventType string

const (
	EventIssueOpened   CanonicalEventType = "issue_opened"
	EventIssueClosed   CanonicalEventType = "issue_closed"
	EventTaskAdded     CanonicalEventType = "task_added"
	EventTaskCompleted CanonicalEventType = "task_completed"
)

// EventMapper decodes one platform's webhook body into a canonical event.
// Returns relay.ErrNotHandled for kinds/actions the relay does not act on;
// any other error means the body could not be decoded.
type EventMapper interface {
	Map(ctx context.Context, body []byte) (CanonicalEventType, relay.Event, error)
}
