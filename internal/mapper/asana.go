package mapper

import (
	"context"
	"encoding/json"
	"fmt"

	"tasklink.app/relay/internal/http/dto"
	"tasklink.app/relay/internal/relay"
)

type AsanaEventMapper struct{}

func NewAsanaEventMapper() *AsanaEventMapper {
	return &AsanaEventMapper{}
}

func (m *AsanaEventMapper) Map(ctx context.Context, body []byte) (CanonicalEventType, relay.Event, error) {
	var payload dto.AsanaTaskEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", relay.Event{}, fmt.Errorf("decoding asana payload: %w", err)
	}

	action, resource := normalize(payload)
	if resource.GID == "" {
		return "", relay.Event{}, relay.ErrNotHandled
	}

	var eventType CanonicalEventType
	var evAction relay.Action
	switch {
	case action == "added":
		eventType, evAction = EventTaskAdded, relay.ActionAdded
	case action == "changed" && resource.Completed:
		eventType, evAction = EventTaskCompleted, relay.ActionCompleted
	case resource.Completed:
		// Flat deliveries without an action still mark completion on the
		// resource itself.
		eventType, evAction = EventTaskCompleted, relay.ActionCompleted
	default:
		return "", relay.Event{}, relay.ErrNotHandled
	}

	ev := relay.Event{
		Kind:     "task",
		Action:   evAction,
		SourceID: resource.GID,
		Title:    resource.Name,
		Body:     resource.Notes,
	}
	if resource.DueOn != nil {
		ev.DueDate = *resource.DueOn
	}
	if resource.Assignee != nil {
		ev.AssigneeID = resource.Assignee.GID
	}

	return eventType, ev, nil
}

// normalize collapses the two delivery shapes into one action + resource
// pair. The envelope variant nests the action under events[]; its resource
// may live either at the top level or inside the event.
func normalize(payload dto.AsanaTaskEvent) (string, dto.AsanaResource) {
	action := payload.Action
	resource := payload.Resource

	if len(payload.Events) > 0 {
		first := payload.Events[0]
		action = first.Action
		if first.Change.Action != "" {
			action = first.Change.Action
		}
		if resource.GID == "" {
			resource = first.Resource
		}
	}

	return action, resource
}
