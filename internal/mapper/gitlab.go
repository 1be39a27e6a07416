package mapper

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"tasklink.app/relay/internal/http/dto"
	"tasklink.app/relay/internal/relay"
)

type GitLabEventMapper struct{}

func NewGitLabEventMapper() *GitLabEventMapper {
	return &GitLabEventMapper{}
}

func (m *GitLabEventMapper) Map(ctx context.Context, body []byte) (CanonicalEventType, relay.Event, error) {
	var payload dto.GitLabIssueEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", relay.Event{}, fmt.Errorf("decoding gitlab payload: %w", err)
	}

	if payload.ObjectKind != "issue" {
		return "", relay.Event{}, relay.ErrNotHandled
	}

	attrs := payload.ObjectAttributes

	var eventType CanonicalEventType
	var action relay.Action
	switch attrs.Action {
	case "open":
		eventType, action = EventIssueOpened, relay.ActionOpened
	case "close":
		eventType, action = EventIssueClosed, relay.ActionClosed
	default:
		return "", relay.Event{}, relay.ErrNotHandled
	}

	if attrs.IID == 0 {
		return "", relay.Event{}, fmt.Errorf("gitlab payload has no issue iid")
	}

	ev := relay.Event{
		Kind:       "issue",
		Action:     action,
		SourceID:   strconv.FormatInt(attrs.IID, 10),
		Title:      attrs.Title,
		Body:       attrs.Description,
		AssigneeID: assigneeID(attrs),
	}
	if attrs.DueDate != nil {
		ev.DueDate = *attrs.DueDate
	}

	return eventType, ev, nil
}

// assigneeID prefers the assignee_ids array; older webhook payloads carry
// only the scalar assignee_id.
func assigneeID(attrs dto.GitLabIssueAttributes) string {
	if len(attrs.AssigneeIDs) > 0 {
		return strconv.FormatInt(attrs.AssigneeIDs[0], 10)
	}
	if attrs.AssigneeID != 0 {
		return strconv.FormatInt(attrs.AssigneeID, 10)
	}
	return ""
}
