package relay

// Direction identifies which platform originated an event and which receives
// the counterpart call.
type Direction string

const (
	DirectionGitLabToAsana Direction = "gitlab_to_asana"
	DirectionAsanaToGitLab Direction = "asana_to_gitlab"
)

// Event is the normalized form of one inbound webhook notification. It is
// built once per request by the platform mapper and never mutated.
type Event struct {
	Kind       string // "issue" (GitLab) or "task" (Asana)
	Action     Action
	SourceID   string // platform-native ID: issue IID or task GID
	Title      string
	Body       string // description / notes; may embed a cross-link
	DueDate    string // YYYY-MM-DD, empty if unset
	AssigneeID string // platform-native user ID, empty if unassigned
}

type Action string

const (
	ActionOpened    Action = "opened"
	ActionClosed    Action = "closed"
	ActionAdded     Action = "added"
	ActionCompleted Action = "completed"
)

// Fields carries the record attributes sent to the counterpart platform on
// creation.
type Fields struct {
	Title      string
	Body       string
	DueDate    string
	AssigneeID string // counterpart-native user ID, already mapped
}

// Created is what a counterpart create call returns.
type Created struct {
	ID  string
	URL string
}

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeClosed  Outcome = "closed"
)

// Result is the outcome of one relay operation. LinkWriteErr reports the
// accepted partial-failure case: the counterpart record exists but the
// cross-link write-back into the originating record failed.
type Result struct {
	Outcome      Outcome
	Counterpart  Created
	LinkWriteErr error
}
