package dto

// AsanaTaskEvent is the flat delivery shape: one action with the full task
// resource inline.
type AsanaTaskEvent struct {
	Action   string        `json:"action"`
	Resource AsanaResource `json:"resource"`
	// Events is the envelope variant: Asana batches change notifications
	// under an events array, with the resource still at the top level.
	Events []AsanaEnvelopeEvent `json:"events"`
}

type AsanaResource struct {
	GID       string         `json:"gid"`
	Name      string         `json:"name"`
	Notes     string         `json:"notes"`
	DueOn     *string        `json:"due_on"`
	Completed bool           `json:"completed"`
	Assignee  *AsanaAssignee `json:"assignee"`
}

type AsanaAssignee struct {
	GID string `json:"gid"`
}

type AsanaEnvelopeEvent struct {
	Action   string        `json:"action"`
	Resource AsanaResource `json:"resource"`
	Change   AsanaChange   `json:"change"`
}

type AsanaChange struct {
	Action string `json:"action"`
	Field  string `json:"field"`
}
