package dto

// GitLabIssueEvent is the subset of a GitLab issue webhook payload the relay
// reads. See https://docs.gitlab.com/ee/user/project/integrations/webhook_events.html#issue-events
type GitLabIssueEvent struct {
	ObjectKind       string                `json:"object_kind"`
	ObjectAttributes GitLabIssueAttributes `json:"object_attributes"`
}

type GitLabIssueAttributes struct {
	ID          int64   `json:"id"`
	IID         int64   `json:"iid"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	Action      string  `json:"action"`
	AssigneeIDs []int64 `json:"assignee_ids"`
	AssigneeID  int64   `json:"assignee_id"`
}
