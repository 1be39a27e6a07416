// Package tasks is the Asana side of the relay: task creation, cross-link
// write-back into task notes, and task completion. Asana has no Go client
// library, so this is a thin bearer-token REST client mirroring the API's
// {data: ...} envelope.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tasklink.app/relay/internal/crosslink"
	"tasklink.app/relay/internal/relay"
)

const maxErrorBody = 4096

type Config struct {
	BaseURL    string // default https://app.asana.com/api/1.0
	Token      string
	ProjectGID string
	Timeout    time.Duration
}

type Client struct {
	httpc      *http.Client
	baseURL    string
	token      string
	projectGID string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("asana token is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://app.asana.com/api/1.0"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpc:      &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      cfg.Token,
		projectGID: cfg.ProjectGID,
	}, nil
}

type taskData struct {
	Name      string   `json:"name,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	DueOn     string   `json:"due_on,omitempty"`
	Assignee  string   `json:"assignee,omitempty"`
	Projects  []string `json:"projects,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
}

type taskEnvelope struct {
	Data taskData `json:"data"`
}

type taskResponse struct {
	Data struct {
		GID          string `json:"gid"`
		PermalinkURL string `json:"permalink_url"`
	} `json:"data"`
}

// Create adds a task to the configured project.
func (c *Client) Create(ctx context.Context, f relay.Fields) (relay.Created, error) {
	payload := taskEnvelope{Data: taskData{
		Name:     f.Title,
		Notes:    f.Body,
		DueOn:    f.DueDate,
		Assignee: f.AssigneeID,
		Projects: []string{c.projectGID},
	}}

	var out taskResponse
	if err := c.do(ctx, http.MethodPost, "/tasks", "create Asana task", payload, &out); err != nil {
		return relay.Created{}, err
	}

	url := out.Data.PermalinkURL
	if url == "" {
		url = crosslink.AsanaTaskURL(c.projectGID, out.Data.GID)
	}

	return relay.Created{ID: out.Data.GID, URL: url}, nil
}

// AppendLink rewrites the task notes as the current body plus the cross-link.
func (c *Client) AppendLink(ctx context.Context, taskGID, body, link string) error {
	payload := taskEnvelope{Data: taskData{
		Notes: crosslink.Append(body, link),
	}}
	return c.do(ctx, http.MethodPut, "/tasks/"+taskGID, "update Asana task", payload, nil)
}

// Close marks the task completed.
func (c *Client) Close(ctx context.Context, taskGID string) error {
	completed := true
	payload := taskEnvelope{Data: taskData{
		Completed: &completed,
	}}
	return c.do(ctx, http.MethodPut, "/tasks/"+taskGID, "complete Asana task", payload, nil)
}

func (c *Client) do(ctx context.Context, method, path, op string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &relay.UpstreamError{Op: op, StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &relay.UpstreamError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(detail),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decoding response: %w", op, err)
		}
	}
	return nil
}
