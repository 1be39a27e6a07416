// Package tracker is the GitLab side of the relay: issue creation, cross-link
// write-back into issue descriptions, and issue closure.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"tasklink.app/relay/internal/crosslink"
	"tasklink.app/relay/internal/relay"
)

type Config struct {
	BaseURL   string // instance base URL, e.g. https://gitlab.com
	Token     string // API bearer token; never the webhook secret
	ProjectID int
	Timeout   time.Duration
}

type Client struct {
	gl        *gitlab.Client
	projectID int
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab api token is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	// One attempt per relay invocation; the webhook caller gets a definitive
	// status, not a delayed one.
	opts := []gitlab.ClientOptionFunc{
		gitlab.WithHTTPClient(&http.Client{Timeout: timeout}),
		gitlab.WithoutRetries(),
	}
	if cfg.BaseURL != "" {
		apiURL := strings.TrimSuffix(cfg.BaseURL, "/") + "/api/v4"
		opts = append(opts, gitlab.WithBaseURL(apiURL))
	}

	// The token is an OAuth/project access token sent as a bearer
	// Authorization header, matching how the webhook registrations were
	// provisioned.
	gl, err := gitlab.NewOAuthClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &Client{gl: gl, projectID: cfg.ProjectID}, nil
}

// Create opens a new issue in the configured project.
func (c *Client) Create(ctx context.Context, f relay.Fields) (relay.Created, error) {
	opt := &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(f.Title),
		Description: gitlab.Ptr(f.Body),
	}

	if f.DueDate != "" {
		due, err := time.Parse("2006-01-02", f.DueDate)
		if err != nil {
			return relay.Created{}, fmt.Errorf("parsing due date %q: %w", f.DueDate, err)
		}
		opt.DueDate = gitlab.Ptr(gitlab.ISOTime(due))
	}

	if f.AssigneeID != "" {
		id, err := strconv.Atoi(f.AssigneeID)
		if err != nil {
			return relay.Created{}, fmt.Errorf("parsing assignee id %q: %w", f.AssigneeID, err)
		}
		opt.AssigneeIDs = gitlab.Ptr([]int{id})
	}

	issue, resp, err := c.gl.Issues.CreateIssue(c.projectID, opt, gitlab.WithContext(ctx))
	if err != nil {
		return relay.Created{}, upstreamError("create GitLab issue", resp, err)
	}

	return relay.Created{
		ID:  strconv.Itoa(issue.IID),
		URL: issue.WebURL,
	}, nil
}

// AppendLink rewrites the issue description as the current body plus the
// cross-link, preserving the existing text.
func (c *Client) AppendLink(ctx context.Context, issueIID, body, link string) error {
	iid, err := strconv.Atoi(issueIID)
	if err != nil {
		return fmt.Errorf("parsing issue iid %q: %w", issueIID, err)
	}

	opt := &gitlab.UpdateIssueOptions{
		Description: gitlab.Ptr(crosslink.Append(body, link)),
	}

	_, resp, err := c.gl.Issues.UpdateIssue(c.projectID, iid, opt, gitlab.WithContext(ctx))
	if err != nil {
		return upstreamError("update GitLab issue", resp, err)
	}
	return nil
}

// Close closes the issue via a state event.
func (c *Client) Close(ctx context.Context, issueIID string) error {
	iid, err := strconv.Atoi(issueIID)
	if err != nil {
		return fmt.Errorf("parsing issue iid %q: %w", issueIID, err)
	}

	opt := &gitlab.UpdateIssueOptions{
		StateEvent: gitlab.Ptr("close"),
	}

	_, resp, err := c.gl.Issues.UpdateIssue(c.projectID, iid, opt, gitlab.WithContext(ctx))
	if err != nil {
		return upstreamError("close GitLab issue", resp, err)
	}
	return nil
}

func upstreamError(op string, resp *gitlab.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	body := err.Error()
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Message != "" {
		body = errResp.Message
	}

	return &relay.UpstreamError{Op: op, StatusCode: status, Body: body}
}
