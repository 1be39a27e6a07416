package mapper_test

import (
	"context"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklink.app/relay/internal/mapper"
	"tasklink.app/relay/internal/relay"
)

var _ = Describe("GitLabEventMapper", func() {
	var (
		m   *mapper.GitLabEventMapper
		ctx context.Context
	)

	BeforeEach(func() {
		m = mapper.NewGitLabEventMapper()
		ctx = context.Background()
	})

	issuePayload := func(action string, overrides map[string]any) []byte {
		attrs := map[string]any{
			"id":           10,
			"iid":          42,
			"title":        "Fix login flow",
			"description":  "Users cannot log in with SSO",
			"due_date":     "2026-09-15",
			"action":       action,
			"assignee_ids": []int{7},
		}
		for k, v := range overrides {
			attrs[k] = v
		}
		payload, err := json.Marshal(map[string]any{
			"object_kind":       "issue",
			"object_attributes": attrs,
		})
		Expect(err).ToNot(HaveOccurred())
		return payload
	}

	It("maps an opened issue to a creation event", func() {
		eventType, ev, err := m.Map(ctx, issuePayload("open", nil))
		Expect(err).ToNot(HaveOccurred())
		Expect(eventType).To(Equal(mapper.EventIssueOpened))
		Expect(ev).To(Equal(relay.Event{
			Kind:       "issue",
			Action:     relay.ActionOpened,
			SourceID:   "42",
			Title:      "Fix login flow",
			Body:       "Users cannot log in with SSO",
			DueDate:    "2026-09-15",
			AssigneeID: "7",
		}))
	})

	It("maps a closed issue to a closure event", func() {
		eventType, ev, err := m.Map(ctx, issuePayload("close", nil))
		Expect(err).ToNot(HaveOccurred())
		Expect(eventType).To(Equal(mapper.EventIssueClosed))
		Expect(ev.Action).To(Equal(relay.ActionClosed))
		Expect(ev.SourceID).To(Equal("42"))
	})

	It("falls back to the scalar assignee_id when the array is empty", func() {
		payload := issuePayload("open", map[string]any{
			"assignee_ids": []int{},
			"assignee_id":  9,
		})
		_, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(ev.AssigneeID).To(Equal("9"))
	})

	It("leaves the assignee empty when the issue is unassigned", func() {
		payload := issuePayload("open", map[string]any{
			"assignee_ids": []int{},
			"assignee_id":  0,
		})
		_, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(ev.AssigneeID).To(BeEmpty())
	})

	It("leaves the due date empty when null", func() {
		payload := issuePayload("open", map[string]any{"due_date": nil})
		_, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(ev.DueDate).To(BeEmpty())
	})

	It("does not handle non-issue kinds", func() {
		payload := []byte(`{"object_kind": "wiki_page", "object_attributes": {"action": "open"}}`)
		_, _, err := m.Map(ctx, payload)
		Expect(err).To(MatchError(relay.ErrNotHandled))
	})

	It("does not handle update actions", func() {
		_, _, err := m.Map(ctx, issuePayload("update", nil))
		Expect(err).To(MatchError(relay.ErrNotHandled))
	})

	It("rejects malformed payloads", func() {
		_, _, err := m.Map(ctx, []byte(`{"object_kind": `))
		Expect(err).To(HaveOccurred())
		Expect(err).ToNot(MatchError(relay.ErrNotHandled))
	})

	It("rejects issue payloads without an iid", func() {
		payload := issuePayload("open", map[string]any{"iid": 0})
		_, _, err := m.Map(ctx, payload)
		Expect(err).To(HaveOccurred())
		Expect(err).ToNot(MatchError(relay.ErrNotHandled))
	})
})
