package mapper_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklink.app/relay/internal/mapper"
	"tasklink.app/relay/internal/relay"
)

var _ = Describe("AsanaEventMapper", func() {
	var (
		m   *mapper.AsanaEventMapper
		ctx context.Context
	)

	BeforeEach(func() {
		m = mapper.NewAsanaEventMapper()
		ctx = context.Background()
	})

	It("maps an added task to a creation event", func() {
		payload := []byte(`{
			"action": "added",
			"resource": {
				"gid": "1208600000000001",
				"name": "Ship the Q3 report",
				"notes": "Draft is in the shared drive",
				"due_on": "2026-09-30",
				"assignee": {"gid": "u-99"}
			}
		}`)

		eventType, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(eventType).To(Equal(mapper.EventTaskAdded))
		Expect(ev).To(Equal(relay.Event{
			Kind:       "task",
			Action:     relay.ActionAdded,
			SourceID:   "1208600000000001",
			Title:      "Ship the Q3 report",
			Body:       "Draft is in the shared drive",
			DueDate:    "2026-09-30",
			AssigneeID: "u-99",
		}))
	})

	It("maps a flat completed task to a closure event", func() {
		payload := []byte(`{
			"resource": {
				"gid": "1208600000000001",
				"name": "Ship the Q3 report",
				"notes": "GitLab Issue Link: https://gitlab.com/acme/web/-/issues/42",
				"completed": true
			}
		}`)

		eventType, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(eventType).To(Equal(mapper.EventTaskCompleted))
		Expect(ev.Action).To(Equal(relay.ActionCompleted))
		Expect(ev.Body).To(ContainSubstring("/-/issues/42"))
	})

	It("maps the events envelope variant with a changed completed resource", func() {
		payload := []byte(`{
			"resource": {
				"gid": "1208600000000002",
				"name": "Completed via envelope",
				"notes": "GitLab Issue Link: https://gitlab.com/acme/web/-/issues/7",
				"completed": true
			},
			"events": [
				{
					"action": "changed",
					"change": {"action": "changed", "field": "completed"},
					"resource": {"gid": "1208600000000002"}
				}
			]
		}`)

		eventType, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(eventType).To(Equal(mapper.EventTaskCompleted))
		Expect(ev.SourceID).To(Equal("1208600000000002"))
	})

	It("takes the resource from the envelope event when the top level has none", func() {
		payload := []byte(`{
			"events": [
				{
					"action": "added",
					"resource": {
						"gid": "1208600000000003",
						"name": "Nested resource",
						"assignee": {"gid": "u-100"}
					}
				}
			]
		}`)

		eventType, ev, err := m.Map(ctx, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(eventType).To(Equal(mapper.EventTaskAdded))
		Expect(ev.SourceID).To(Equal("1208600000000003"))
		Expect(ev.AssigneeID).To(Equal("u-100"))
	})

	It("does not handle incomplete changed tasks", func() {
		payload := []byte(`{
			"action": "changed",
			"resource": {"gid": "123", "name": "Still open", "completed": false}
		}`)
		_, _, err := m.Map(ctx, payload)
		Expect(err).To(MatchError(relay.ErrNotHandled))
	})

	It("does not handle payloads without a resource", func() {
		_, _, err := m.Map(ctx, []byte(`{"action": "added"}`))
		Expect(err).To(MatchError(relay.ErrNotHandled))
	})

	It("rejects malformed payloads", func() {
		_, _, err := m.Map(ctx, []byte(`{"action": `))
		Expect(err).To(HaveOccurred())
		Expect(err).ToNot(MatchError(relay.ErrNotHandled))
	})
})
