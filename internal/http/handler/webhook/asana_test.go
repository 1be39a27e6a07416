package webhook_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tasklink.app/relay/internal/crosslink"
	"tasklink.app/relay/internal/http/handler/webhook"
	"tasklink.app/relay/internal/mapper"
	"tasklink.app/relay/internal/relay"
)

var _ = Describe("AsanaWebhookHandler", func() {
	const secret = "hook-secret"

	var (
		router *gin.Engine
		gitlab *fakeCounterpart
		asana  *fakeLinkWriter
	)

	newRouter := func(hookSecret string) {
		gin.SetMode(gin.TestMode)
		router = gin.New()

		gitlab = &fakeCounterpart{
			created: relay.Created{ID: "42", URL: "https://gitlab.example.com/acme/web/-/issues/42"},
		}
		asana = &fakeLinkWriter{}

		users := map[string]string{"1205000000000099": "7"}
		orch := relay.NewOrchestrator(relay.OrchestratorConfig{
			Direction:   relay.DirectionAsanaToGitLab,
			Counterpart: gitlab,
			Origin:      asana,
			LookupAssignee: func(gid string) (string, bool) {
				id, ok := users[gid]
				return id, ok
			},
			SourceLink: func(taskGID string) string {
				return crosslink.AsanaTaskLink(crosslink.AsanaTaskURL("555", taskGID))
			},
			CounterpartLink: func(c relay.Created) string {
				return crosslink.GitLabIssueLink(c.URL)
			},
			ExtractCounterpartID: crosslink.ExtractGitLabIssueIID,
		})

		h := webhook.NewAsanaWebhookHandler(hookSecret, mapper.NewAsanaEventMapper(), orch)
		router.POST("/webhooks/asana", h.HandleEvent)
	}

	BeforeEach(func() {
		newRouter("")
	})

	sign := func(payload []byte) string {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		return hex.EncodeToString(mac.Sum(nil))
	}

	post := func(payload []byte, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/asana", bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	addedPayload := []byte(`{
		"action": "added",
		"resource": {
			"gid": "1208600000000001",
			"name": "Ship the Q3 report",
			"notes": "Draft is in the shared drive",
			"due_on": "2026-09-30",
			"assignee": {"gid": "1205000000000099"}
		}
	}`)

	completedPayload := []byte(`{
		"resource": {
			"gid": "1208600000000001",
			"name": "Ship the Q3 report",
			"notes": "GitLab Issue Link: https://gitlab.example.com/acme/web/-/issues/42",
			"completed": true
		}
	}`)

	Describe("handshake", func() {
		It("echoes X-Hook-Secret with an empty body", func() {
			w := post(nil, map[string]string{"X-Hook-Secret": "reg-secret-abc"})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("X-Hook-Secret")).To(Equal("reg-secret-abc"))
			Expect(w.Body.Len()).To(BeZero())
			Expect(gitlab.createCalls).To(BeEmpty())
		})
	})

	Describe("signature verification", func() {
		BeforeEach(func() {
			newRouter(secret)
		})

		It("accepts a correctly signed delivery", func() {
			w := post(addedPayload, map[string]string{"X-Hook-Signature": sign(addedPayload)})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gitlab.createCalls).To(HaveLen(1))
		})

		It("rejects a delivery with a bad signature", func() {
			w := post(addedPayload, map[string]string{"X-Hook-Signature": "deadbeef"})

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Body.String()).To(ContainSubstring("Unauthorized"))
			Expect(gitlab.createCalls).To(BeEmpty())
		})

		It("rejects an unsigned delivery", func() {
			w := post(addedPayload, nil)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(gitlab.createCalls).To(BeEmpty())
		})

		It("still answers the handshake when signing is on", func() {
			w := post(nil, map[string]string{"X-Hook-Secret": "reg-secret-abc"})

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("X-Hook-Secret")).To(Equal("reg-secret-abc"))
		})
	})

	It("relays an added task into an issue and links back", func() {
		w := post(addedPayload, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Issue created in GitLab and linked to Asana Task"))

		Expect(gitlab.createCalls).To(HaveLen(1))
		fields := gitlab.createCalls[0]
		Expect(fields.Title).To(Equal("Ship the Q3 report"))
		Expect(fields.AssigneeID).To(Equal("7"))
		Expect(fields.DueDate).To(Equal("2026-09-30"))
		Expect(fields.Body).To(ContainSubstring("Asana Task Link: https://app.asana.com/0/555/1208600000000001"))
		Expect(asana.calls).To(Equal(1))
	})

	It("responds 400 when the assignee has no GitLab mapping", func() {
		payload := []byte(`{
			"action": "added",
			"resource": {
				"gid": "1208600000000001",
				"name": "Orphan task",
				"assignee": {"gid": "1205000000000000"}
			}
		}`)

		w := post(payload, nil)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Assignee not found in GitLab mapping"))
		Expect(gitlab.createCalls).To(BeEmpty())
	})

	It("relays a completed task by closing the linked issue", func() {
		w := post(completedPayload, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("GitLab issue closed"))
		Expect(gitlab.closeCalls).To(Equal([]string{"42"}))
	})

	It("responds 400 when a completed task carries no issue link", func() {
		payload := []byte(`{
			"resource": {"gid": "1208600000000001", "name": "Unlinked", "notes": "nothing here", "completed": true}
		}`)

		w := post(payload, nil)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("GitLab issue ID not found"))
		Expect(gitlab.closeCalls).To(BeEmpty())
	})

	It("responds 500 with the upstream body verbatim when issue creation fails", func() {
		gitlab.createErr = &relay.UpstreamError{Op: "create GitLab issue", StatusCode: 422, Body: `{"message":"title is too long"}`}

		w := post(addedPayload, nil)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(w.Body.String()).To(ContainSubstring("Failed to create GitLab issue"))
		Expect(w.Body.String()).To(ContainSubstring("title is too long"))
	})

	It("acknowledges unhandled events without relaying", func() {
		payload := []byte(`{"action": "changed", "resource": {"gid": "123", "name": "Still open", "completed": false}}`)

		w := post(payload, nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Event not handled"))
		Expect(gitlab.createCalls).To(BeEmpty())
		Expect(gitlab.closeCalls).To(BeEmpty())
	})

	It("rejects malformed payloads", func() {
		w := post([]byte(`{"action": `), nil)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Invalid payload"))
	})
})
