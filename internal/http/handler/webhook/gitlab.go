package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklink.app/relay/common/id"
	"tasklink.app/relay/common/logger"
	"tasklink.app/relay/internal/mapper"
	"tasklink.app/relay/internal/relay"
)

// GitLabWebhookHandler receives GitLab issue events and relays them to
// Asana: opened issues become tasks, closed issues complete their linked
// task.
type GitLabWebhookHandler struct {
	secret string
	mapper mapper.EventMapper
	relay  *relay.Orchestrator
}

func NewGitLabWebhookHandler(secret string, m mapper.EventMapper, orch *relay.Orchestrator) *GitLabWebhookHandler {
	return &GitLabWebhookHandler{
		secret: secret,
		mapper: m,
		relay:  orch,
	}
}

func (h *GitLabWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		DeliveryID: logger.Ptr(id.New()),
		Direction:  logger.Ptr(string(relay.DirectionGitLabToAsana)),
		Component:  "http.webhook.gitlab",
	})

	// Token check happens before the body is touched.
	token := c.GetHeader("X-Gitlab-Token")
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		slog.WarnContext(ctx, "invalid gitlab webhook token")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	eventType, ev, err := h.mapper.Map(ctx, body)
	if err != nil {
		if errors.Is(err, relay.ErrNotHandled) {
			slog.InfoContext(ctx, "gitlab event not handled")
			c.JSON(http.StatusOK, gin.H{"message": "Event not handled"})
			return
		}
		slog.WarnContext(ctx, "malformed gitlab payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{EventType: logger.Ptr(string(eventType))})

	switch eventType {
	case mapper.EventIssueOpened:
		h.handleOpened(c, ctx, ev)
	case mapper.EventIssueClosed:
		h.handleClosed(c, ctx, ev)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Event not handled"})
	}
}

func (h *GitLabWebhookHandler) handleOpened(c *gin.Context, ctx context.Context, ev relay.Event) {
	result, err := h.relay.RelayCreation(ctx, ev)
	if err != nil {
		relayError(c, err, "Assignee not found in Asana mapping", "Asana task ID not found")
		return
	}

	if result.LinkWriteErr != nil {
		// The task exists; only the write-back into the issue failed.
		upstreamOrInternal(c, result.LinkWriteErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task created in Asana and linked to GitLab Issue"})
}

func (h *GitLabWebhookHandler) handleClosed(c *gin.Context, ctx context.Context, ev relay.Event) {
	if _, err := h.relay.RelayClosure(ctx, ev); err != nil {
		relayError(c, err, "Assignee not found in Asana mapping", "Asana task ID not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asana task completed"})
}
