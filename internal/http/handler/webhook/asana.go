package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

const hookSecretHeader = "X-Hook-Secret"

// AsanaWebhookHandler receives Asana task events and relays them to GitLab:
// added tasks become issues, completed tasks close their linked issue. It
// also answers Asana's one-time handshake by echoing the X-Hook-Secret
// header.
type AsanaWebhookHandler struct {
	// secret enables X-Hook-Signature verification of ordinary deliveries.
	// Empty means deliveries are accepted unverified, matching providers
	// whose handshake secret was never persisted.
	secret string
	mapper mapper.EventMapper
	relay  *relay.Orchestrator
}

func NewAsanaWebhookHandler(secret string, m mapper.EventMapper, orch *relay.Orchestrator) *AsanaWebhookHandler {
	return &AsanaWebhookHandler{
		secret: secret,
		mapper: m,
		relay:  orch,
	}
}

func (h *AsanaWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{
		DeliveryID: logger.Ptr(id.New()),
		Direction:  logger.Ptr(string(relay.DirectionAsanaToGitLab)),
		Component:  "http.webhook.asana",
	})

	// Handshake: echo the secret back in the same header, empty body. This
	// is Asana's registration protocol, not an authentication check.
	if hookSecret := c.GetHeader(hookSecretHeader); hookSecret != "" {
		slog.InfoContext(ctx, "asana webhook handshake")
		c.Header(hookSecretHeader, hookSecret)
		c.Status(http.StatusOK)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	if h.secret != "" && !h.verifySignature(body, c.GetHeader("X-Hook-Signature")) {
		slog.WarnContext(ctx, "invalid asana webhook signature")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	eventType, ev, err := h.mapper.Map(ctx, body)
	if err != nil {
		if errors.Is(err, relay.ErrNotHandled) {
			slog.InfoContext(ctx, "asana event not handled")
			c.JSON(http.StatusOK, gin.H{"message": "Event not handled"})
			return
		}
		slog.WarnContext(ctx, "malformed asana payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{EventType: logger.Ptr(string(eventType))})

	switch eventType {
	case mapper.EventTaskAdded:
		h.handleAdded(c, ctx, ev)
	case mapper.EventTaskCompleted:
		h.handleCompleted(c, ctx, ev)
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Event not handled"})
	}
}

func (h *AsanaWebhookHandler) handleAdded(c *gin.Context, ctx context.Context, ev relay.Event) {
	result, err := h.relay.RelayCreation(ctx, ev)
	if err != nil {
		relayError(c, err, "Assignee not found in GitLab mapping", "GitLab issue ID not found")
		return
	}

	if result.LinkWriteErr != nil {
		upstreamOrInternal(c, result.LinkWriteErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue created in GitLab and linked to Asana Task"})
}

func (h *AsanaWebhookHandler) handleCompleted(c *gin.Context, ctx context.Context, ev relay.Event) {
	if _, err := h.relay.RelayClosure(ctx, ev); err != nil {
		relayError(c, err, "Assignee not found in GitLab mapping", "GitLab issue ID not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "GitLab issue closed"})
}

func (h *AsanaWebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
