package webhook

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"tasklink.app/relay/common/logger"
	"tasklink.app/relay/internal/relay"
)

// relayError maps the relay error taxonomy onto the response envelope. The
// mapping-missing and link-not-found messages differ per direction, so the
// calling handler supplies them.
func relayError(c *gin.Context, err error, mappingMsg, linkMsg string) {
	switch {
	case errors.Is(err, relay.ErrMappingMissing):
		c.JSON(http.StatusBadRequest, gin.H{"message": mappingMsg})
	case errors.Is(err, relay.ErrLinkNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": linkMsg})
	default:
		upstreamOrInternal(c, err)
	}
}

func upstreamOrInternal(c *gin.Context, err error) {
	var up *relay.UpstreamError
	if errors.As(err, &up) {
		slog.ErrorContext(c.Request.Context(), "upstream call failed",
			"op", up.Op,
			"status", up.StatusCode,
			"body", logger.Truncate(up.Body, 512),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":      "Failed to " + up.Op,
			"errorDetails": up.Body,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
}
