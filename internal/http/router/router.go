package router

import (
	"github.com/gin-gonic/gin"

	"tasklink.app/relay/internal/http/handler/webhook"
)

type Handlers struct {
	GitLab *webhook.GitLabWebhookHandler
	Asana  *webhook.AsanaWebhookHandler
}

func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/gitlab", h.GitLab.HandleEvent)
		webhooks.POST("/asana", h.Asana.HandleEvent)
	}
}
