package router

import (
	"github.com/gin-gonic/gin"

	"legalbridge.app/bridge/internal/http/handler/webhook"
	"legalbridge.app/bridge/internal/service"
)

type RouterConfig struct {
	// WebhookSecret guards the webhook endpoint when non-empty.
	WebhookSecret string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	campaignHandler := webhook.NewCampaignWebhookHandler(services.Dispatch(), cfg.WebhookSecret)
	router.POST("/webhooks/campaign", campaignHandler.HandleEvent)
}
