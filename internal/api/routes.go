package api

import (
	"context"
	"net/http"
	"time"

	"coursepay-api/internal/metrics"
	"coursepay-api/internal/middleware"
	"coursepay-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	Reconciler  *services.Reconciler
	Access      *services.AccessService
	Admin       AdminStore
	AdminAPIKey string
	ServiceName string
	// Health reports the state of backing stores; nil reports none.
	Health func(ctx context.Context) map[string]string
}

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	// API route group
	api := r.Group("/api")
	{
		// Stripe calls this; authenticated by signature, not API key
		api.POST("/webhooks/stripe", StripeWebhookHandler(deps.Reconciler))

		api.GET("/access", CheckAccessHandler(deps.Access))

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(deps.AdminAPIKey))
		{
			h := NewAdminHandler(deps.Admin)
			admin.POST("/users", h.CreateUser)
			admin.GET("/users/:id/purchases", h.ListUserPurchases)
			admin.GET("/users/:id/subscriptions", h.ListUserSubscriptions)
			admin.GET("/webhook-events", h.ListWebhookEvents)
		}
	}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		checks := map[string]string{}
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			checks = deps.Health(ctx)
		}

		status := "ok"
		for _, v := range checks {
			if v != "ok" {
				status = "degraded"
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  status,
			"service": deps.ServiceName,
			"checks":  checks,
		})
	})
}
