package api

import (
	"net/http"

	"coursepay-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Stripe caps event payloads well below this.
const maxWebhookBodyBytes = 512 * 1024

// StripeWebhookHandler receives Stripe events. The raw body is read
// untouched because the signature covers its exact bytes.
func StripeWebhookHandler(reconciler *services.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
		body, err := c.GetRawData()
		if err != nil {
			c.String(http.StatusBadRequest, "Unable to read request body.")
			return
		}

		_, err = reconciler.Process(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
		switch {
		case err == nil:
			c.Status(http.StatusOK)
		case services.IsSignatureError(err):
			c.String(http.StatusBadRequest, "Webhook signature verification failed.")
		default:
			c.String(http.StatusInternalServerError, "Error processing webhook")
		}
	}
}
