package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Verified Stripe webhook events by type and outcome",
	}, []string{"event_type", "outcome"})
	WebhookErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_errors_total",
		Help: "Webhook processing failures by error kind",
	}, []string{"kind"})
	CompensatingReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_subscription_compensating_reads_total",
		Help: "Subscription retrieve calls made because a webhook lacked period dates",
	}, []string{"result"})
	WebhookLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stripe_webhook_duration_seconds",
		Help:    "Time spent processing a webhook delivery",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(WebhookEvents, WebhookErrors, CompensatingReads, WebhookLatency)
}

// ObserveWebhook records one processed delivery.
func ObserveWebhook(eventType, outcome string, elapsed time.Duration) {
	WebhookEvents.WithLabelValues(eventType, outcome).Inc()
	WebhookLatency.WithLabelValues(eventType).Observe(elapsed.Seconds())
}

// ObserveWebhookError counts a failure of the given kind.
func ObserveWebhookError(kind string) {
	if kind == "" {
		return
	}
	WebhookErrors.WithLabelValues(kind).Inc()
}

// ObserveCompensatingRead counts a subscription retrieve; result is "ok" or "error".
func ObserveCompensatingRead(result string) {
	CompensatingReads.WithLabelValues(result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
