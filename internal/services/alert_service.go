package services

import (
	"context"
	"fmt"
	"time"

	"coursepay-api/internal/config"
	"coursepay-api/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
	"go.uber.org/zap"
)

// BrevoAlerter e-mails operators through Brevo transactional mail.
type BrevoAlerter struct {
	client      *brevo.APIClient
	fromEmail   string
	fromName    string
	to          string
	serviceName string
	retryDelays []time.Duration
	timeout     time.Duration
	log         *zap.Logger
}

// NewBrevoAlerter returns nil when alerts are not configured, so callers can
// pass the result straight into a recorder.
func NewBrevoAlerter(cfg *config.Config, log *zap.Logger) *BrevoAlerter {
	if cfg == nil || !cfg.AlertsEnabled() {
		return nil
	}
	brevoCfg := brevo.NewConfiguration()
	brevoCfg.AddDefaultHeader("api-key", cfg.BrevoAPIKey)
	return newBrevoAlerter(brevo.NewAPIClient(brevoCfg), cfg, log)
}

func newBrevoAlerter(client *brevo.APIClient, cfg *config.Config, log *zap.Logger) *BrevoAlerter {
	if log == nil {
		log = zap.NewNop()
	}
	return &BrevoAlerter{
		client:      client,
		fromEmail:   cfg.BrevoFromEmail,
		fromName:    cfg.BrevoFromName,
		to:          cfg.OpsAlertEmail,
		serviceName: cfg.ServiceName,
		// Retry schedule: 1s, 5s (3 attempts total)
		retryDelays: []time.Duration{0, 1 * time.Second, 5 * time.Second},
		timeout:     10 * time.Second,
		log:         log,
	}
}

// OrphanedPayment sends the alert in the background. The webhook response
// never waits for it.
func (a *BrevoAlerter) OrphanedPayment(ctx context.Context, payment OrphanedPayment) {
	if a == nil {
		return
	}
	log := logging.FromContext(ctx, a.log).With(
		zap.String("checkout_session_id", payment.CheckoutSessionID),
		zap.String("customer_id", payment.CustomerID),
	)
	go a.sendWithRetry(log, payment)
}

func (a *BrevoAlerter) sendWithRetry(log *zap.Logger, payment OrphanedPayment) {
	var err error
	for attempt, delay := range a.retryDelays {
		if delay > 0 {
			time.Sleep(delay)
		}
		if err = a.send(payment); err == nil {
			log.Info("Orphaned payment alert sent", zap.Int("attempt", attempt+1))
			return
		}
		log.Warn("Orphaned payment alert failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	log.Error("Giving up on orphaned payment alert", zap.Error(err))
}

func (a *BrevoAlerter) send(payment OrphanedPayment) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	subject, html, text := orphanedPaymentEmail(a.serviceName, payment)
	_, _, err := a.client.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  a.fromName,
			Email: a.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: a.to},
		},
		Subject:     subject,
		HtmlContent: html,
		TextContent: text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func orphanedPaymentEmail(serviceName string, p OrphanedPayment) (subject, html, text string) {
	subject = fmt.Sprintf("[%s] Payment received for unknown customer %s", serviceName, p.CustomerID)
	html = fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<title>Orphaned payment</title>
		</head>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h2 style="color: #b02a37;">Payment without a linked account</h2>
			<p>A checkout completed for a Stripe customer that has no user in %s.</p>
			<ul>
				<li>Checkout session: %s</li>
				<li>Customer: %s</li>
				<li>Course: %s</li>
				<li>Amount: %d</li>
			</ul>
			<p>Link the customer to a user; Stripe keeps retrying the event until it succeeds.</p>
		</body>
		</html>
	`, serviceName, p.CheckoutSessionID, p.CustomerID, p.CourseID, p.Amount)

	text = fmt.Sprintf(`Payment without a linked account

Checkout session: %s
Customer: %s
Course: %s
Amount: %d

Link the customer to a user; Stripe keeps retrying the event until it succeeds.
`, p.CheckoutSessionID, p.CustomerID, p.CourseID, p.Amount)
	return subject, html, text
}
