package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"

	"github.com/resend/resend-go/v2"

	"Marketplace/internal/config"
)

// Receipt is the content of a payment confirmation email.
type Receipt struct {
	Name        string
	ListingName string
	Amount      string
	Method      string
	Status      string
	Reference   string
}

type Mailer interface {
	SendPaymentReceipt(ctx context.Context, to string, r Receipt) error
}

// NewMailer returns a Resend-backed mailer, or a logging mailer when no API key is set.
func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.ResendAPIKey == "" {
		log.Printf("⚠️  WARNING: RESEND_API_KEY is empty! Receipts will only be logged")
		return LogMailer{}
	}
	log.Printf("📧 Email Service Initialized (Resend)")
	log.Printf("   - From Email: %s", cfg.From)
	log.Printf("   - API Key: %s", config.MaskSecret(cfg.ResendAPIKey))
	return &ResendMailer{client: resend.NewClient(cfg.ResendAPIKey), from: cfg.From}
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .ref-box { background-color: #f4f4f4; border: 2px dashed #007bff; padding: 20px; text-align: center; margin: 20px 0; border-radius: 5px; }
        .footer { margin-top: 30px; font-size: 12px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h2>Hi {{.Name}},</h2>
        <p>We recorded your {{.Method}} payment of <strong>{{.Amount}}</strong> for <strong>{{.ListingName}}</strong>.</p>
        <p>Status: <strong>{{.Status}}</strong></p>
        <div class="ref-box">{{.Reference}}</div>
        <p>Keep this reference to verify the payment later.</p>
        <div class="footer">
            <p>This is an automated message, please do not reply.</p>
        </div>
    </div>
</body>
</html>`))

func (m *ResendMailer) SendPaymentReceipt(ctx context.Context, to string, r Receipt) error {
	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, r); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: "Payment receipt " + r.Reference,
		Html:    body.String(),
	})
	if err != nil {
		log.Printf("❌ Resend API Error: %v", err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("✅ Receipt sent to: %s (ID: %s)", to, sent.Id)
	return nil
}

type LogMailer struct{}

func (LogMailer) SendPaymentReceipt(_ context.Context, to string, r Receipt) error {
	log.Printf("📨 Receipt for %s: %s %s (%s)", to, r.Reference, r.Amount, r.Status)
	return nil
}
