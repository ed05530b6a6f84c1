// Package services – NotificationService
//
// Email dispatch is an external collaborator: this service specifies the
// interface and renders the payment-confirmation template, while the actual
// delivery backend is currently a structured-logging stub (a real mail
// integration slots in behind the Notifier interface without touching the
// webhook flow).
package services

import (
	"bytes"
	"context"
	"html/template"

	"github.com/rs/zerolog"
)

// Notifier dispatches a single HTML email. Implementations must be safe for
// concurrent use and must not block webhook processing beyond their own
// context deadline.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) error
}

// PaymentConfirmationSubject is the fixed subject line for payment
// confirmation emails.
const PaymentConfirmationSubject = "Confirmation de paiement - LegalForm"

// paymentConfirmationTmpl is the confirmation email body. French copy,
// mirroring the portal's tone; the tracking number is the client's handle
// for follow-up.
var paymentConfirmationTmpl = template.Must(template.New("payment_confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
    .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
    .footer { text-align: center; margin-top: 30px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Paiement Confirmé !</h1>
    </div>
    <div class="content">
      <p>Bonjour <strong>{{.ContactName}}</strong>,</p>
      <p>Nous avons bien reçu votre paiement et sommes ravis de vous accompagner dans votre projet.</p>
      <p><strong>Numéro de suivi :</strong> <code>{{.TrackingNumber}}</code></p>
      <p>Notre équipe va maintenant traiter votre dossier dans les plus brefs délais. Vous recevrez une notification à chaque étape importante.</p>
      <p>Vous pouvez suivre l'avancement de votre dossier à tout moment sur notre plateforme.</p>
      <div class="footer">
        <p>Cordialement,<br><strong>L'équipe LegalForm</strong></p>
      </div>
    </div>
  </div>
</body>
</html>`))

// BuildPaymentConfirmation renders the confirmation email body for a
// confirmed payment. trackingNumber should fall back to the request id when
// the human-facing number is absent.
func BuildPaymentConfirmation(contactName, trackingNumber string) (string, error) {
	var buf bytes.Buffer
	err := paymentConfirmationTmpl.Execute(&buf, struct {
		ContactName    string
		TrackingNumber string
	}{contactName, trackingNumber})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LogNotifier is the stub delivery backend: it records the outgoing email in
// the structured log and succeeds. Body size is logged rather than the body
// itself to keep log volume bounded.
type LogNotifier struct {
	Log zerolog.Logger
}

// Send implements Notifier.
func (n *LogNotifier) Send(ctx context.Context, to, subject, html string) error {
	n.Log.Info().
		Str("to", to).
		Str("subject", subject).
		Int("html_bytes", len(html)).
		Msg("notification dispatched (logging stub)")
	return nil
}
