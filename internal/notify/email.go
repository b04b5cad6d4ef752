package notify

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Emailer sends transactional mail through SendGrid. A nil *Emailer is a
// valid no-op sender so callers don't have to branch on configuration.
type Emailer struct {
	client *sendgrid.Client
	from   string
}

// NewEmailer returns nil when no API key is configured.
func NewEmailer(apiKey, fromAddress string) *Emailer {
	if apiKey == "" {
		log.Info().Msg("notify: no SendGrid API key configured, order confirmations disabled")
		return nil
	}
	return &Emailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   fromAddress,
	}
}

func (e *Emailer) OrderPlaced(ctx context.Context, email string, orderID uuid.UUID, total float64) error {
	if e == nil {
		return nil
	}

	subject := "Your Windly order confirmation"
	plain := fmt.Sprintf("Thank you for your purchase! Your order %s has been placed. Total: $%.2f.", orderID, total)
	html := fmt.Sprintf(
		"<strong>Thank you for your purchase!</strong><br><br>Your order (ID: %s) has been placed successfully.<br>Total: <strong>$%.2f</strong>",
		orderID, total,
	)

	msg := mail.NewSingleEmail(mail.NewEmail("Windly", e.from), subject, mail.NewEmail("", email), plain, html)
	resp, err := e.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("notify: failed to send order confirmation: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid rejected order confirmation: status %d", resp.StatusCode)
	}

	log.Info().Stringer("order_id", orderID).Msg("notify: order confirmation sent")
	return nil
}
