package notify

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"
)

// ResendNotifier sends alerts through the Resend HTTP API.
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     string
}

func NewResendNotifier(apiKey, from, to string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
	}
}

func (n *ResendNotifier) Notify(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{n.to},
		Subject: alert.Subject(),
		Html:    alert.HTML(),
		Text:    alert.Text(),
	}
	if _, err := n.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send notification via Resend: %w", err)
	}
	return nil
}
