// Package email provides the email.send capability. In dry mode it reports
// the would-be delivery without touching the mail gateway.
package email

import (
	"context"
	"errors"
	"log/slog"
)

// Sender delivers one transactional email and returns the gateway message id.
type Sender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// ErrNoSender indicates the capability was wired without a mail gateway.
var ErrNoSender = errors.New("email capability has no sender configured")

type Capability struct {
	sender Sender
}

func (c *Capability) Invoke(ctx context.Context, args map[string]any, dryRun bool, logger *slog.Logger) (map[string]any, error) {
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)

	if dryRun {
		logger.InfoContext(ctx, "Dry run, would send email", "to", to, "subject", subject)

		return map[string]any{
			"would_send": true,
			"to":         to,
			"subject":    subject,
		}, nil
	}

	if c.sender == nil {
		return nil, ErrNoSender
	}

	messageID, err := c.sender.SendEmail(ctx, to, subject, body)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Sent email", "to", to, "message_id", messageID)

	return map[string]any{
		"sent":       true,
		"to":         to,
		"message_id": messageID,
	}, nil
}
