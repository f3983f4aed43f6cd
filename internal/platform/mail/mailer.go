// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

/*
Package mail provides outbound email delivery for the platform.

It is consumed exclusively by the password-recovery flow. Delivery failures
are infrastructure (transient) failures: they must never be conflated with
a validation or authentication failure by callers.

Architecture:

  - Sender: The small interface the auth service depends on.
  - SMTPSender: Production implementation over wneessen/go-mail.
*/
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"
)

// Sender is the delivery contract used by the auth service.
//
// Implementations must honor the context deadline: a slow SMTP peer must
// not hold the calling request hostage.
type Sender interface {
	Send(ctx context.Context, toAddress, subject, htmlBody string) error
}

// SMTPSender delivers mail through an authenticated SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	from   string
	logger *slog.Logger
}

// Options holds the SMTP connection settings.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPSender builds the production SMTP sender.
//
// The client is created once and reused; go-mail handles connection
// lifecycle per send.
func NewSMTPSender(opts Options, logger *slog.Logger) (*SMTPSender, error) {
	client, err := gomail.NewClient(opts.Host,
		gomail.WithPort(opts.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(opts.Username),
		gomail.WithPassword(opts.Password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: failed to create SMTP client: %w", err)
	}

	return &SMTPSender{
		client: client,
		from:   opts.From,
		logger: logger,
	}, nil
}

// Send delivers a single HTML email.
func (sender *SMTPSender) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	message := gomail.NewMsg()

	if err := message.From(sender.from); err != nil {
		return fmt.Errorf("mail: invalid from address: %w", err)
	}
	if err := message.To(toAddress); err != nil {
		return fmt.Errorf("mail: invalid recipient address: %w", err)
	}

	message.Subject(subject)
	message.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := sender.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("mail: delivery failed: %w", err)
	}

	sender.logger.Info("mail_sent",
		slog.String("to", toAddress),
		slog.String("subject", subject),
	)

	return nil
}
