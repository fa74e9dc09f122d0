// Package mail delivers password-reset links to users.
package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// SMTPDispatcher sends reset links through a plain SMTP relay.
type SMTPDispatcher struct {
	// Addr is the relay address in host:port form.
	Addr string
	// From is the sender address stamped on outgoing mail.
	From string
	// Auth is optional; nil sends without authentication.
	Auth smtp.Auth
}

// Send delivers the reset link to the given address. The context is
// accepted for interface symmetry; net/smtp has no cancellation hook.
func (d *SMTPDispatcher) Send(_ context.Context, to, resetURL string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Password reset\r\n\r\n"+
		"A password reset was requested for your account.\r\n"+
		"Follow this link within one hour to choose a new password:\r\n\r\n%s\r\n\r\n"+
		"If you did not request this, you can ignore this message.\r\n",
		d.From, to, resetURL)

	if err := smtp.SendMail(d.Addr, d.Auth, d.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogDispatcher writes the reset link to the log instead of sending mail.
// Used in development when no relay is configured.
type LogDispatcher struct {
	Logger *zap.Logger
}

// Send logs the link and always succeeds.
func (d *LogDispatcher) Send(_ context.Context, to, resetURL string) error {
	d.Logger.Info("password reset link (mail disabled)",
		zap.String("to", to),
		zap.String("url", resetURL),
	)
	return nil
}
