// Package notify sends the client start reminders, on demand and on a
// cron schedule, and records every sent message.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"project-tracker/internal/config"
)

// EmailSender delivers one plain-text message.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers through a relay with optional PLAIN auth.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	msg := buildMessage(s.cfg.From, to, subject, body)

	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMessage renders a plain-text message. The subject is RFC 2047
// encoded whenever it holds anything but printable ASCII, so it always
// stays on its header line.
func buildMessage(from, to, subject, body string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n"))
}

// LogSender writes messages to the log instead of sending them. Used when
// SMTP_HOST is unset.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info("email not sent: smtp disabled",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body))
	return nil
}

// NewSender picks SMTP when configured, the log otherwise.
func NewSender(cfg config.SMTPConfig, log *slog.Logger) EmailSender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	return NewLogSender(log)
}
