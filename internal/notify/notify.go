// Package notify sends customer-facing notifications for checkout and
// loan events.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender delivers a notification message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// SMTPSender delivers messages over plain SMTP with optional auth.
type SMTPSender struct {
	addr   string // host:port
	host   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

// SMTPOptions configures an SMTPSender.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Logger   *slog.Logger
}

// NewSMTPSender creates a sender delivering through the given relay.
func NewSMTPSender(opts SMTPOptions) *SMTPSender {
	var auth smtp.Auth
	if opts.Username != "" {
		auth = smtp.PlainAuth("", opts.Username, opts.Password, opts.Host)
	}
	return &SMTPSender{
		addr:   fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		host:   opts.Host,
		from:   opts.From,
		auth:   auth,
		logger: opts.Logger,
	}
}

// Send delivers a single message. The context is consulted before dialing;
// net/smtp itself does not take a context.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload := buildPayload(s.from, msg)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	if s.logger != nil {
		s.logger.Info("notification sent", "to", msg.To, "subject", msg.Subject)
	}
	return nil
}

// buildPayload assembles RFC 5322 headers plus body. Each message gets a
// unique Message-ID so relays and clients can deduplicate.
func buildPayload(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@bookhaven>\r\n", uuid.NewString())
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogSender writes notifications to the log instead of delivering them.
// Used in development and whenever no SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message and succeeds.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("notification (log only)",
			"to", msg.To,
			"subject", msg.Subject,
			"body", msg.Body,
		)
	}
	return nil
}
