package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/tastebud/apiserver/config"
)

// SMTPMailer sends reset mails directly over SMTP.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewSMTPMailer constructs an SMTP mailer from config.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("mail from address is required")
	}

	var auth smtp.Auth
	if cfg.SMTP.Username != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTP.Host, cfg.SMTP.Port),
		from: cfg.From,
		auth: auth,
	}, nil
}

// SendPasswordReset delivers the reset link to the given address.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := buildResetMessage(m.from, to, name, link)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, body); err != nil {
		return fmt.Errorf("sending reset mail: %w", err)
	}
	return nil
}

func buildResetMessage(from, to, name, link string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Reset your Tastebud password\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	b.WriteString("We received a request to reset your password. Open the link below to choose a new one. The link expires in one hour.\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", link)
	b.WriteString("If you did not request this, you can ignore this email.\r\n")
	return []byte(b.String())
}
