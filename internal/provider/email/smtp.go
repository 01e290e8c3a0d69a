package email

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"gatepass/internal/domain/providercfg"
	"gatepass/internal/provider"
)

// SMTPSender delivers email over plain SMTP using the per-user host and
// credentials from the provider settings.
type SMTPSender struct{}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

func (s *SMTPSender) Send(ctx context.Context, cfg *providercfg.EmailSettings, msg provider.EmailMessage) (provider.Result, error) {
	m := gomail.NewMessage()
	switch {
	case msg.From != "":
		// Caller-supplied sender; the configured display name does not
		// necessarily match it, so send the bare address.
		m.SetHeader("From", msg.From)
	case cfg.FromName != "":
		m.SetAddressHeader("From", cfg.FromEmail, cfg.FromName)
	default:
		m.SetHeader("From", cfg.FromEmail)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	for _, att := range msg.Attachments {
		data := att.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	d := gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPassword)

	// gomail has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return provider.Result{}, err
	}
	if err := d.DialAndSend(m); err != nil {
		return provider.Result{}, fmt.Errorf("smtp send failed: %w", err)
	}
	return provider.Result{
		RawResponse: fmt.Sprintf("accepted by %s:%d", cfg.SMTPHost, port),
	}, nil
}
