package provider

import (
	"context"

	"gatepass/internal/domain/providercfg"
)

// Result is the outcome of one provider call. RawResponse carries the
// provider's response verbatim for the audit log.
type Result struct {
	MessageID   string
	RawResponse string
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage is one outbound email. From overrides the configured sender
// address when non-empty.
type EmailMessage struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// TemplateMessage is a structured WhatsApp template send: template name,
// language code and ordered text parameters. Free text is not supported.
type TemplateMessage struct {
	Name       string
	Language   string
	Parameters []string
}

type EmailSender interface {
	Send(ctx context.Context, cfg *providercfg.EmailSettings, msg EmailMessage) (Result, error)
}

type SMSSender interface {
	Send(ctx context.Context, cfg *providercfg.SMSSettings, to, body string) (Result, error)
}

type WhatsAppSender interface {
	SendTemplate(ctx context.Context, cfg *providercfg.WhatsAppSettings, to string, tpl TemplateMessage) (Result, error)
}
