package providercfg

import (
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/outbox"
)

// Settings is the per-user, per-channel provider configuration. Exactly one
// of the channel variants is populated, keyed by Channel.
type Settings struct {
	UserID    uuid.UUID
	Channel   outbox.Channel
	Enabled   bool
	Email     *EmailSettings
	SMS       *SMSSettings
	WhatsApp  *WhatsAppSettings
	UpdatedAt time.Time
}

func (Settings) TableName() string {
	return "provider_settings"
}

// EmailProvider selects which email variant's fields are meaningful.
type EmailProvider string

const (
	EmailProviderSMTP EmailProvider = "smtp"
	EmailProviderHTTP EmailProvider = "http"
)

type EmailSettings struct {
	Provider  EmailProvider `json:"provider"`
	FromEmail string        `json:"from_email"`
	FromName  string        `json:"from_name"`

	// SMTP variant
	SMTPHost     string `json:"smtp_host,omitempty"`
	SMTPPort     int    `json:"smtp_port,omitempty"`
	SMTPUser     string `json:"smtp_user,omitempty"`
	SMTPPassword string `json:"smtp_password,omitempty"`

	// HTTP API variant
	APIBaseURL string `json:"api_base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
}

func (s *EmailSettings) Usable() bool {
	if s == nil || s.FromEmail == "" {
		return false
	}
	switch s.Provider {
	case EmailProviderSMTP:
		return s.SMTPHost != ""
	case EmailProviderHTTP:
		return s.APIBaseURL != "" && s.APIKey != ""
	}
	return false
}

type SMSSettings struct {
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"api_key"`
	SenderID   string `json:"sender_id,omitempty"`
}

func (s *SMSSettings) Usable() bool {
	return s != nil && s.APIBaseURL != "" && s.APIKey != ""
}

type WhatsAppSettings struct {
	APIBaseURL    string `json:"api_base_url"`
	AccessToken   string `json:"access_token"`
	PhoneNumberID string `json:"phone_number_id"`
	TemplateName  string `json:"template_name"`
	TemplateLang  string `json:"template_lang"`
}

func (s *WhatsAppSettings) Usable() bool {
	return s != nil && s.AccessToken != "" && s.PhoneNumberID != ""
}
