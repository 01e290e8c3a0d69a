package httpdto

type EmailSettingsDTO struct {
	Provider   string `json:"provider"`
	FromEmail  string `json:"from_email"`
	FromName   string `json:"from_name"`
	SMTPHost   string `json:"smtp_host,omitempty"`
	SMTPPort   int    `json:"smtp_port,omitempty"`
	SMTPUser   string `json:"smtp_user,omitempty"`
	SMTPPass   string `json:"smtp_pass,omitempty"`
	APIBaseURL string `json:"api_base_url,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
}

type SMSSettingsDTO struct {
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"api_key"`
	SenderID   string `json:"sender_id"`
}

type WhatsAppSettingsDTO struct {
	AccessToken   string `json:"access_token"`
	PhoneNumberID string `json:"phone_number_id"`
	TemplateName  string `json:"template_name"`
	TemplateLang  string `json:"template_lang"`
}

type SaveProviderConfigRequest struct {
	Channel  string               `json:"channel"`
	Enabled  bool                 `json:"enabled"`
	Email    *EmailSettingsDTO    `json:"email,omitempty"`
	SMS      *SMSSettingsDTO      `json:"sms,omitempty"`
	WhatsApp *WhatsAppSettingsDTO `json:"whatsapp,omitempty"`
}
