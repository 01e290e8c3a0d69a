package httpdto

type SendEmailRequest struct {
	To        string `json:"to"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`
	HTML      string `json:"html"`
	EventID   string `json:"event_id"`
	GuestID   string `json:"guest_id"`
	QRRef     string `json:"qr_ref"`
	FlyerRef  string `json:"flyer_ref"`
}

type SendSMSRequest struct {
	To      string `json:"to"`
	Body    string `json:"body"`
	EventID string `json:"event_id"`
	GuestID string `json:"guest_id"`
}

type SendWhatsAppRequest struct {
	To         string `json:"to"`
	GuestName  string `json:"guest_name"`
	EventName  string `json:"event_name"`
	TicketCode string `json:"ticket_code"`
	EventID    string `json:"event_id"`
	GuestID    string `json:"guest_id"`
}

type EnqueueResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	RecordID string `json:"record_id,omitempty"`
}

type SendInvitesRequest struct {
	Email    bool   `json:"email"`
	WhatsApp bool   `json:"whatsapp"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
}

type SendInvitesResponse struct {
	EmailQueued    int      `json:"email_queued"`
	WhatsAppQueued int      `json:"whatsapp_queued"`
	Rejected       []string `json:"rejected,omitempty"`
}
