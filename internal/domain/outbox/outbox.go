package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Channel is one notification medium with its own provider abstraction.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Status represents the processing state of an outbox record.
// queued -> processing -> {sent | failed | skipped}; terminal states are final.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// IsTerminal reports whether no further automatic transition occurs.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusSkipped
}

// Record stores one outbound notification request waiting for delivery.
// Destination holds the normalized address; RawDestination keeps what the
// caller originally supplied for the audit trail.
type Record struct {
	ID             uuid.UUID
	Channel        Channel
	Destination    string
	RawDestination string

	// Email payload. FromEmail overrides the provider config's sender
	// address when set.
	FromEmail string
	Subject   string
	BodyHTML  string
	QRRef     string
	FlyerRef  string

	// SMS payload
	Body string

	// WhatsApp payload: template message, not free text
	TemplateName   string
	TemplateLang   string
	TemplateParams []string

	UserID  uuid.UUID
	EventID uuid.NullUUID
	GuestID uuid.NullUUID

	// Manual marks a user-triggered resend, which bypasses the
	// already-sent idempotency check.
	Manual bool

	Status      Status
	Error       string
	Retries     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
}

func (Record) TableName() string {
	return "outbox_records"
}

// AuditOutcome is the result class recorded in the append-only audit log.
type AuditOutcome string

const (
	OutcomeQueued  AuditOutcome = "queued"
	OutcomeSent    AuditOutcome = "sent"
	OutcomeFailed  AuditOutcome = "failed"
	OutcomeSkipped AuditOutcome = "skipped"
)

// AuditEntry is one append-only audit row. Rows are never updated.
// RawResponse captures the provider response verbatim for debuggability.
type AuditEntry struct {
	ID          uuid.UUID
	RecordID    uuid.UUID
	Channel     Channel
	Outcome     AuditOutcome
	Destination string
	UserID      uuid.UUID
	EventID     uuid.NullUUID
	GuestID     uuid.NullUUID
	MessageID   string
	Reason      string
	RawResponse string
	CreatedAt   time.Time
}
