package guest

import (
	"time"

	"github.com/google/uuid"
)

// WhatsAppStatus tracks invite delivery over WhatsApp.
// Transitions are monotonic: none -> queued -> sending -> {sent | failed}.
type WhatsAppStatus string

const (
	WhatsAppNone    WhatsAppStatus = "none"
	WhatsAppQueued  WhatsAppStatus = "queued"
	WhatsAppSending WhatsAppStatus = "sending"
	WhatsAppSent    WhatsAppStatus = "sent"
	WhatsAppFailed  WhatsAppStatus = "failed"
)

// Guest represents the guests table. A guest belongs to exactly one event.
type Guest struct {
	ID      uuid.UUID
	EventID uuid.UUID

	Name  string
	Email string
	Phone string

	ExtraAdults    int
	ExtraChildren  int
	TotalAttendees int

	// Per-channel invite state
	InviteSent              bool // legacy combined flag: any channel succeeded
	InviteSentEmail         bool
	InviteWhatsAppStatus    WhatsAppStatus
	InviteWhatsAppSentAt    *time.Time
	InviteWhatsAppFailedAt  *time.Time
	InviteWhatsAppLastError *string
	InviteWhatsAppMessageID string

	CheckedIn   bool
	CheckedInAt *time.Time
	VerifiedBy  string

	IDCardPrinted bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Guest) TableName() string {
	return "guests"
}

// AttendeeCount returns 1 + extra adults + extra children, clamped so a
// guest always counts for at least one attendee.
func (g *Guest) AttendeeCount() int {
	adults := g.ExtraAdults
	if adults < 0 {
		adults = 0
	}
	children := g.ExtraChildren
	if children < 0 {
		children = 0
	}
	n := 1 + adults + children
	if n < 1 {
		return 1
	}
	return n
}

// ChannelPatch is a merge-style update of invite state fields. Only non-nil
// fields are written so concurrent dispatchers on other channels are not
// clobbered.
type ChannelPatch struct {
	InviteSent              *bool
	InviteSentEmail         *bool
	InviteWhatsAppStatus    *WhatsAppStatus
	InviteWhatsAppSentAt    *time.Time
	InviteWhatsAppFailedAt  *time.Time
	InviteWhatsAppLastError *string
	InviteWhatsAppMessageID *string
	ClearWhatsAppLastError  bool
}
