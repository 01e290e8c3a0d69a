package dispatch

import (
	"time"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
)

// Outcome is the terminal result of one dispatch attempt, as seen by the
// guest state reconciler.
type Outcome struct {
	Channel   outbox.Channel
	Sent      bool
	MessageID string
	Reason    string
	At        time.Time
}

// ReconcilePatch computes the guest field updates for a dispatch outcome.
// It is a pure function; the resulting patch is merge-applied against the
// freshest guest row, so unrelated fields and concurrent updates from other
// channels' dispatchers survive.
func ReconcilePatch(o Outcome) guest.ChannelPatch {
	var patch guest.ChannelPatch
	at := o.At
	if at.IsZero() {
		at = time.Now()
	}

	switch o.Channel {
	case outbox.ChannelEmail:
		if o.Sent {
			patch.InviteSentEmail = boolPtr(true)
			patch.InviteSent = boolPtr(true)
		}
	case outbox.ChannelWhatsApp:
		if o.Sent {
			status := guest.WhatsAppSent
			patch.InviteWhatsAppStatus = &status
			patch.InviteWhatsAppSentAt = &at
			patch.InviteWhatsAppMessageID = &o.MessageID
			patch.ClearWhatsAppLastError = true
			patch.InviteSent = boolPtr(true)
		} else {
			status := guest.WhatsAppFailed
			reason := o.Reason
			patch.InviteWhatsAppStatus = &status
			patch.InviteWhatsAppFailedAt = &at
			patch.InviteWhatsAppLastError = &reason
		}
	case outbox.ChannelSMS:
		// No per-channel guest fields for SMS; only the combined flag moves.
		if o.Sent {
			patch.InviteSent = boolPtr(true)
		}
	}
	return patch
}

// SendingPatch marks the guest's WhatsApp invite as in flight. Best-effort:
// callers never abort a send when this write fails.
func SendingPatch() guest.ChannelPatch {
	status := guest.WhatsAppSending
	return guest.ChannelPatch{InviteWhatsAppStatus: &status}
}

func boolPtr(b bool) *bool {
	return &b
}
