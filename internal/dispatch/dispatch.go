package dispatch

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/providercfg"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// Dispatcher drives one claimed outbox record to a terminal state.
// The caller must hold the claim (queued -> processing) before Dispatch.
type Dispatcher interface {
	Channel() outbox.Channel
	Dispatch(ctx context.Context, rec outbox.Record)
}

// Deps are the collaborators every channel dispatcher shares.
type Deps struct {
	Outbox repository.OutboxRepository
	Guests repository.GuestRepository
	Audit  repository.AuditLogRepository
	Config repository.ProviderConfigRepository
	Logger *logger.Logger
}

// Fixed reason strings for configuration failures. These are terminal and
// never retried automatically; a manual resend creates a fresh record.
const (
	ReasonNoEmailConfig    = "No email configuration available for user"
	ReasonNoSMSConfig      = "No SMS configuration available for user"
	ReasonNoWhatsAppConfig = "No WhatsApp configuration available for user"

	ReasonAlreadySent = "invite already sent"
)

// channelConfig resolves the owning user's settings for one channel.
// Missing, disabled or incomplete settings all collapse into
// ErrNoProviderConfig; unexpected lookup errors are logged before that.
func (d Deps) channelConfig(ctx context.Context, userID uuid.UUID, channel outbox.Channel) (providercfg.Settings, error) {
	cfg, err := d.Config.Get(ctx, userID, channel)
	if err != nil {
		if !errors.Is(err, gatepass_errors.ErrNotFound) {
			d.Logger.Errorf("%s config lookup failed for user %s: %v", channel, userID, err)
		}
		return providercfg.Settings{}, gatepass_errors.ErrNoProviderConfig
	}
	if !cfg.Enabled {
		return providercfg.Settings{}, gatepass_errors.ErrNoProviderConfig
	}
	return cfg, nil
}

func auditEntry(rec outbox.Record, outcome outbox.AuditOutcome) *outbox.AuditEntry {
	return &outbox.AuditEntry{
		RecordID:    rec.ID,
		Channel:     rec.Channel,
		Outcome:     outcome,
		Destination: rec.Destination,
		UserID:      rec.UserID,
		EventID:     rec.EventID,
		GuestID:     rec.GuestID,
	}
}

// markFailed writes the failed audit row and drives the record terminal.
// Audit/record write errors are logged, not escalated: the claim already
// guarantees no other worker touches this record.
func (d Deps) markFailed(ctx context.Context, rec outbox.Record, reason, rawResponse string) {
	entry := auditEntry(rec, outbox.OutcomeFailed)
	entry.Reason = reason
	entry.RawResponse = rawResponse
	if err := d.Audit.Append(ctx, entry); err != nil {
		d.Logger.Errorf("audit append failed for %s record %s: %v", rec.Channel, rec.ID, err)
	}
	if err := d.Outbox.MarkFailed(ctx, rec.ID, reason); err != nil {
		d.Logger.Errorf("mark failed errored for %s record %s: %v", rec.Channel, rec.ID, err)
	}
}

func (d Deps) markSent(ctx context.Context, rec outbox.Record, messageID, rawResponse string) {
	entry := auditEntry(rec, outbox.OutcomeSent)
	entry.MessageID = messageID
	entry.RawResponse = rawResponse
	if err := d.Audit.Append(ctx, entry); err != nil {
		d.Logger.Errorf("audit append failed for %s record %s: %v", rec.Channel, rec.ID, err)
	}
	if err := d.Outbox.MarkSent(ctx, rec.ID); err != nil {
		d.Logger.Errorf("mark sent errored for %s record %s: %v", rec.Channel, rec.ID, err)
	}
}

func (d Deps) markSkipped(ctx context.Context, rec outbox.Record, reason string) {
	entry := auditEntry(rec, outbox.OutcomeSkipped)
	entry.Reason = reason
	if err := d.Audit.Append(ctx, entry); err != nil {
		d.Logger.Errorf("audit append failed for %s record %s: %v", rec.Channel, rec.ID, err)
	}
	if err := d.Outbox.MarkSkipped(ctx, rec.ID); err != nil {
		d.Logger.Errorf("mark skipped errored for %s record %s: %v", rec.Channel, rec.ID, err)
	}
}

// patchGuest applies a reconciler patch best-effort. A failure to update the
// guest never aborts the record's own state machine.
func (d Deps) patchGuest(ctx context.Context, rec outbox.Record, patch guest.ChannelPatch) {
	if !rec.GuestID.Valid {
		return
	}
	if err := d.Guests.ApplyChannelPatch(ctx, rec.GuestID.UUID, patch); err != nil {
		d.Logger.Warnf("guest status update failed for %s record %s: %v", rec.Channel, rec.ID, err)
	}
}
