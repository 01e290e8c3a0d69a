package dispatch

import (
	"context"
	"strings"
	"time"

	"gatepass/internal/domain/outbox"
	"gatepass/internal/provider"
	gatepass_errors "gatepass/pkg/errors"
)

// SMSDispatcher delivers claimed SMS outbox records through the owning
// user's configured gateway.
type SMSDispatcher struct {
	deps   Deps
	sender provider.SMSSender
}

func NewSMSDispatcher(deps Deps, sender provider.SMSSender) *SMSDispatcher {
	return &SMSDispatcher{deps: deps, sender: sender}
}

func (d *SMSDispatcher) Channel() outbox.Channel {
	return outbox.ChannelSMS
}

func (d *SMSDispatcher) Dispatch(ctx context.Context, rec outbox.Record) {
	// Idempotency pre-check. The guest has no SMS-specific status column,
	// so only the combined invite flag gates a repeat send.
	if rec.GuestID.Valid && !rec.Manual {
		g, err := d.deps.Guests.GetByID(ctx, rec.GuestID.UUID)
		if err == nil && g.InviteSent {
			d.deps.markSkipped(ctx, rec, ReasonAlreadySent)
			return
		}
	}

	body := strings.TrimSpace(rec.Body)
	if body == "" {
		d.deps.markFailed(ctx, rec, gatepass_errors.MsgEmptyMessageBody, "")
		return
	}

	cfg, err := d.deps.channelConfig(ctx, rec.UserID, outbox.ChannelSMS)
	if err != nil || !cfg.SMS.Usable() {
		d.deps.markFailed(ctx, rec, ReasonNoSMSConfig, "")
		return
	}

	res, err := d.sender.Send(ctx, cfg.SMS, rec.Destination, body)
	if err != nil {
		d.deps.markFailed(ctx, rec, err.Error(), res.RawResponse)
		return
	}

	d.deps.markSent(ctx, rec, res.MessageID, res.RawResponse)
	d.deps.patchGuest(ctx, rec, ReconcilePatch(Outcome{
		Channel:   outbox.ChannelSMS,
		Sent:      true,
		MessageID: res.MessageID,
		At:        time.Now(),
	}))
}
