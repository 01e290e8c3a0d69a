package dispatch

import (
	"context"
	"time"

	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/providercfg"
	"gatepass/internal/provider"
	"gatepass/internal/storage"
)

// EmailDispatcher delivers claimed email outbox records through the owning
// user's configured provider (SMTP or HTTP API).
type EmailDispatcher struct {
	deps        Deps
	smtp        provider.EmailSender
	api         provider.EmailSender
	attachments *storage.AttachmentFetcher
}

func NewEmailDispatcher(deps Deps, smtp, api provider.EmailSender, attachments *storage.AttachmentFetcher) *EmailDispatcher {
	return &EmailDispatcher{deps: deps, smtp: smtp, api: api, attachments: attachments}
}

func (d *EmailDispatcher) Channel() outbox.Channel {
	return outbox.ChannelEmail
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, rec outbox.Record) {
	// Idempotency pre-check: a guest that already received an email invite
	// is skipped unless this is an explicit manual resend.
	if rec.GuestID.Valid && !rec.Manual {
		g, err := d.deps.Guests.GetByID(ctx, rec.GuestID.UUID)
		if err == nil && (g.InviteSentEmail || g.InviteSent) {
			d.deps.markSkipped(ctx, rec, ReasonAlreadySent)
			return
		}
	}

	cfg, err := d.deps.channelConfig(ctx, rec.UserID, outbox.ChannelEmail)
	if err != nil || !cfg.Email.Usable() {
		d.deps.markFailed(ctx, rec, ReasonNoEmailConfig, "")
		return
	}

	msg := provider.EmailMessage{
		From:        rec.FromEmail,
		To:          rec.Destination,
		Subject:     rec.Subject,
		HTML:        rec.BodyHTML,
		Attachments: d.fetchAttachments(ctx, rec),
	}

	sender := d.smtp
	if cfg.Email.Provider == providercfg.EmailProviderHTTP {
		sender = d.api
	}

	res, err := sender.Send(ctx, cfg.Email, msg)
	if err != nil {
		d.deps.markFailed(ctx, rec, err.Error(), res.RawResponse)
		d.deps.patchGuest(ctx, rec, ReconcilePatch(Outcome{Channel: outbox.ChannelEmail, Reason: err.Error()}))
		return
	}

	d.deps.markSent(ctx, rec, res.MessageID, res.RawResponse)
	d.deps.patchGuest(ctx, rec, ReconcilePatch(Outcome{
		Channel:   outbox.ChannelEmail,
		Sent:      true,
		MessageID: res.MessageID,
		At:        time.Now(),
	}))
}

// fetchAttachments resolves at most two attachments: the QR ticket and the
// event flyer. A fetch failure is logged and swallowed; the email still goes
// out without that attachment.
func (d *EmailDispatcher) fetchAttachments(ctx context.Context, rec outbox.Record) []provider.Attachment {
	if d.attachments == nil {
		return nil
	}
	refs := []struct {
		name string
		ref  string
	}{
		{"ticket-qr.png", rec.QRRef},
		{"event-flyer", rec.FlyerRef},
	}

	var out []provider.Attachment
	for _, r := range refs {
		if r.ref == "" {
			continue
		}
		data, contentType, err := d.attachments.Fetch(ctx, r.ref)
		if err != nil {
			d.deps.Logger.Warnf("attachment fetch failed for record %s (%s): %v", rec.ID, r.name, err)
			continue
		}
		out = append(out, provider.Attachment{
			Filename:    r.name,
			ContentType: contentType,
			Data:        data,
		})
	}
	return out
}
