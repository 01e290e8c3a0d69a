package dispatch

import (
	"context"
	"time"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/provider"
)

// WhatsAppDispatcher delivers claimed WhatsApp outbox records as template
// messages through the owning user's Cloud API configuration.
type WhatsAppDispatcher struct {
	deps   Deps
	sender provider.WhatsAppSender
}

func NewWhatsAppDispatcher(deps Deps, sender provider.WhatsAppSender) *WhatsAppDispatcher {
	return &WhatsAppDispatcher{deps: deps, sender: sender}
}

func (d *WhatsAppDispatcher) Channel() outbox.Channel {
	return outbox.ChannelWhatsApp
}

func (d *WhatsAppDispatcher) Dispatch(ctx context.Context, rec outbox.Record) {
	// Idempotency pre-check against the freshest guest snapshot. Known
	// narrow race: another record for the same guest can pass this check
	// before our terminal write lands; accepted as a low-probability gap.
	if rec.GuestID.Valid && !rec.Manual {
		g, err := d.deps.Guests.GetByID(ctx, rec.GuestID.UUID)
		if err == nil && (g.InviteWhatsAppStatus == guest.WhatsAppSent || g.InviteSent) {
			d.deps.markSkipped(ctx, rec, ReasonAlreadySent)
			return
		}
	}
	d.deps.patchGuest(ctx, rec, SendingPatch())

	cfg, err := d.deps.channelConfig(ctx, rec.UserID, outbox.ChannelWhatsApp)
	if err != nil || !cfg.WhatsApp.Usable() {
		d.deps.markFailed(ctx, rec, ReasonNoWhatsAppConfig, "")
		d.deps.patchGuest(ctx, rec, ReconcilePatch(Outcome{
			Channel: outbox.ChannelWhatsApp,
			Reason:  ReasonNoWhatsAppConfig,
		}))
		return
	}

	tpl := provider.TemplateMessage{
		Name:       rec.TemplateName,
		Language:   rec.TemplateLang,
		Parameters: rec.TemplateParams,
	}
	if tpl.Name == "" {
		tpl.Name = cfg.WhatsApp.TemplateName
	}
	if tpl.Language == "" {
		tpl.Language = cfg.WhatsApp.TemplateLang
	}

	res, err := d.sender.SendTemplate(ctx, cfg.WhatsApp, rec.Destination, tpl)
	if err != nil {
		d.deps.markFailed(ctx, rec, err.Error(), res.RawResponse)
		d.deps.patchGuest(ctx, rec, ReconcilePatch(Outcome{
			Channel: outbox.ChannelWhatsApp,
			Reason:  err.Error(),
		}))
		return
	}

	d.deps.markSent(ctx, rec, res.MessageID, res.RawResponse)
	d.deps.patchGuest(ctx, rec, ReconcilePatch(Outcome{
		Channel:   outbox.ChannelWhatsApp,
		Sent:      true,
		MessageID: res.MessageID,
		At:        time.Now(),
	}))
}
