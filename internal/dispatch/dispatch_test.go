package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/providercfg"
	gatepass_errors "gatepass/pkg/errors"
)

type fixture struct {
	outbox *fakeOutboxRepo
	guests *fakeGuestRepo
	audit  *fakeAuditRepo
	config *fakeConfigRepo
	deps   Deps
}

func newFixture() *fixture {
	f := &fixture{
		outbox: newFakeOutboxRepo(),
		guests: newFakeGuestRepo(),
		audit:  &fakeAuditRepo{},
		config: newFakeConfigRepo(),
	}
	f.deps = Deps{
		Outbox: f.outbox,
		Guests: f.guests,
		Audit:  f.audit,
		Config: f.config,
		Logger: testLogger(),
	}
	return f
}

func (f *fixture) enableWhatsApp(userID uuid.UUID) {
	_ = f.config.Save(context.Background(), providercfg.Settings{
		UserID:  userID,
		Channel: outbox.ChannelWhatsApp,
		Enabled: true,
		WhatsApp: &providercfg.WhatsAppSettings{
			AccessToken:   "token",
			PhoneNumberID: "12345",
			TemplateName:  "event_invite",
			TemplateLang:  "en",
		},
	})
}

func (f *fixture) enableSMS(userID uuid.UUID) {
	_ = f.config.Save(context.Background(), providercfg.Settings{
		UserID:  userID,
		Channel: outbox.ChannelSMS,
		Enabled: true,
		SMS: &providercfg.SMSSettings{
			APIBaseURL: "https://sms.example.com",
			APIKey:     "key",
		},
	})
}

func (f *fixture) enableSMTP(userID uuid.UUID) {
	_ = f.config.Save(context.Background(), providercfg.Settings{
		UserID:  userID,
		Channel: outbox.ChannelEmail,
		Enabled: true,
		Email: &providercfg.EmailSettings{
			Provider:  providercfg.EmailProviderSMTP,
			FromEmail: "host@example.com",
			SMTPHost:  "smtp.example.com",
		},
	})
}

func TestClaimQueuedExactlyOneWinner(t *testing.T) {
	f := newFixture()
	rec := f.outbox.put(outbox.Record{Channel: outbox.ChannelSMS, Destination: "+919876543210"})

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
			assert.NoError(t, err)
			wins <- ok
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, outbox.StatusProcessing, f.outbox.get(rec.ID).Status)
}

func TestWhatsAppDispatchNoConfig(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	g := f.guests.put(guest.Guest{EventID: uuid.New(), Name: "Asha", Phone: "+919876543210"})

	rec := f.outbox.put(outbox.Record{
		Channel:        outbox.ChannelWhatsApp,
		Destination:    "+919876543210",
		TemplateParams: []string{"Asha", "Launch Party", "T-1"},
		UserID:         userID,
		GuestID:        uuid.NullUUID{UUID: g.ID, Valid: true},
	})
	claimed, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	sender := &fakeWhatsAppSender{}
	d := NewWhatsAppDispatcher(f.deps, sender)
	d.Dispatch(context.Background(), f.outbox.get(rec.ID))

	got := f.outbox.get(rec.ID)
	assert.Equal(t, outbox.StatusFailed, got.Status)
	assert.Equal(t, ReasonNoWhatsAppConfig, got.Error)
	assert.Equal(t, 1, got.Retries)
	assert.Empty(t, sender.sent)

	failed := f.audit.byOutcome(outbox.OutcomeFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, ReasonNoWhatsAppConfig, failed[0].Reason)

	updated, err := f.guests.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, guest.WhatsAppFailed, updated.InviteWhatsAppStatus)
	require.NotNil(t, updated.InviteWhatsAppLastError)
	assert.Equal(t, ReasonNoWhatsAppConfig, *updated.InviteWhatsAppLastError)
	assert.NotNil(t, updated.InviteWhatsAppFailedAt)
	assert.False(t, updated.InviteSent)
}

func TestWhatsAppDispatchSuccess(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableWhatsApp(userID)
	g := f.guests.put(guest.Guest{EventID: uuid.New(), Name: "Asha", Phone: "+919876543210"})

	rec := f.outbox.put(outbox.Record{
		Channel:        outbox.ChannelWhatsApp,
		Destination:    "+919876543210",
		TemplateParams: []string{"Asha", "Launch Party", "T-1"},
		UserID:         userID,
		GuestID:        uuid.NullUUID{UUID: g.ID, Valid: true},
	})
	claimed, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	sender := &fakeWhatsAppSender{}
	NewWhatsAppDispatcher(f.deps, sender).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSent, f.outbox.get(rec.ID).Status)
	require.Len(t, sender.sent, 1)
	// Template name and language fall back to the user's configuration.
	assert.Equal(t, "event_invite", sender.sent[0].Name)
	assert.Equal(t, "en", sender.sent[0].Language)
	assert.Equal(t, []string{"Asha", "Launch Party", "T-1"}, sender.sent[0].Parameters)

	updated, err := f.guests.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, guest.WhatsAppSent, updated.InviteWhatsAppStatus)
	assert.Equal(t, "wamid.test", updated.InviteWhatsAppMessageID)
	assert.NotNil(t, updated.InviteWhatsAppSentAt)
	assert.Nil(t, updated.InviteWhatsAppLastError)
	assert.True(t, updated.InviteSent)
	require.Len(t, f.audit.byOutcome(outbox.OutcomeSent), 1)
}

func TestWhatsAppDispatchSkipsAlreadySentGuest(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableWhatsApp(userID)
	g := f.guests.put(guest.Guest{
		EventID:              uuid.New(),
		Name:                 "Asha",
		InviteWhatsAppStatus: guest.WhatsAppSent,
		InviteSent:           true,
	})

	rec := f.outbox.put(outbox.Record{
		Channel: outbox.ChannelWhatsApp,
		UserID:  userID,
		GuestID: uuid.NullUUID{UUID: g.ID, Valid: true},
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	sender := &fakeWhatsAppSender{}
	NewWhatsAppDispatcher(f.deps, sender).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSkipped, f.outbox.get(rec.ID).Status)
	assert.Empty(t, sender.sent)
	skipped := f.audit.byOutcome(outbox.OutcomeSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, ReasonAlreadySent, skipped[0].Reason)
}

func TestWhatsAppManualResendBypassesIdempotency(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableWhatsApp(userID)
	g := f.guests.put(guest.Guest{
		EventID:              uuid.New(),
		InviteWhatsAppStatus: guest.WhatsAppSent,
		InviteSent:           true,
	})

	rec := f.outbox.put(outbox.Record{
		Channel: outbox.ChannelWhatsApp,
		UserID:  userID,
		GuestID: uuid.NullUUID{UUID: g.ID, Valid: true},
		Manual:  true,
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	sender := &fakeWhatsAppSender{}
	NewWhatsAppDispatcher(f.deps, sender).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSent, f.outbox.get(rec.ID).Status)
	assert.Len(t, sender.sent, 1)
}

func TestEmailDispatchSkipsAlreadySentGuest(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableSMTP(userID)
	g := f.guests.put(guest.Guest{EventID: uuid.New(), InviteSentEmail: true})

	rec := f.outbox.put(outbox.Record{
		Channel:     outbox.ChannelEmail,
		Destination: "asha@example.com",
		Subject:     "Invite",
		BodyHTML:    "<p>hi</p>",
		UserID:      userID,
		GuestID:     uuid.NullUUID{UUID: g.ID, Valid: true},
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	smtp := &fakeEmailSender{msgID: "m-1"}
	api := &fakeEmailSender{msgID: "m-2"}
	NewEmailDispatcher(f.deps, smtp, api, nil).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSkipped, f.outbox.get(rec.ID).Status)
	assert.Empty(t, smtp.sent)
	assert.Empty(t, api.sent)
}

func TestEmailDispatchSuccessMarksGuest(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableSMTP(userID)
	g := f.guests.put(guest.Guest{EventID: uuid.New()})

	rec := f.outbox.put(outbox.Record{
		Channel:     outbox.ChannelEmail,
		Destination: "asha@example.com",
		Subject:     "Invite",
		BodyHTML:    "<p>hi</p>",
		UserID:      userID,
		GuestID:     uuid.NullUUID{UUID: g.ID, Valid: true},
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	smtp := &fakeEmailSender{msgID: "m-1"}
	api := &fakeEmailSender{msgID: "m-2"}
	NewEmailDispatcher(f.deps, smtp, api, nil).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSent, f.outbox.get(rec.ID).Status)
	require.Len(t, smtp.sent, 1)
	assert.Empty(t, api.sent)

	updated, err := f.guests.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.True(t, updated.InviteSentEmail)
	assert.True(t, updated.InviteSent)
	// Email success never touches the WhatsApp column family.
	assert.Equal(t, guest.WhatsAppNone, updated.InviteWhatsAppStatus)
}

func TestSMSDispatchSkipsAlreadySentGuest(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableSMS(userID)
	g := f.guests.put(guest.Guest{EventID: uuid.New(), InviteSent: true})

	rec := f.outbox.put(outbox.Record{
		Channel:     outbox.ChannelSMS,
		Destination: "+919876543210",
		Body:        "Gates open at 6",
		UserID:      userID,
		GuestID:     uuid.NullUUID{UUID: g.ID, Valid: true},
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	sender := &fakeSMSSender{}
	NewSMSDispatcher(f.deps, sender).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSkipped, f.outbox.get(rec.ID).Status)
	assert.Empty(t, sender.sent)
	skipped := f.audit.byOutcome(outbox.OutcomeSkipped)
	require.Len(t, skipped, 1)
	assert.Equal(t, ReasonAlreadySent, skipped[0].Reason)
}

func TestSMSManualResendBypassesIdempotency(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableSMS(userID)
	g := f.guests.put(guest.Guest{EventID: uuid.New(), InviteSent: true})

	rec := f.outbox.put(outbox.Record{
		Channel:     outbox.ChannelSMS,
		Destination: "+919876543210",
		Body:        "Gates open at 6",
		UserID:      userID,
		GuestID:     uuid.NullUUID{UUID: g.ID, Valid: true},
		Manual:      true,
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	sender := &fakeSMSSender{}
	NewSMSDispatcher(f.deps, sender).Dispatch(context.Background(), f.outbox.get(rec.ID))

	assert.Equal(t, outbox.StatusSent, f.outbox.get(rec.ID).Status)
	assert.Equal(t, []string{"+919876543210"}, sender.sent)
}

func TestSMSDispatchEmptyBodyFailsTerminal(t *testing.T) {
	f := newFixture()
	rec := f.outbox.put(outbox.Record{
		Channel:     outbox.ChannelSMS,
		Destination: "+919876543210",
		Body:        "   ",
		UserID:      uuid.New(),
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	sender := &fakeSMSSender{}
	NewSMSDispatcher(f.deps, sender).Dispatch(context.Background(), f.outbox.get(rec.ID))

	got := f.outbox.get(rec.ID)
	assert.Equal(t, outbox.StatusFailed, got.Status)
	assert.Empty(t, sender.sent)
}

func TestEmailDispatchUsesSenderOverride(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableSMTP(userID)

	rec := f.outbox.put(outbox.Record{
		Channel:     outbox.ChannelEmail,
		Destination: "asha@example.com",
		FromEmail:   "box-office@example.com",
		Subject:     "Invite",
		BodyHTML:    "<p>hi</p>",
		UserID:      userID,
	})
	_, err := f.outbox.ClaimQueued(context.Background(), rec.ID)
	require.NoError(t, err)

	smtp := &fakeEmailSender{msgID: "m-1"}
	NewEmailDispatcher(f.deps, smtp, &fakeEmailSender{}, nil).Dispatch(context.Background(), f.outbox.get(rec.ID))

	require.Len(t, smtp.sent, 1)
	assert.Equal(t, "box-office@example.com", smtp.sent[0].From)
}

func TestChannelConfigMissingOrDisabled(t *testing.T) {
	f := newFixture()
	userID := uuid.New()

	_, err := f.deps.channelConfig(context.Background(), userID, outbox.ChannelEmail)
	assert.ErrorIs(t, err, gatepass_errors.ErrNoProviderConfig)

	_ = f.config.Save(context.Background(), providercfg.Settings{
		UserID:  userID,
		Channel: outbox.ChannelEmail,
		Enabled: false,
		Email:   &providercfg.EmailSettings{Provider: providercfg.EmailProviderSMTP, FromEmail: "host@example.com", SMTPHost: "smtp.example.com"},
	})
	_, err = f.deps.channelConfig(context.Background(), userID, outbox.ChannelEmail)
	assert.ErrorIs(t, err, gatepass_errors.ErrNoProviderConfig)
}

func TestWorkerProcessBatchDrivesRecordsTerminal(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	f.enableWhatsApp(userID)
	g := f.guests.put(guest.Guest{EventID: uuid.New()})

	rec := f.outbox.put(outbox.Record{
		Channel: outbox.ChannelWhatsApp,
		UserID:  userID,
		GuestID: uuid.NullUUID{UUID: g.ID, Valid: true},
	})

	w := NewWorker(f.outbox, testLogger(), 0, 0, NewWhatsAppDispatcher(f.deps, &fakeWhatsAppSender{}))
	w.processBatch()

	assert.True(t, f.outbox.get(rec.ID).Status.IsTerminal())
}

func TestWorkerIgnoresUnknownChannel(t *testing.T) {
	f := newFixture()
	rec := f.outbox.put(outbox.Record{Channel: outbox.ChannelSMS, UserID: uuid.New()})

	w := NewWorker(f.outbox, testLogger(), 0, 0)
	w.processBatch()

	// No dispatcher registered: record stays queued for a capable worker.
	assert.Equal(t, outbox.StatusQueued, f.outbox.get(rec.ID).Status)
}
