package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/providercfg"
	"gatepass/internal/provider"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

type fakeOutboxRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*outbox.Record
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{records: make(map[uuid.UUID]*outbox.Record)}
}

func (r *fakeOutboxRepo) put(rec outbox.Record) outbox.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Status == "" {
		rec.Status = outbox.StatusQueued
	}
	copied := rec
	r.records[rec.ID] = &copied
	return rec
}

func (r *fakeOutboxRepo) get(id uuid.UUID) outbox.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.records[id]
}

func (r *fakeOutboxRepo) Create(_ context.Context, rec *outbox.Record) error {
	*rec = r.put(*rec)
	return nil
}

func (r *fakeOutboxRepo) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return outbox.Record{}, gatepass_errors.ErrNotFound
	}
	return *rec, nil
}

func (r *fakeOutboxRepo) GetQueued(_ context.Context, limit int) ([]outbox.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []outbox.Record
	for _, rec := range r.records {
		if rec.Status == outbox.StatusQueued {
			out = append(out, *rec)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeOutboxRepo) ClaimQueued(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != outbox.StatusQueued {
		return false, nil
	}
	rec.Status = outbox.StatusProcessing
	now := time.Now()
	rec.ClaimedAt = &now
	return true, nil
}

func (r *fakeOutboxRepo) MarkSent(_ context.Context, id uuid.UUID) error {
	return r.finish(id, outbox.StatusSent, "")
}

func (r *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMsg string) error {
	return r.finish(id, outbox.StatusFailed, errorMsg)
}

func (r *fakeOutboxRepo) MarkSkipped(_ context.Context, id uuid.UUID) error {
	return r.finish(id, outbox.StatusSkipped, "")
}

func (r *fakeOutboxRepo) finish(id uuid.UUID, status outbox.Status, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return gatepass_errors.ErrNotFound
	}
	if rec.Status != outbox.StatusProcessing {
		return gatepass_errors.ErrNotClaimed
	}
	rec.Status = status
	rec.Error = errorMsg
	if status == outbox.StatusFailed {
		rec.Retries++
	}
	now := time.Now()
	rec.ProcessedAt = &now
	return nil
}

type fakeGuestRepo struct {
	mu     sync.Mutex
	guests map[uuid.UUID]*guest.Guest
}

func newFakeGuestRepo() *fakeGuestRepo {
	return &fakeGuestRepo{guests: make(map[uuid.UUID]*guest.Guest)}
}

func (r *fakeGuestRepo) put(g guest.Guest) guest.Guest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.InviteWhatsAppStatus == "" {
		g.InviteWhatsAppStatus = guest.WhatsAppNone
	}
	copied := g
	r.guests[g.ID] = &copied
	return g
}

func (r *fakeGuestRepo) Create(_ context.Context, g *guest.Guest) error {
	*g = r.put(*g)
	return nil
}

func (r *fakeGuestRepo) GetByID(_ context.Context, id uuid.UUID) (guest.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guests[id]
	if !ok {
		return guest.Guest{}, gatepass_errors.ErrNotFound
	}
	return *g, nil
}

func (r *fakeGuestRepo) Update(_ context.Context, g guest.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guests[g.ID]; !ok {
		return gatepass_errors.ErrNotFound
	}
	copied := g
	r.guests[g.ID] = &copied
	return nil
}

func (r *fakeGuestRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guests[id]; !ok {
		return gatepass_errors.ErrNotFound
	}
	delete(r.guests, id)
	return nil
}

func (r *fakeGuestRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]guest.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []guest.Guest
	for _, g := range r.guests {
		if g.EventID == eventID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGuestRepo) ApplyChannelPatch(_ context.Context, id uuid.UUID, patch guest.ChannelPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guests[id]
	if !ok {
		return gatepass_errors.ErrNotFound
	}
	if patch.InviteSent != nil {
		g.InviteSent = *patch.InviteSent
	}
	if patch.InviteSentEmail != nil {
		g.InviteSentEmail = *patch.InviteSentEmail
	}
	if patch.InviteWhatsAppStatus != nil {
		g.InviteWhatsAppStatus = *patch.InviteWhatsAppStatus
	}
	if patch.InviteWhatsAppSentAt != nil {
		g.InviteWhatsAppSentAt = patch.InviteWhatsAppSentAt
	}
	if patch.InviteWhatsAppFailedAt != nil {
		g.InviteWhatsAppFailedAt = patch.InviteWhatsAppFailedAt
	}
	if patch.InviteWhatsAppLastError != nil {
		g.InviteWhatsAppLastError = patch.InviteWhatsAppLastError
	}
	if patch.InviteWhatsAppMessageID != nil {
		g.InviteWhatsAppMessageID = *patch.InviteWhatsAppMessageID
	}
	if patch.ClearWhatsAppLastError {
		g.InviteWhatsAppLastError = nil
	}
	return nil
}

func (r *fakeGuestRepo) SetCheckedIn(_ context.Context, id uuid.UUID, at time.Time, verifiedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guests[id]
	if !ok {
		return gatepass_errors.ErrNotFound
	}
	g.CheckedIn = true
	g.CheckedInAt = &at
	g.VerifiedBy = verifiedBy
	return nil
}

func (r *fakeGuestRepo) MarkIDCardPrinted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guests[id]
	if !ok {
		return gatepass_errors.ErrNotFound
	}
	g.IDCardPrinted = true
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []outbox.AuditEntry
}

func (r *fakeAuditRepo) Append(_ context.Context, e *outbox.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, filter repository.AuditFilter) ([]outbox.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []outbox.AuditEntry
	for _, e := range r.entries {
		if filter.Channel != "" && e.Channel != filter.Channel {
			continue
		}
		if filter.Outcome != "" && e.Outcome != filter.Outcome {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeAuditRepo) byOutcome(outcome outbox.AuditOutcome) []outbox.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []outbox.AuditEntry
	for _, e := range r.entries {
		if e.Outcome == outcome {
			out = append(out, e)
		}
	}
	return out
}

type fakeConfigRepo struct {
	mu       sync.Mutex
	settings map[string]providercfg.Settings
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{settings: make(map[string]providercfg.Settings)}
}

func configKey(userID uuid.UUID, channel outbox.Channel) string {
	return userID.String() + "/" + string(channel)
}

func (r *fakeConfigRepo) Get(_ context.Context, userID uuid.UUID, channel outbox.Channel) (providercfg.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[configKey(userID, channel)]
	if !ok {
		return providercfg.Settings{}, gatepass_errors.ErrNotFound
	}
	return s, nil
}

func (r *fakeConfigRepo) Save(_ context.Context, s providercfg.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[configKey(s.UserID, s.Channel)] = s
	return nil
}

type fakeEmailSender struct {
	mu    sync.Mutex
	sent  []provider.EmailMessage
	err   error
	msgID string
}

func (s *fakeEmailSender) Send(_ context.Context, _ *providercfg.EmailSettings, msg provider.EmailMessage) (provider.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return provider.Result{}, s.err
	}
	s.sent = append(s.sent, msg)
	return provider.Result{MessageID: s.msgID, RawResponse: `{"ok":true}`}, nil
}

type fakeSMSSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *fakeSMSSender) Send(_ context.Context, _ *providercfg.SMSSettings, to, _ string) (provider.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return provider.Result{}, s.err
	}
	s.sent = append(s.sent, to)
	return provider.Result{MessageID: "sms-1"}, nil
}

type fakeWhatsAppSender struct {
	mu   sync.Mutex
	sent []provider.TemplateMessage
	err  error
}

func (s *fakeWhatsAppSender) SendTemplate(_ context.Context, _ *providercfg.WhatsAppSettings, _ string, tpl provider.TemplateMessage) (provider.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return provider.Result{}, s.err
	}
	s.sent = append(s.sent, tpl)
	return provider.Result{MessageID: "wamid.test"}, nil
}
