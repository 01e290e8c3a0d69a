package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/event"
	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/printjob"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

type memOutboxRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*outbox.Record
}

func newMemOutboxRepo() *memOutboxRepo {
	return &memOutboxRepo{records: make(map[uuid.UUID]*outbox.Record)}
}

func (r *memOutboxRepo) Create(_ context.Context, rec *outbox.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = uuid.New()
	rec.Status = outbox.StatusQueued
	rec.CreatedAt = time.Now()
	copied := *rec
	r.records[rec.ID] = &copied
	return nil
}

func (r *memOutboxRepo) GetByID(_ context.Context, id uuid.UUID) (outbox.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return outbox.Record{}, gatepass_errors.ErrNotFound
	}
	return *rec, nil
}

func (r *memOutboxRepo) GetQueued(_ context.Context, limit int) ([]outbox.Record, error) {
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

func (r *memOutboxRepo) ClaimQueued(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != outbox.StatusQueued {
		return false, nil
	}
	rec.Status = outbox.StatusProcessing
	return true, nil
}

func (r *memOutboxRepo) MarkSent(_ context.Context, id uuid.UUID) error    { return r.mark(id, outbox.StatusSent) }
func (r *memOutboxRepo) MarkSkipped(_ context.Context, id uuid.UUID) error { return r.mark(id, outbox.StatusSkipped) }

func (r *memOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMsg string) error {
	if err := r.mark(id, outbox.StatusFailed); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[id].Error = errorMsg
	return nil
}

func (r *memOutboxRepo) mark(id uuid.UUID, status outbox.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return gatepass_errors.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (r *memOutboxRepo) all() []outbox.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []outbox.Record
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	return out
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []outbox.AuditEntry
}

func (r *memAuditRepo) Append(_ context.Context, e *outbox.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.New()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, _ repository.AuditFilter) ([]outbox.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbox.AuditEntry(nil), r.entries...), nil
}

type memGuestRepo struct {
	mu     sync.Mutex
	guests map[uuid.UUID]*guest.Guest
}

func newMemGuestRepo() *memGuestRepo {
	return &memGuestRepo{guests: make(map[uuid.UUID]*guest.Guest)}
}

func (r *memGuestRepo) seed(g guest.Guest) guest.Guest {
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

func (r *memGuestRepo) Create(_ context.Context, g *guest.Guest) error {
	*g = r.seed(*g)
	return nil
}

func (r *memGuestRepo) GetByID(_ context.Context, id uuid.UUID) (guest.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guests[id]
	if !ok {
		return guest.Guest{}, gatepass_errors.ErrNotFound
	}
	return *g, nil
}

func (r *memGuestRepo) Update(_ context.Context, g guest.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guests[g.ID]; !ok {
		return gatepass_errors.ErrNotFound
	}
	copied := g
	r.guests[g.ID] = &copied
	return nil
}

func (r *memGuestRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.guests[id]; !ok {
		return gatepass_errors.ErrNotFound
	}
	delete(r.guests, id)
	return nil
}

func (r *memGuestRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]guest.Guest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []guest.Guest
	for _, g := range r.guests {
		if g.EventID == eventID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memGuestRepo) ApplyChannelPatch(_ context.Context, id uuid.UUID, patch guest.ChannelPatch) error {
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
	return nil
}

func (r *memGuestRepo) SetCheckedIn(_ context.Context, id uuid.UUID, at time.Time, verifiedBy string) error {
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

func (r *memGuestRepo) MarkIDCardPrinted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.guests[id]
	if !ok {
		return gatepass_errors.ErrNotFound
	}
	g.IDCardPrinted = true
	return nil
}

func guestWithEvent(eventID uuid.UUID) guest.Guest {
	return guest.Guest{EventID: eventID, Name: "Asha"}
}

type memEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]event.Event
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[uuid.UUID]event.Event)}
}

func (r *memEventRepo) seed(e event.Event) event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.events[e.ID] = e
	return e
}

func (r *memEventRepo) Create(_ context.Context, e *event.Event) error {
	*e = r.seed(*e)
	return nil
}

func (r *memEventRepo) GetByID(_ context.Context, id uuid.UUID) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return event.Event{}, gatepass_errors.ErrNotFound
	}
	return e, nil
}

// memStatsRepo mimics the increment-in-place aggregate row and records how
// the row came to exist.
type memStatsRepo struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]event.Stats
	scanned map[uuid.UUID]event.Stats
	deltas  []event.Delta
}

func newMemStatsRepo() *memStatsRepo {
	return &memStatsRepo{
		rows:    make(map[uuid.UUID]event.Stats),
		scanned: make(map[uuid.UUID]event.Stats),
	}
}

func (r *memStatsRepo) ApplyDelta(_ context.Context, d event.Delta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, d)
	s := r.rows[d.EventID]
	s.EventID = d.EventID
	s.TotalGuests += d.TotalGuests
	s.CheckedInGuests += d.CheckedInGuests
	s.AttendeesTotal += d.AttendeesTotal
	s.AttendeesCheckedIn += d.AttendeesCheckedIn
	r.rows[d.EventID] = s
	return nil
}

func (r *memStatsRepo) Get(_ context.Context, eventID uuid.UUID) (event.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.rows[eventID]
	if !ok {
		return event.Stats{}, gatepass_errors.ErrNotFound
	}
	return s, nil
}

func (r *memStatsRepo) ComputeFromGuests(_ context.Context, eventID uuid.UUID) (event.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.scanned[eventID]
	s.EventID = eventID
	return s, nil
}

func (r *memStatsRepo) Put(_ context.Context, s event.Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.EventID]; ok {
		return nil
	}
	r.rows[s.EventID] = s
	return nil
}

type memPrintRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*printjob.Job
}

func newMemPrintRepo() *memPrintRepo {
	return &memPrintRepo{jobs: make(map[uuid.UUID]*printjob.Job)}
}

func (r *memPrintRepo) Enqueue(_ context.Context, j *printjob.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = uuid.New()
	j.Status = printjob.StatusQueued
	j.CreatedAt = time.Now()
	copied := *j
	r.jobs[j.ID] = &copied
	return nil
}

func (r *memPrintRepo) GetByID(_ context.Context, eventID, jobID uuid.UUID) (printjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok || j.EventID != eventID {
		return printjob.Job{}, gatepass_errors.ErrNotFound
	}
	return *j, nil
}

func (r *memPrintRepo) ClaimNext(_ context.Context, eventID uuid.UUID, stationID string, staleBefore time.Time) (*printjob.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var candidates []*printjob.Job
	for _, j := range r.jobs {
		if j.EventID != eventID {
			continue
		}
		claimable := j.Status == printjob.StatusQueued ||
			(j.Status == printjob.StatusClaimed && j.ClaimedAt != nil && j.ClaimedAt.Before(staleBefore))
		if claimable {
			candidates = append(candidates, j)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, k int) bool { return candidates[i].CreatedAt.Before(candidates[k].CreatedAt) })

	j := candidates[0]
	now := time.Now()
	j.Status = printjob.StatusClaimed
	j.StationID = stationID
	j.ClaimedAt = &now
	copied := *j
	return &copied, nil
}

func (r *memPrintRepo) Complete(_ context.Context, eventID, jobID uuid.UUID, stationID string) error {
	return r.resolve(eventID, jobID, stationID, printjob.StatusDone, "")
}

func (r *memPrintRepo) Fail(_ context.Context, eventID, jobID uuid.UUID, stationID, reason string) error {
	return r.resolve(eventID, jobID, stationID, printjob.StatusFailed, reason)
}

func (r *memPrintRepo) resolve(eventID, jobID uuid.UUID, stationID string, status printjob.Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[jobID]
	if !ok || j.EventID != eventID {
		return gatepass_errors.ErrNotFound
	}
	if j.Status != printjob.StatusClaimed || j.StationID != stationID {
		return gatepass_errors.ErrNotClaimed
	}
	j.Status = status
	j.Error = reason
	now := time.Now()
	j.DoneAt = &now
	return nil
}
