package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/event"
	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/printjob"
	"gatepass/internal/domain/providercfg"
)

type OutboxRepository interface {
	Create(ctx context.Context, rec *outbox.Record) error
	GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error)
	GetQueued(ctx context.Context, limit int) ([]outbox.Record, error)

	// ClaimQueued atomically flips a record from queued to processing.
	// Exactly one concurrent caller observes true per transition; any
	// store error counts as "did not claim".
	ClaimQueued(ctx context.Context, id uuid.UUID) (bool, error)

	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	MarkSkipped(ctx context.Context, id uuid.UUID) error
}

// AuditFilter narrows audit log reads. Zero values are ignored.
type AuditFilter struct {
	Channel     outbox.Channel
	Outcome     outbox.AuditOutcome
	Destination string
	GuestID     uuid.NullUUID
	EventID     uuid.NullUUID
	Search      string
	Limit       int
}

type AuditLogRepository interface {
	Append(ctx context.Context, e *outbox.AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]outbox.AuditEntry, error)
}

type GuestRepository interface {
	Create(ctx context.Context, g *guest.Guest) error
	GetByID(ctx context.Context, id uuid.UUID) (guest.Guest, error)
	Update(ctx context.Context, g guest.Guest) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]guest.Guest, error)

	// ApplyChannelPatch merges invite-state fields; unrelated columns are
	// untouched so concurrent dispatchers on other channels are preserved.
	ApplyChannelPatch(ctx context.Context, id uuid.UUID, patch guest.ChannelPatch) error

	SetCheckedIn(ctx context.Context, id uuid.UUID, at time.Time, verifiedBy string) error
	MarkIDCardPrinted(ctx context.Context, id uuid.UUID) error
}

type StatsRepository interface {
	// ApplyDelta increments the aggregate row in place (never
	// read-modify-write), creating it when absent.
	ApplyDelta(ctx context.Context, d event.Delta) error
	Get(ctx context.Context, eventID uuid.UUID) (event.Stats, error)
	ComputeFromGuests(ctx context.Context, eventID uuid.UUID) (event.Stats, error)
	Put(ctx context.Context, s event.Stats) error
}

type PrintJobRepository interface {
	Enqueue(ctx context.Context, j *printjob.Job) error
	GetByID(ctx context.Context, eventID, jobID uuid.UUID) (printjob.Job, error)

	// ClaimNext claims the oldest queued job for the event, or a claimed
	// job whose claim is older than staleBefore. Returns nil when nothing
	// is claimable.
	ClaimNext(ctx context.Context, eventID uuid.UUID, stationID string, staleBefore time.Time) (*printjob.Job, error)

	Complete(ctx context.Context, eventID, jobID uuid.UUID, stationID string) error
	Fail(ctx context.Context, eventID, jobID uuid.UUID, stationID, reason string) error
}

type ProviderConfigRepository interface {
	Get(ctx context.Context, userID uuid.UUID, channel outbox.Channel) (providercfg.Settings, error)
	Save(ctx context.Context, s providercfg.Settings) error
}

type EventRepository interface {
	Create(ctx context.Context, e *event.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (event.Event, error)
}
