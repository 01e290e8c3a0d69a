package printjob

import (
	"time"

	"github.com/google/uuid"
)

// Status of a badge print job.
// queued -> claimed (by one station) -> {done | failed}. A claim older than
// ClaimTTL with no terminal transition is abandoned and reclaimable.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusClaimed Status = "claimed"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// ClaimTTL is the staleness window after which an unresolved claim may be
// taken over by another station. Trades a small double-print risk for
// liveness when a station crashes mid-job.
const ClaimTTL = 20 * time.Second

// Source tags where the print request originated.
type Source string

const (
	SourceScanner       Source = "scanner"
	SourceSelfCheckin   Source = "self-checkin"
	SourceManualRequeue Source = "manual-requeue"
)

// Job represents the print_jobs table, scoped to one event.
type Job struct {
	ID          uuid.UUID
	EventID     uuid.UUID
	GuestID     uuid.UUID
	Source      Source
	RequestedBy string

	Status    Status
	StationID string
	Error     string

	CreatedAt time.Time
	ClaimedAt *time.Time
	DoneAt    *time.Time
}

func (Job) TableName() string {
	return "print_jobs"
}
