package event

import (
	"time"

	"github.com/google/uuid"
)

// Event represents the events table.
type Event struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Venue     string
	StartsAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Event) TableName() string {
	return "events"
}

// Stats is the cached running aggregate for one event. It always equals the
// fold of the current guest set; it is maintained incrementally via Delta
// and lazily rebuilt from a full scan when missing.
type Stats struct {
	EventID            uuid.UUID
	TotalGuests        int
	CheckedInGuests    int
	AttendeesTotal     int
	AttendeesCheckedIn int
	UpdatedAt          time.Time
}

func (Stats) TableName() string {
	return "event_stats"
}

// Remaining is derived on read.
func (s Stats) Remaining() int {
	return s.TotalGuests - s.CheckedInGuests
}

// Delta is an increment applied atomically to the aggregate row. Deltas from
// concurrent guest mutations commute, so apply order does not matter.
type Delta struct {
	EventID            uuid.UUID
	TotalGuests        int
	CheckedInGuests    int
	AttendeesTotal     int
	AttendeesCheckedIn int
}

// IsZero reports whether applying the delta would be a no-op.
func (d Delta) IsZero() bool {
	return d.TotalGuests == 0 && d.CheckedInGuests == 0 &&
		d.AttendeesTotal == 0 && d.AttendeesCheckedIn == 0
}

// Negate returns the symmetric negation, used for deletes and event moves.
func (d Delta) Negate() Delta {
	return Delta{
		EventID:            d.EventID,
		TotalGuests:        -d.TotalGuests,
		CheckedInGuests:    -d.CheckedInGuests,
		AttendeesTotal:     -d.AttendeesTotal,
		AttendeesCheckedIn: -d.AttendeesCheckedIn,
	}
}
