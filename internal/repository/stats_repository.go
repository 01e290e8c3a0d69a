package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/event"
	gatepass_errors "gatepass/pkg/errors"
)

type statsRepository struct {
	db DBTX
}

func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepository{db: db}
}

// ApplyDelta adds the delta to the aggregate row with a single upsert, so
// concurrent guest mutations never lose updates to each other.
func (r *statsRepository) ApplyDelta(ctx context.Context, d event.Delta) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO event_stats (event_id, total_guests, checked_in_guests, attendees_total, attendees_checked_in, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (event_id) DO UPDATE SET
            total_guests         = event_stats.total_guests + EXCLUDED.total_guests,
            checked_in_guests    = event_stats.checked_in_guests + EXCLUDED.checked_in_guests,
            attendees_total      = event_stats.attendees_total + EXCLUDED.attendees_total,
            attendees_checked_in = event_stats.attendees_checked_in + EXCLUDED.attendees_checked_in,
            updated_at           = EXCLUDED.updated_at
    `, d.EventID, d.TotalGuests, d.CheckedInGuests, d.AttendeesTotal, d.AttendeesCheckedIn, time.Now())
	return err
}

func (r *statsRepository) Get(ctx context.Context, eventID uuid.UUID) (event.Stats, error) {
	var s event.Stats
	err := r.db.QueryRowContext(ctx, `
        SELECT event_id, total_guests, checked_in_guests, attendees_total, attendees_checked_in, updated_at
        FROM event_stats
        WHERE event_id = $1
    `, eventID).Scan(&s.EventID, &s.TotalGuests, &s.CheckedInGuests, &s.AttendeesTotal, &s.AttendeesCheckedIn, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Stats{}, gatepass_errors.ErrNotFound
		}
		return event.Stats{}, err
	}
	return s, nil
}

// ComputeFromGuests folds the current guest set. Used as the fallback when
// the cached aggregate is missing.
func (r *statsRepository) ComputeFromGuests(ctx context.Context, eventID uuid.UUID) (event.Stats, error) {
	var s event.Stats
	s.EventID = eventID
	err := r.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE checked_in),
            COALESCE(SUM(GREATEST(total_attendees, 1)), 0),
            COALESCE(SUM(GREATEST(total_attendees, 1)) FILTER (WHERE checked_in), 0)
        FROM guests
        WHERE event_id = $1
    `, eventID).Scan(&s.TotalGuests, &s.CheckedInGuests, &s.AttendeesTotal, &s.AttendeesCheckedIn)
	if err != nil {
		return event.Stats{}, err
	}
	s.UpdatedAt = time.Now()
	return s, nil
}

// Put seeds the aggregate row. It never overwrites an existing row; a
// concurrent rebuild writing the same fold first wins harmlessly.
func (r *statsRepository) Put(ctx context.Context, s event.Stats) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO event_stats (event_id, total_guests, checked_in_guests, attendees_total, attendees_checked_in, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (event_id) DO NOTHING
    `, s.EventID, s.TotalGuests, s.CheckedInGuests, s.AttendeesTotal, s.AttendeesCheckedIn, s.UpdatedAt)
	return err
}
