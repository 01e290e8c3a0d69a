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

type eventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, e *event.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO events (id, user_id, name, venue, starts_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, e.ID, e.UserID, e.Name, e.Venue, e.StartsAt, e.CreatedAt, e.UpdatedAt)
	if isUniqueViolation(err) {
		return gatepass_errors.ErrAlreadyExists
	}
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (event.Event, error) {
	var e event.Event
	err := r.db.QueryRowContext(ctx, `
        SELECT id, user_id, name, venue, starts_at, created_at, updated_at
        FROM events WHERE id = $1
    `, id).Scan(&e.ID, &e.UserID, &e.Name, &e.Venue, &e.StartsAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, gatepass_errors.ErrNotFound
		}
		return event.Event{}, err
	}
	return e, nil
}
