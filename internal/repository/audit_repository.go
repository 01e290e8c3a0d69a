package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/outbox"
)

type auditLogRepository struct {
	db DBTX
}

func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Append writes one audit row. Rows are append-only; there is no update path.
func (r *auditLogRepository) Append(ctx context.Context, e *outbox.AuditEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO notification_audit (id, record_id, channel, outcome, destination, user_id, event_id, guest_id, message_id, reason, raw_response, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    `,
		e.ID,
		e.RecordID,
		e.Channel,
		e.Outcome,
		e.Destination,
		e.UserID,
		e.EventID,
		e.GuestID,
		e.MessageID,
		e.Reason,
		e.RawResponse,
		e.CreatedAt,
	)
	return err
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditFilter) ([]outbox.AuditEntry, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Channel != "" {
		add("channel = $%d", filter.Channel)
	}
	if filter.Outcome != "" {
		add("outcome = $%d", filter.Outcome)
	}
	if filter.Destination != "" {
		add("destination = $%d", filter.Destination)
	}
	if filter.GuestID.Valid {
		add("guest_id = $%d", filter.GuestID)
	}
	if filter.EventID.Valid {
		add("event_id = $%d", filter.EventID)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		n := len(args)
		where = append(where, fmt.Sprintf("(reason ILIKE '%%' || $%d || '%%' OR destination ILIKE '%%' || $%d || '%%')", n, n))
	}

	query := `
        SELECT id, record_id, channel, outcome, destination, user_id, event_id, guest_id, message_id, reason, raw_response, created_at
        FROM notification_audit`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []outbox.AuditEntry
	for rows.Next() {
		var e outbox.AuditEntry
		if err := rows.Scan(
			&e.ID,
			&e.RecordID,
			&e.Channel,
			&e.Outcome,
			&e.Destination,
			&e.UserID,
			&e.EventID,
			&e.GuestID,
			&e.MessageID,
			&e.Reason,
			&e.RawResponse,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
