package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gatepass/internal/domain/outbox"
	gatepass_errors "gatepass/pkg/errors"
)

type outboxRepository struct {
	db DBTX
}

func NewOutboxRepository(db DBTX) OutboxRepository {
	return &outboxRepository{db: db}
}

const outboxColumns = `id, channel, destination, raw_destination, from_email, subject, body_html, qr_ref, flyer_ref,
        body, template_name, template_lang, template_params, user_id, event_id, guest_id, manual,
        status, error, retries, created_at, updated_at, claimed_at, processed_at`

func (r *outboxRepository) Create(ctx context.Context, rec *outbox.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = outbox.StatusQueued
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO outbox_records (`+outboxColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
    `,
		rec.ID,
		rec.Channel,
		rec.Destination,
		rec.RawDestination,
		rec.FromEmail,
		rec.Subject,
		rec.BodyHTML,
		rec.QRRef,
		rec.FlyerRef,
		rec.Body,
		rec.TemplateName,
		rec.TemplateLang,
		pq.Array(rec.TemplateParams),
		rec.UserID,
		rec.EventID,
		rec.GuestID,
		rec.Manual,
		rec.Status,
		rec.Error,
		rec.Retries,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.ClaimedAt,
		rec.ProcessedAt,
	)
	return err
}

func (r *outboxRepository) GetByID(ctx context.Context, id uuid.UUID) (outbox.Record, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+outboxColumns+`
        FROM outbox_records
        WHERE id = $1
    `, id)
	rec, err := scanOutboxRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return outbox.Record{}, gatepass_errors.ErrNotFound
		}
		return outbox.Record{}, err
	}
	return rec, nil
}

func (r *outboxRepository) GetQueued(ctx context.Context, limit int) ([]outbox.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+outboxColumns+`
        FROM outbox_records
        WHERE status = $1
        ORDER BY created_at ASC
        LIMIT $2
    `, outbox.StatusQueued, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []outbox.Record
	for rows.Next() {
		rec, err := scanOutboxRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ClaimQueued is the claim lock: a single conditional UPDATE, so exactly one
// concurrent caller sees a row flipped for a given queued->processing
// transition. The transaction only covers the status flip, never the
// subsequent provider call.
func (r *outboxRepository) ClaimQueued(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
        UPDATE outbox_records
        SET status = $1, claimed_at = $2, updated_at = $2
        WHERE id = $3 AND status = $4
    `, outbox.StatusProcessing, now, id, outbox.StatusQueued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
        UPDATE outbox_records
        SET status = $1, processed_at = $2, updated_at = $2, error = ''
        WHERE id = $3 AND status = $4
    `, outbox.StatusSent, now, id, outbox.StatusProcessing)
	return err
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
        UPDATE outbox_records
        SET status = $1, error = $2, retries = retries + 1, processed_at = $3, updated_at = $3
        WHERE id = $4 AND status = $5
    `, outbox.StatusFailed, errorMsg, now, id, outbox.StatusProcessing)
	return err
}

func (r *outboxRepository) MarkSkipped(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
        UPDATE outbox_records
        SET status = $1, processed_at = $2, updated_at = $2
        WHERE id = $3 AND status = $4
    `, outbox.StatusSkipped, now, id, outbox.StatusProcessing)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOutboxRecord(row rowScanner) (outbox.Record, error) {
	var rec outbox.Record
	var params pq.StringArray
	err := row.Scan(
		&rec.ID,
		&rec.Channel,
		&rec.Destination,
		&rec.RawDestination,
		&rec.FromEmail,
		&rec.Subject,
		&rec.BodyHTML,
		&rec.QRRef,
		&rec.FlyerRef,
		&rec.Body,
		&rec.TemplateName,
		&rec.TemplateLang,
		&params,
		&rec.UserID,
		&rec.EventID,
		&rec.GuestID,
		&rec.Manual,
		&rec.Status,
		&rec.Error,
		&rec.Retries,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.ClaimedAt,
		&rec.ProcessedAt,
	)
	rec.TemplateParams = []string(params)
	return rec, err
}
