package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/printjob"
	gatepass_errors "gatepass/pkg/errors"
)

type printJobRepository struct {
	db DBTX
}

func NewPrintJobRepository(db DBTX) PrintJobRepository {
	return &printJobRepository{db: db}
}

const printJobColumns = `id, event_id, guest_id, source, requested_by, status, station_id, error, created_at, claimed_at, done_at`

func (r *printJobRepository) Enqueue(ctx context.Context, j *printjob.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	if j.Status == "" {
		j.Status = printjob.StatusQueued
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO print_jobs (`+printJobColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
    `, j.ID, j.EventID, j.GuestID, j.Source, j.RequestedBy, j.Status, j.StationID, j.Error, j.CreatedAt, j.ClaimedAt, j.DoneAt)
	return err
}

func (r *printJobRepository) GetByID(ctx context.Context, eventID, jobID uuid.UUID) (printjob.Job, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+printJobColumns+` FROM print_jobs WHERE event_id = $1 AND id = $2
    `, eventID, jobID)
	j, err := scanPrintJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return printjob.Job{}, gatepass_errors.ErrNotFound
		}
		return printjob.Job{}, err
	}
	return j, nil
}

// ClaimNext takes the oldest queued job, or a claimed job whose claim has
// gone stale. FOR UPDATE SKIP LOCKED keeps two stations polling the same
// event from blocking on each other; the conditional UPDATE guarantees one
// winner per job.
func (r *printJobRepository) ClaimNext(ctx context.Context, eventID uuid.UUID, stationID string, staleBefore time.Time) (*printjob.Job, error) {
	now := time.Now()
	row := r.db.QueryRowContext(ctx, `
        UPDATE print_jobs
        SET status = $1, station_id = $2, claimed_at = $3, error = ''
        WHERE id = (
            SELECT id FROM print_jobs
            WHERE event_id = $4
              AND (status = $5 OR (status = $1 AND claimed_at < $6))
            ORDER BY created_at ASC
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING `+printJobColumns+`
    `, printjob.StatusClaimed, stationID, now, eventID, printjob.StatusQueued, staleBefore)

	j, err := scanPrintJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

func (r *printJobRepository) Complete(ctx context.Context, eventID, jobID uuid.UUID, stationID string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE print_jobs
        SET status = $1, done_at = $2
        WHERE event_id = $3 AND id = $4 AND station_id = $5 AND status = $6
    `, printjob.StatusDone, time.Now(), eventID, jobID, stationID, printjob.StatusClaimed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatepass_errors.ErrNotClaimed
	}
	return nil
}

func (r *printJobRepository) Fail(ctx context.Context, eventID, jobID uuid.UUID, stationID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE print_jobs
        SET status = $1, error = $2, done_at = $3
        WHERE event_id = $4 AND id = $5 AND station_id = $6 AND status = $7
    `, printjob.StatusFailed, reason, time.Now(), eventID, jobID, stationID, printjob.StatusClaimed)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatepass_errors.ErrNotClaimed
	}
	return nil
}

func scanPrintJob(row rowScanner) (printjob.Job, error) {
	var j printjob.Job
	err := row.Scan(
		&j.ID, &j.EventID, &j.GuestID, &j.Source, &j.RequestedBy,
		&j.Status, &j.StationID, &j.Error,
		&j.CreatedAt, &j.ClaimedAt, &j.DoneAt,
	)
	return j, err
}
