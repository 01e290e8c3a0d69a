package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/guest"
	gatepass_errors "gatepass/pkg/errors"
)

type guestRepository struct {
	db DBTX
}

func NewGuestRepository(db DBTX) GuestRepository {
	return &guestRepository{db: db}
}

const guestColumns = `id, event_id, name, email, phone, extra_adults, extra_children, total_attendees,
        invite_sent, invite_sent_email, invite_whatsapp_status, invite_whatsapp_sent_at,
        invite_whatsapp_failed_at, invite_whatsapp_last_error, invite_whatsapp_message_id,
        checked_in, checked_in_at, verified_by, id_card_printed, created_at, updated_at`

func (r *guestRepository) Create(ctx context.Context, g *guest.Guest) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	if g.InviteWhatsAppStatus == "" {
		g.InviteWhatsAppStatus = guest.WhatsAppNone
	}
	g.TotalAttendees = g.AttendeeCount()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO guests (`+guestColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
    `,
		g.ID, g.EventID, g.Name, g.Email, g.Phone,
		g.ExtraAdults, g.ExtraChildren, g.TotalAttendees,
		g.InviteSent, g.InviteSentEmail, g.InviteWhatsAppStatus,
		g.InviteWhatsAppSentAt, g.InviteWhatsAppFailedAt,
		g.InviteWhatsAppLastError, g.InviteWhatsAppMessageID,
		g.CheckedIn, g.CheckedInAt, g.VerifiedBy, g.IDCardPrinted,
		g.CreatedAt, g.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return gatepass_errors.ErrAlreadyExists
	}
	return err
}

func (r *guestRepository) GetByID(ctx context.Context, id uuid.UUID) (guest.Guest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1`, id)
	g, err := scanGuest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return guest.Guest{}, gatepass_errors.ErrNotFound
		}
		return guest.Guest{}, err
	}
	return g, nil
}

func (r *guestRepository) Update(ctx context.Context, g guest.Guest) error {
	g.TotalAttendees = g.AttendeeCount()
	res, err := r.db.ExecContext(ctx, `
        UPDATE guests
        SET event_id = $1, name = $2, email = $3, phone = $4,
            extra_adults = $5, extra_children = $6, total_attendees = $7,
            updated_at = $8
        WHERE id = $9
    `, g.EventID, g.Name, g.Email, g.Phone,
		g.ExtraAdults, g.ExtraChildren, g.TotalAttendees,
		time.Now(), g.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatepass_errors.ErrNotFound
	}
	return nil
}

func (r *guestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatepass_errors.ErrNotFound
	}
	return nil
}

func (r *guestRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]guest.Guest, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+guestColumns+` FROM guests WHERE event_id = $1 ORDER BY created_at ASC
    `, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []guest.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return guests, nil
}

// ApplyChannelPatch writes only the fields the patch names. This keeps the
// update a merge, so a concurrent status change from another channel's
// dispatcher is never overwritten wholesale.
func (r *guestRepository) ApplyChannelPatch(ctx context.Context, id uuid.UUID, patch guest.ChannelPatch) error {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.InviteSent != nil {
		set("invite_sent", *patch.InviteSent)
	}
	if patch.InviteSentEmail != nil {
		set("invite_sent_email", *patch.InviteSentEmail)
	}
	if patch.InviteWhatsAppStatus != nil {
		set("invite_whatsapp_status", *patch.InviteWhatsAppStatus)
	}
	if patch.InviteWhatsAppSentAt != nil {
		set("invite_whatsapp_sent_at", *patch.InviteWhatsAppSentAt)
	}
	if patch.InviteWhatsAppFailedAt != nil {
		set("invite_whatsapp_failed_at", *patch.InviteWhatsAppFailedAt)
	}
	if patch.InviteWhatsAppLastError != nil {
		set("invite_whatsapp_last_error", *patch.InviteWhatsAppLastError)
	} else if patch.ClearWhatsAppLastError {
		sets = append(sets, "invite_whatsapp_last_error = NULL")
	}
	if patch.InviteWhatsAppMessageID != nil {
		set("invite_whatsapp_message_id", *patch.InviteWhatsAppMessageID)
	}

	if len(sets) == 0 {
		return nil
	}
	set("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE guests SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatepass_errors.ErrNotFound
	}
	return nil
}

func (r *guestRepository) SetCheckedIn(ctx context.Context, id uuid.UUID, at time.Time, verifiedBy string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE guests
        SET checked_in = TRUE, checked_in_at = $1, verified_by = $2, updated_at = $3
        WHERE id = $4
    `, at, verifiedBy, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gatepass_errors.ErrNotFound
	}
	return nil
}

func (r *guestRepository) MarkIDCardPrinted(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE guests SET id_card_printed = TRUE, updated_at = $1 WHERE id = $2
    `, time.Now(), id)
	return err
}

func scanGuest(row rowScanner) (guest.Guest, error) {
	var g guest.Guest
	err := row.Scan(
		&g.ID, &g.EventID, &g.Name, &g.Email, &g.Phone,
		&g.ExtraAdults, &g.ExtraChildren, &g.TotalAttendees,
		&g.InviteSent, &g.InviteSentEmail, &g.InviteWhatsAppStatus,
		&g.InviteWhatsAppSentAt, &g.InviteWhatsAppFailedAt,
		&g.InviteWhatsAppLastError, &g.InviteWhatsAppMessageID,
		&g.CheckedIn, &g.CheckedInAt, &g.VerifiedBy, &g.IDCardPrinted,
		&g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}
