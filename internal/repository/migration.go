package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates the tables the service needs. Statements are idempotent
// so the migrate CLI and test bootstraps can run them repeatedly, and they
// run inside one transaction so a partial bootstrap never sticks.
func InitSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,

		`CREATE TABLE IF NOT EXISTS events (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL,
            name TEXT NOT NULL,
            venue TEXT NOT NULL DEFAULT '',
            starts_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,

		`CREATE TABLE IF NOT EXISTS guests (
            id UUID PRIMARY KEY,
            event_id UUID NOT NULL,
            name TEXT NOT NULL,
            email TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            extra_adults INT NOT NULL DEFAULT 0,
            extra_children INT NOT NULL DEFAULT 0,
            total_attendees INT NOT NULL DEFAULT 1,
            invite_sent BOOLEAN NOT NULL DEFAULT FALSE,
            invite_sent_email BOOLEAN NOT NULL DEFAULT FALSE,
            invite_whatsapp_status VARCHAR(16) NOT NULL DEFAULT 'none',
            invite_whatsapp_sent_at TIMESTAMPTZ,
            invite_whatsapp_failed_at TIMESTAMPTZ,
            invite_whatsapp_last_error TEXT,
            invite_whatsapp_message_id TEXT NOT NULL DEFAULT '',
            checked_in BOOLEAN NOT NULL DEFAULT FALSE,
            checked_in_at TIMESTAMPTZ,
            verified_by TEXT NOT NULL DEFAULT '',
            id_card_printed BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_guests_event_id ON guests (event_id);`,

		`CREATE TABLE IF NOT EXISTS outbox_records (
            id UUID PRIMARY KEY,
            channel VARCHAR(16) NOT NULL,
            destination TEXT NOT NULL,
            raw_destination TEXT NOT NULL DEFAULT '',
            from_email TEXT NOT NULL DEFAULT '',
            subject TEXT NOT NULL DEFAULT '',
            body_html TEXT NOT NULL DEFAULT '',
            qr_ref TEXT NOT NULL DEFAULT '',
            flyer_ref TEXT NOT NULL DEFAULT '',
            body TEXT NOT NULL DEFAULT '',
            template_name TEXT NOT NULL DEFAULT '',
            template_lang TEXT NOT NULL DEFAULT '',
            template_params TEXT[] NOT NULL DEFAULT '{}',
            user_id UUID NOT NULL,
            event_id UUID,
            guest_id UUID,
            manual BOOLEAN NOT NULL DEFAULT FALSE,
            status VARCHAR(16) NOT NULL DEFAULT 'queued',
            error TEXT NOT NULL DEFAULT '',
            retries INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            claimed_at TIMESTAMPTZ,
            processed_at TIMESTAMPTZ
        );`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_records_status ON outbox_records (status, created_at);`,

		`CREATE TABLE IF NOT EXISTS notification_audit (
            id UUID PRIMARY KEY,
            record_id UUID NOT NULL,
            channel VARCHAR(16) NOT NULL,
            outcome VARCHAR(16) NOT NULL,
            destination TEXT NOT NULL DEFAULT '',
            user_id UUID NOT NULL,
            event_id UUID,
            guest_id UUID,
            message_id TEXT NOT NULL DEFAULT '',
            reason TEXT NOT NULL DEFAULT '',
            raw_response TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notification_audit_channel ON notification_audit (channel, outcome, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_notification_audit_guest ON notification_audit (guest_id);`,

		`CREATE TABLE IF NOT EXISTS event_stats (
            event_id UUID PRIMARY KEY,
            total_guests INT NOT NULL DEFAULT 0,
            checked_in_guests INT NOT NULL DEFAULT 0,
            attendees_total INT NOT NULL DEFAULT 0,
            attendees_checked_in INT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,

		`CREATE TABLE IF NOT EXISTS print_jobs (
            id UUID PRIMARY KEY,
            event_id UUID NOT NULL,
            guest_id UUID NOT NULL,
            source VARCHAR(32) NOT NULL,
            requested_by TEXT NOT NULL DEFAULT '',
            status VARCHAR(16) NOT NULL DEFAULT 'queued',
            station_id TEXT NOT NULL DEFAULT '',
            error TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            claimed_at TIMESTAMPTZ,
            done_at TIMESTAMPTZ
        );`,
		`CREATE INDEX IF NOT EXISTS idx_print_jobs_event_status ON print_jobs (event_id, status, created_at);`,

		`CREATE TABLE IF NOT EXISTS provider_settings (
            user_id UUID NOT NULL,
            channel VARCHAR(16) NOT NULL,
            enabled BOOLEAN NOT NULL DEFAULT TRUE,
            settings JSONB NOT NULL DEFAULT '{}',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (user_id, channel)
        );`,
	}

	return WithTx(ctx, db, func(tx DBTX) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute migration: %w", err)
			}
		}
		return nil
	})
}
