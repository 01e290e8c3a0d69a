package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/outbox"
	"gatepass/internal/domain/providercfg"
	gatepass_errors "gatepass/pkg/errors"
)

type providerConfigRepository struct {
	db DBTX
}

func NewProviderConfigRepository(db DBTX) ProviderConfigRepository {
	return &providerConfigRepository{db: db}
}

func (r *providerConfigRepository) Get(ctx context.Context, userID uuid.UUID, channel outbox.Channel) (providercfg.Settings, error) {
	var (
		s       providercfg.Settings
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, `
        SELECT user_id, channel, enabled, settings, updated_at
        FROM provider_settings
        WHERE user_id = $1 AND channel = $2
    `, userID, channel).Scan(&s.UserID, &s.Channel, &s.Enabled, &payload, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return providercfg.Settings{}, gatepass_errors.ErrNotFound
		}
		return providercfg.Settings{}, err
	}

	switch s.Channel {
	case outbox.ChannelEmail:
		s.Email = &providercfg.EmailSettings{}
		err = json.Unmarshal(payload, s.Email)
	case outbox.ChannelSMS:
		s.SMS = &providercfg.SMSSettings{}
		err = json.Unmarshal(payload, s.SMS)
	case outbox.ChannelWhatsApp:
		s.WhatsApp = &providercfg.WhatsAppSettings{}
		err = json.Unmarshal(payload, s.WhatsApp)
	}
	if err != nil {
		return providercfg.Settings{}, fmt.Errorf("decode provider settings: %w", err)
	}
	return s, nil
}

func (r *providerConfigRepository) Save(ctx context.Context, s providercfg.Settings) error {
	var variant interface{}
	switch s.Channel {
	case outbox.ChannelEmail:
		variant = s.Email
	case outbox.ChannelSMS:
		variant = s.SMS
	case outbox.ChannelWhatsApp:
		variant = s.WhatsApp
	default:
		return fmt.Errorf("%w: unknown channel %q", gatepass_errors.ErrInvalidInput, s.Channel)
	}
	payload, err := json.Marshal(variant)
	if err != nil {
		return fmt.Errorf("encode provider settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
        INSERT INTO provider_settings (user_id, channel, enabled, settings, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, channel) DO UPDATE SET
            enabled = EXCLUDED.enabled,
            settings = EXCLUDED.settings,
            updated_at = EXCLUDED.updated_at
    `, s.UserID, s.Channel, s.Enabled, payload, time.Now())
	return err
}
