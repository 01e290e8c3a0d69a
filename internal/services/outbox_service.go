package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/outbox"
	"gatepass/internal/phone"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// EnqueueResult reflects enqueue-time validation only, never the delivery
// outcome; delivery is observable through the audit log.
type EnqueueResult struct {
	Success  bool
	Message  string
	RecordID uuid.UUID
}

// OutboxService writes notification requests into the durable outbox.
type OutboxService struct {
	outboxRepo repository.OutboxRepository
	guestRepo  repository.GuestRepository
	auditRepo  repository.AuditLogRepository
	log        *logger.Logger
}

func NewOutboxService(outboxRepo repository.OutboxRepository, guestRepo repository.GuestRepository, auditRepo repository.AuditLogRepository, log *logger.Logger) *OutboxService {
	return &OutboxService{
		outboxRepo: outboxRepo,
		guestRepo:  guestRepo,
		auditRepo:  auditRepo,
		log:        log,
	}
}

type EnqueueEmailRequest struct {
	To      string
	Subject string
	HTML    string

	// FromEmail optionally overrides the sender address from the user's
	// provider configuration.
	FromEmail string

	UserID   uuid.UUID
	EventID  uuid.NullUUID
	GuestID  uuid.NullUUID
	QRRef    string
	FlyerRef string
	Manual   bool
}

func (s *OutboxService) EnqueueEmail(ctx context.Context, req EnqueueEmailRequest) (EnqueueResult, error) {
	to := strings.TrimSpace(req.To)
	if to == "" || !strings.Contains(to, "@") {
		return EnqueueResult{Message: gatepass_errors.MsgMissingEmailAddress}, nil
	}
	if strings.TrimSpace(req.Subject) == "" && strings.TrimSpace(req.HTML) == "" {
		return EnqueueResult{Message: gatepass_errors.MsgEmptyMessageBody}, nil
	}

	rec := &outbox.Record{
		Channel:        outbox.ChannelEmail,
		Destination:    to,
		RawDestination: req.To,
		FromEmail:      strings.TrimSpace(req.FromEmail),
		Subject:        req.Subject,
		BodyHTML:       req.HTML,
		QRRef:          req.QRRef,
		FlyerRef:       req.FlyerRef,
		UserID:         req.UserID,
		EventID:        req.EventID,
		GuestID:        req.GuestID,
		Manual:         req.Manual,
	}
	return s.enqueue(ctx, rec)
}

type EnqueueSMSRequest struct {
	To      string
	Body    string
	UserID  uuid.UUID
	EventID uuid.NullUUID
	GuestID uuid.NullUUID
	Manual  bool
}

func (s *OutboxService) EnqueueSMS(ctx context.Context, req EnqueueSMSRequest) (EnqueueResult, error) {
	normalized, err := phone.Normalize(req.To)
	if err != nil {
		return EnqueueResult{Message: phone.ValidationMessage(err)}, nil
	}
	if strings.TrimSpace(req.Body) == "" {
		return EnqueueResult{Message: gatepass_errors.MsgEmptyMessageBody}, nil
	}

	rec := &outbox.Record{
		Channel:        outbox.ChannelSMS,
		Destination:    normalized,
		RawDestination: req.To,
		Body:           req.Body,
		UserID:         req.UserID,
		EventID:        req.EventID,
		GuestID:        req.GuestID,
		Manual:         req.Manual,
	}
	return s.enqueue(ctx, rec)
}

type EnqueueWhatsAppRequest struct {
	To         string
	GuestName  string
	EventName  string
	TicketCode string
	UserID     uuid.UUID
	EventID    uuid.NullUUID
	GuestID    uuid.NullUUID
	Manual     bool
}

func (s *OutboxService) EnqueueWhatsApp(ctx context.Context, req EnqueueWhatsAppRequest) (EnqueueResult, error) {
	normalized, err := phone.Normalize(req.To)
	if err != nil {
		return EnqueueResult{Message: phone.ValidationMessage(err)}, nil
	}

	rec := &outbox.Record{
		Channel:        outbox.ChannelWhatsApp,
		Destination:    normalized,
		RawDestination: req.To,
		TemplateParams: []string{req.GuestName, req.EventName, req.TicketCode},
		UserID:         req.UserID,
		EventID:        req.EventID,
		GuestID:        req.GuestID,
		Manual:         req.Manual,
	}
	result, enqueueErr := s.enqueue(ctx, rec)
	if enqueueErr != nil || !result.Success {
		return result, enqueueErr
	}

	// Move the guest's WhatsApp status to queued. Best effort; the
	// dispatcher re-reads the guest before sending anyway.
	if req.GuestID.Valid {
		status := guest.WhatsAppQueued
		if err := s.guestRepo.ApplyChannelPatch(ctx, req.GuestID.UUID, guest.ChannelPatch{InviteWhatsAppStatus: &status}); err != nil {
			s.log.Warnf("failed to mark guest %s whatsapp queued: %v", req.GuestID.UUID, err)
		}
	}
	return result, nil
}

func (s *OutboxService) enqueue(ctx context.Context, rec *outbox.Record) (EnqueueResult, error) {
	if err := s.outboxRepo.Create(ctx, rec); err != nil {
		return EnqueueResult{}, fmt.Errorf("failed to enqueue %s record: %w", rec.Channel, err)
	}

	entry := &outbox.AuditEntry{
		RecordID:    rec.ID,
		Channel:     rec.Channel,
		Outcome:     outbox.OutcomeQueued,
		Destination: rec.Destination,
		UserID:      rec.UserID,
		EventID:     rec.EventID,
		GuestID:     rec.GuestID,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.log.Warnf("audit append failed for queued %s record %s: %v", rec.Channel, rec.ID, err)
	}

	return EnqueueResult{Success: true, Message: "queued", RecordID: rec.ID}, nil
}

// Resend queues a fresh copy of a previous record. The copy carries the
// manual flag, so dispatchers skip their already-sent pre-check and the
// message goes out again even to a guest who already got one.
func (s *OutboxService) Resend(ctx context.Context, recordID uuid.UUID) (EnqueueResult, error) {
	prev, err := s.outboxRepo.GetByID(ctx, recordID)
	if err != nil {
		return EnqueueResult{}, err
	}

	rec := &outbox.Record{
		Channel:        prev.Channel,
		Destination:    prev.Destination,
		RawDestination: prev.RawDestination,
		FromEmail:      prev.FromEmail,
		Subject:        prev.Subject,
		BodyHTML:       prev.BodyHTML,
		QRRef:          prev.QRRef,
		FlyerRef:       prev.FlyerRef,
		Body:           prev.Body,
		TemplateName:   prev.TemplateName,
		TemplateLang:   prev.TemplateLang,
		TemplateParams: prev.TemplateParams,
		UserID:         prev.UserID,
		EventID:        prev.EventID,
		GuestID:        prev.GuestID,
		Manual:         true,
	}
	return s.enqueue(ctx, rec)
}

// InviteChannels selects the channels a batch invite targets.
type InviteChannels struct {
	Email    bool
	WhatsApp bool
}

// BatchInviteSummary counts enqueue outcomes per channel for one batch run.
type BatchInviteSummary struct {
	EmailQueued    int
	WhatsAppQueued int
	Rejected       []string
}

// SendEventInvites enqueues invites for every guest of an event. Channels
// are attempted independently: one channel's validation failure never
// blocks the other. Duplicate suppression happens at dispatch time, so
// re-running the batch yields skipped records for already-sent guests.
func (s *OutboxService) SendEventInvites(ctx context.Context, eventID, userID uuid.UUID, eventName string, channels InviteChannels, subject, html string) (BatchInviteSummary, error) {
	guests, err := s.guestRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return BatchInviteSummary{}, fmt.Errorf("failed to list guests for event %s: %w", eventID, err)
	}

	var summary BatchInviteSummary
	eventRef := uuid.NullUUID{UUID: eventID, Valid: true}
	for _, g := range guests {
		guestRef := uuid.NullUUID{UUID: g.ID, Valid: true}

		if channels.Email && g.Email != "" {
			res, err := s.EnqueueEmail(ctx, EnqueueEmailRequest{
				To:      g.Email,
				Subject: subject,
				HTML:    html,
				UserID:  userID,
				EventID: eventRef,
				GuestID: guestRef,
			})
			if err != nil {
				return summary, err
			}
			if res.Success {
				summary.EmailQueued++
			} else {
				summary.Rejected = append(summary.Rejected, fmt.Sprintf("%s (email): %s", g.Name, res.Message))
			}
		}

		if channels.WhatsApp && g.Phone != "" {
			res, err := s.EnqueueWhatsApp(ctx, EnqueueWhatsAppRequest{
				To:         g.Phone,
				GuestName:  g.Name,
				EventName:  eventName,
				TicketCode: g.ID.String(),
				UserID:     userID,
				EventID:    eventRef,
				GuestID:    guestRef,
			})
			if err != nil {
				return summary, err
			}
			if res.Success {
				summary.WhatsAppQueued++
			} else {
				summary.Rejected = append(summary.Rejected, fmt.Sprintf("%s (whatsapp): %s", g.Name, res.Message))
			}
		}
	}
	return summary, nil
}
