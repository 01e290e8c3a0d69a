package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gatepass/internal/domain/event"
	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/printjob"
	"gatepass/internal/events"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// GuestService owns the guest lifecycle and keeps the event aggregate in
// step with every mutation.
type GuestService struct {
	guestRepo repository.GuestRepository
	eventRepo repository.EventRepository
	stats     *StatsService
	printSvc  *PrintService
	activity  events.Publisher
	log       *logger.Logger
}

func NewGuestService(guestRepo repository.GuestRepository, eventRepo repository.EventRepository, stats *StatsService, printSvc *PrintService, activity events.Publisher, log *logger.Logger) *GuestService {
	if activity == nil {
		activity = events.NopPublisher{}
	}
	return &GuestService{
		guestRepo: guestRepo,
		eventRepo: eventRepo,
		stats:     stats,
		printSvc:  printSvc,
		activity:  activity,
		log:       log,
	}
}

type CreateGuestRequest struct {
	EventID       uuid.UUID
	Name          string
	Email         string
	Phone         string
	ExtraAdults   int
	ExtraChildren int
}

func (s *GuestService) Create(ctx context.Context, req CreateGuestRequest) (guest.Guest, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return guest.Guest{}, fmt.Errorf("%w: guest name is required", gatepass_errors.ErrInvalidInput)
	}
	if _, err := s.eventRepo.GetByID(ctx, req.EventID); err != nil {
		return guest.Guest{}, fmt.Errorf("event %s: %w", req.EventID, err)
	}

	g := guest.Guest{
		EventID:              req.EventID,
		Name:                 name,
		Email:                strings.TrimSpace(req.Email),
		Phone:                strings.TrimSpace(req.Phone),
		ExtraAdults:          req.ExtraAdults,
		ExtraChildren:        req.ExtraChildren,
		InviteWhatsAppStatus: guest.WhatsAppNone,
	}
	g.TotalAttendees = g.AttendeeCount()

	if err := s.guestRepo.Create(ctx, &g); err != nil {
		return guest.Guest{}, fmt.Errorf("failed to create guest: %w", err)
	}

	s.stats.Apply(ctx, DeltaForCreate(g))
	s.activity.Publish(ctx, events.EventTypeGuestCreated, g.EventID, g.ID, nil)
	return g, nil
}

func (s *GuestService) GetByID(ctx context.Context, id uuid.UUID) (guest.Guest, error) {
	return s.guestRepo.GetByID(ctx, id)
}

func (s *GuestService) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]guest.Guest, error) {
	return s.guestRepo.ListByEvent(ctx, eventID)
}

type UpdateGuestRequest struct {
	Name          *string
	Email         *string
	Phone         *string
	EventID       *uuid.UUID
	ExtraAdults   *int
	ExtraChildren *int
}

func (s *GuestService) Update(ctx context.Context, id uuid.UUID, req UpdateGuestRequest) (guest.Guest, error) {
	before, err := s.guestRepo.GetByID(ctx, id)
	if err != nil {
		return guest.Guest{}, err
	}

	after := before
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return guest.Guest{}, fmt.Errorf("%w: guest name is required", gatepass_errors.ErrInvalidInput)
		}
		after.Name = name
	}
	if req.Email != nil {
		after.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		after.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.EventID != nil && *req.EventID != before.EventID {
		if _, err := s.eventRepo.GetByID(ctx, *req.EventID); err != nil {
			return guest.Guest{}, fmt.Errorf("event %s: %w", *req.EventID, err)
		}
		after.EventID = *req.EventID
	}
	if req.ExtraAdults != nil {
		after.ExtraAdults = *req.ExtraAdults
	}
	if req.ExtraChildren != nil {
		after.ExtraChildren = *req.ExtraChildren
	}
	after.TotalAttendees = after.AttendeeCount()

	if err := s.guestRepo.Update(ctx, after); err != nil {
		return guest.Guest{}, fmt.Errorf("failed to update guest %s: %w", id, err)
	}

	s.stats.Apply(ctx, DeltasForUpdate(before, after)...)
	return after, nil
}

func (s *GuestService) Delete(ctx context.Context, id uuid.UUID) error {
	g, err := s.guestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guestRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete guest %s: %w", id, err)
	}
	s.stats.Apply(ctx, DeltaForDelete(g))
	s.activity.Publish(ctx, events.EventTypeGuestDeleted, g.EventID, g.ID, nil)
	return nil
}

type CheckInRequest struct {
	GuestID      uuid.UUID
	VerifiedBy   string
	Source       printjob.Source
	EnqueuePrint bool
}

type CheckInResult struct {
	Guest      guest.Guest
	PrintJobID uuid.NullUUID
}

// CheckIn marks the guest arrived. VerifiedBy is always taken from the
// request, never inferred from provider configuration or session state.
// Re-checking an already arrived guest is a no-op for the aggregate.
func (s *GuestService) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResult, error) {
	g, err := s.guestRepo.GetByID(ctx, req.GuestID)
	if err != nil {
		return CheckInResult{}, err
	}

	result := CheckInResult{Guest: g}
	if !g.CheckedIn {
		at := gatepass_errors.NowPtr()
		if err := s.guestRepo.SetCheckedIn(ctx, g.ID, *at, req.VerifiedBy); err != nil {
			return CheckInResult{}, fmt.Errorf("failed to check in guest %s: %w", g.ID, err)
		}
		g.CheckedIn = true
		g.CheckedInAt = at
		g.VerifiedBy = req.VerifiedBy
		result.Guest = g

		s.stats.Apply(ctx, event.Delta{
			EventID:            g.EventID,
			CheckedInGuests:    1,
			AttendeesCheckedIn: g.AttendeeCount(),
		})
		s.activity.Publish(ctx, events.EventTypeGuestCheckedIn, g.EventID, g.ID, map[string]any{
			"verified_by": req.VerifiedBy,
			"party_size":  g.AttendeeCount(),
		})
	}

	if req.EnqueuePrint && s.printSvc != nil {
		source := req.Source
		if source == "" {
			source = printjob.SourceScanner
		}
		job, err := s.printSvc.EnqueueJob(ctx, EnqueuePrintRequest{
			EventID:     g.EventID,
			GuestID:     g.ID,
			Source:      source,
			RequestedBy: req.VerifiedBy,
		})
		if err != nil {
			// Check-in already succeeded; a print failure must not undo it.
			s.log.Errorf("print enqueue after check-in of guest %s failed: %v", g.ID, err)
		} else {
			result.PrintJobID = uuid.NullUUID{UUID: job.ID, Valid: true}
		}
	}

	return result, nil
}
