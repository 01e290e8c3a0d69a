package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gatepass/internal/domain/event"
	"gatepass/internal/domain/guest"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// StatsService maintains the per-event attendance aggregate. Writers apply
// commuting deltas; readers fall back to a full guest scan when the cached
// row is missing.
type StatsService struct {
	statsRepo repository.StatsRepository
	log       *logger.Logger
}

func NewStatsService(statsRepo repository.StatsRepository, log *logger.Logger) *StatsService {
	return &StatsService{statsRepo: statsRepo, log: log}
}

// DeltaForCreate is the contribution of a newly created guest.
func DeltaForCreate(g guest.Guest) event.Delta {
	d := event.Delta{
		EventID:        g.EventID,
		TotalGuests:    1,
		AttendeesTotal: g.AttendeeCount(),
	}
	if g.CheckedIn {
		d.CheckedInGuests = 1
		d.AttendeesCheckedIn = g.AttendeeCount()
	}
	return d
}

// DeltaForDelete is the negation of the guest's current contribution.
func DeltaForDelete(g guest.Guest) event.Delta {
	return DeltaForCreate(g).Negate()
}

// DeltasForUpdate returns the adjustments an in-place guest edit needs. A
// guest moving between events yields two deltas, one per event row; same
// event edits yield at most one.
func DeltasForUpdate(before, after guest.Guest) []event.Delta {
	if before.EventID != after.EventID {
		return []event.Delta{DeltaForDelete(before), DeltaForCreate(after)}
	}

	d := event.Delta{EventID: after.EventID}
	d.AttendeesTotal = after.AttendeeCount() - before.AttendeeCount()
	if before.CheckedIn != after.CheckedIn {
		if after.CheckedIn {
			d.CheckedInGuests = 1
			d.AttendeesCheckedIn = after.AttendeeCount()
		} else {
			d.CheckedInGuests = -1
			d.AttendeesCheckedIn = -before.AttendeeCount()
		}
	} else if before.CheckedIn {
		d.AttendeesCheckedIn = after.AttendeeCount() - before.AttendeeCount()
	}

	if d.IsZero() {
		return nil
	}
	return []event.Delta{d}
}

// Apply writes deltas to the aggregate rows, skipping zero deltas. Failures
// are logged and swallowed: stats are a cache and the read path self-heals.
func (s *StatsService) Apply(ctx context.Context, deltas ...event.Delta) {
	for _, d := range deltas {
		if d.IsZero() {
			continue
		}
		if err := s.statsRepo.ApplyDelta(ctx, d); err != nil {
			s.log.Errorf("stats delta for event %s not applied: %v", d.EventID, err)
		}
	}
}

// GetEventStats returns the cached aggregate, rebuilding it from the guest
// table when no row exists yet.
func (s *StatsService) GetEventStats(ctx context.Context, eventID uuid.UUID) (event.Stats, error) {
	stats, err := s.statsRepo.Get(ctx, eventID)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, gatepass_errors.ErrNotFound) {
		return event.Stats{}, fmt.Errorf("failed to read stats for event %s: %w", eventID, err)
	}

	computed, err := s.statsRepo.ComputeFromGuests(ctx, eventID)
	if err != nil {
		return event.Stats{}, fmt.Errorf("failed to compute stats for event %s: %w", eventID, err)
	}

	// Seed the cache. A concurrent delta may have created the row first; the
	// insert is a no-op then and the next read sees the delta-maintained row.
	if err := s.statsRepo.Put(ctx, computed); err != nil {
		s.log.Warnf("stats seed for event %s not stored: %v", eventID, err)
	}
	return computed, nil
}
