package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/printjob"
	"gatepass/internal/redis"
	"gatepass/internal/repository"
	gatepass_errors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
)

// guestPrintLock is the distributed per-guest lock contract, satisfied by
// redis.PrintLock.
type guestPrintLock interface {
	Acquire(ctx context.Context, eventID, guestID uuid.UUID, holder string) (bool, error)
	Release(ctx context.Context, eventID, guestID uuid.UUID, holder string) error
}

// PrintService manages the badge print queue. Claims go through the
// repository's conditional update; the per-guest print lock lives in Redis
// so stations on different hosts agree on it.
type PrintService struct {
	printRepo repository.PrintJobRepository
	guestRepo repository.GuestRepository
	lock      guestPrintLock
	log       *logger.Logger

	// now is swappable for tests exercising the staleness window.
	now func() time.Time
}

func NewPrintService(printRepo repository.PrintJobRepository, guestRepo repository.GuestRepository, lock *redis.PrintLock, log *logger.Logger) *PrintService {
	s := &PrintService{
		printRepo: printRepo,
		guestRepo: guestRepo,
		log:       log,
		now:       time.Now,
	}
	if lock != nil {
		s.lock = lock
	}
	return s
}

type EnqueuePrintRequest struct {
	EventID     uuid.UUID
	GuestID     uuid.UUID
	Source      printjob.Source
	RequestedBy string
}

func (s *PrintService) EnqueueJob(ctx context.Context, req EnqueuePrintRequest) (printjob.Job, error) {
	job := printjob.Job{
		EventID:     req.EventID,
		GuestID:     req.GuestID,
		Source:      req.Source,
		RequestedBy: req.RequestedBy,
		Status:      printjob.StatusQueued,
	}
	if err := s.printRepo.Enqueue(ctx, &job); err != nil {
		return printjob.Job{}, fmt.Errorf("failed to enqueue print job for guest %s: %w", req.GuestID, err)
	}
	return job, nil
}

func (s *PrintService) GetJob(ctx context.Context, eventID, jobID uuid.UUID) (printjob.Job, error) {
	return s.printRepo.GetByID(ctx, eventID, jobID)
}

// ClaimNext hands the station the oldest actionable job, which may be a
// stale claim abandoned by another station. Nil job means the queue is idle.
func (s *PrintService) ClaimNext(ctx context.Context, eventID uuid.UUID, stationID string) (*printjob.Job, error) {
	staleBefore := s.now().Add(-printjob.ClaimTTL)
	return s.printRepo.ClaimNext(ctx, eventID, stationID, staleBefore)
}

// CompleteJob finishes a claimed job and best-effort marks the guest's badge
// printed.
func (s *PrintService) CompleteJob(ctx context.Context, eventID, jobID uuid.UUID, stationID string) error {
	job, err := s.printRepo.GetByID(ctx, eventID, jobID)
	if err != nil {
		return err
	}
	if err := s.printRepo.Complete(ctx, eventID, jobID, stationID); err != nil {
		return err
	}
	if err := s.guestRepo.MarkIDCardPrinted(ctx, job.GuestID); err != nil {
		s.log.Warnf("guest %s not marked printed after job %s: %v", job.GuestID, jobID, err)
	}
	return nil
}

func (s *PrintService) FailJob(ctx context.Context, eventID, jobID uuid.UUID, stationID, reason string) error {
	return s.printRepo.Fail(ctx, eventID, jobID, stationID, reason)
}

// AcquirePrintLock takes the short-lived per-guest lock that keeps two
// admin tabs from printing the same badge at once. A held lock surfaces as
// ErrConflict. The returned release func is safe to call after expiry; it
// only deletes the holder's own entry.
func (s *PrintService) AcquirePrintLock(ctx context.Context, eventID, guestID uuid.UUID, holder string) (release func(context.Context), err error) {
	if s.lock == nil {
		return func(context.Context) {}, nil
	}
	ok, err := s.lock.Acquire(ctx, eventID, guestID, holder)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, gatepass_errors.ErrConflict
	}
	release = func(ctx context.Context) {
		if err := s.lock.Release(ctx, eventID, guestID, holder); err != nil {
			s.log.Warnf("print lock release for guest %s failed: %v", guestID, err)
		}
	}
	return release, nil
}
