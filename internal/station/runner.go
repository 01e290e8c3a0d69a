package station

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"gatepass/internal/domain/guest"
	"gatepass/internal/domain/printjob"
	"gatepass/internal/events"
	"gatepass/internal/repository"
	"gatepass/internal/services"
	"gatepass/pkg/logger"
)

// BadgeRenderer turns a guest into printable badge bytes.
type BadgeRenderer interface {
	Render(ctx context.Context, g guest.Guest) ([]byte, error)
}

// Printer sends rendered badge bytes to the physical device.
type Printer interface {
	Print(ctx context.Context, badge []byte) error
}

// Runner is the print station loop: poll for a claimable job, render, print,
// resolve. Any single job failure is recorded on that job and the loop moves
// on; the loop itself only stops on Stop.
type Runner struct {
	printSvc  *services.PrintService
	guestRepo repository.GuestRepository
	renderer  BadgeRenderer
	printer   Printer
	activity  events.Publisher
	log       *logger.Logger

	eventID   uuid.UUID
	stationID string
	interval  time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewRunner(printSvc *services.PrintService, guestRepo repository.GuestRepository, renderer BadgeRenderer, printer Printer, activity events.Publisher, log *logger.Logger, eventID uuid.UUID, stationID string, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	if activity == nil {
		activity = events.NopPublisher{}
	}
	return &Runner{
		printSvc:  printSvc,
		guestRepo: guestRepo,
		renderer:  renderer,
		printer:   printer,
		activity:  activity,
		log:       log,
		eventID:   eventID,
		stationID: stationID,
		interval:  interval,
		stopChan:  make(chan struct{}),
	}
}

func (r *Runner) Start() {
	r.wg.Add(1)
	go r.run()
}

func (r *Runner) Stop() {
	close(r.stopChan)
	r.wg.Wait()
}

func (r *Runner) run() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Infof("station %s polling print queue for event %s", r.stationID, r.eventID)
	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Runner) poll() {
	ctx := context.Background()
	job, err := r.printSvc.ClaimNext(ctx, r.eventID, r.stationID)
	if err != nil {
		r.log.Errorf("station %s claim poll failed: %v", r.stationID, err)
		return
	}
	if job == nil {
		return
	}
	r.handleJob(ctx, *job)
}

func (r *Runner) handleJob(ctx context.Context, job printjob.Job) {
	r.log.Infof("station %s claimed print job %s for guest %s", r.stationID, job.ID, job.GuestID)

	if err := r.printBadge(ctx, job); err != nil {
		r.log.Errorf("print job %s failed: %v", job.ID, err)
		if failErr := r.printSvc.FailJob(ctx, job.EventID, job.ID, r.stationID, err.Error()); failErr != nil {
			r.log.Errorf("print job %s not marked failed: %v", job.ID, failErr)
		}
		return
	}

	if err := r.printSvc.CompleteJob(ctx, job.EventID, job.ID, r.stationID); err != nil {
		r.log.Errorf("print job %s not marked done: %v", job.ID, err)
		return
	}
	r.activity.Publish(ctx, events.EventTypeBadgePrinted, job.EventID, job.GuestID, map[string]any{
		"station_id": r.stationID,
	})
}

func (r *Runner) printBadge(ctx context.Context, job printjob.Job) error {
	g, err := r.guestRepo.GetByID(ctx, job.GuestID)
	if err != nil {
		return fmt.Errorf("guest lookup: %w", err)
	}
	// Jobs are claimed per event, but a guest moved between events after
	// enqueue would print the wrong badge here.
	if g.EventID != job.EventID {
		return fmt.Errorf("guest %s no longer belongs to event %s", g.ID, job.EventID)
	}

	badge, err := r.renderer.Render(ctx, g)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := r.printer.Print(ctx, badge); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}
