package dispatch

import (
	"context"
	"sync"
	"time"

	"gatepass/internal/domain/outbox"
	"gatepass/internal/repository"
	"gatepass/pkg/logger"
)

// Worker polls the outbox and drives queued records through their channel
// dispatcher. Multiple workers (or instances) may poll the same table; the
// claim in the repository guarantees one dispatcher per record.
type Worker struct {
	outboxRepo  repository.OutboxRepository
	dispatchers map[outbox.Channel]Dispatcher
	log         *logger.Logger
	interval    time.Duration
	batchSize   int
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

func NewWorker(outboxRepo repository.OutboxRepository, log *logger.Logger, interval time.Duration, batchSize int, dispatchers ...Dispatcher) *Worker {
	byChannel := make(map[outbox.Channel]Dispatcher, len(dispatchers))
	for _, d := range dispatchers {
		byChannel[d.Channel()] = d
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Worker{
		outboxRepo:  outboxRepo,
		dispatchers: byChannel,
		log:         log,
		interval:    interval,
		batchSize:   batchSize,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the worker loop
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processBatch()
		}
	}
}

func (w *Worker) processBatch() {
	ctx := context.Background()
	records, err := w.outboxRepo.GetQueued(ctx, w.batchSize)
	if err != nil {
		w.log.Errorf("outbox poll failed: %v", err)
		return
	}

	for _, rec := range records {
		w.processRecord(ctx, rec)
	}
}

func (w *Worker) processRecord(ctx context.Context, rec outbox.Record) {
	dispatcher, ok := w.dispatchers[rec.Channel]
	if !ok {
		w.log.Warnf("no dispatcher registered for channel %s, record %s stays queued", rec.Channel, rec.ID)
		return
	}

	// Losing the claim race is not an error: another worker owns the
	// record, or it already went terminal.
	claimed, err := w.outboxRepo.ClaimQueued(ctx, rec.ID)
	if err != nil || !claimed {
		return
	}

	rec.Status = outbox.StatusProcessing
	dispatcher.Dispatch(ctx, rec)
}
