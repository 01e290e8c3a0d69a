package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatepass/internal/domain/printjob"
	gatepass_errors "gatepass/pkg/errors"
)

type fakePrintLock struct {
	mu      sync.Mutex
	holders map[string]string
}

func printLockKey(eventID, guestID uuid.UUID) string {
	return eventID.String() + "/" + guestID.String()
}

func (l *fakePrintLock) Acquire(_ context.Context, eventID, guestID uuid.UUID, holder string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders == nil {
		l.holders = make(map[string]string)
	}
	key := printLockKey(eventID, guestID)
	if _, held := l.holders[key]; held {
		return false, nil
	}
	l.holders[key] = holder
	return true, nil
}

func (l *fakePrintLock) Release(_ context.Context, eventID, guestID uuid.UUID, holder string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := printLockKey(eventID, guestID)
	if l.holders[key] == holder {
		delete(l.holders, key)
	}
	return nil
}

func newPrintFixture() (*memPrintRepo, *memGuestRepo, *PrintService) {
	prints := newMemPrintRepo()
	guests := newMemGuestRepo()
	svc := NewPrintService(prints, guests, nil, testLogger())
	return prints, guests, svc
}

func TestClaimNextTwoStationsOneJob(t *testing.T) {
	_, _, svc := newPrintFixture()
	eventID := uuid.New()

	job, err := svc.EnqueueJob(context.Background(), EnqueuePrintRequest{
		EventID: eventID,
		GuestID: uuid.New(),
		Source:  printjob.SourceScanner,
	})
	require.NoError(t, err)

	first, err := svc.ClaimNext(context.Background(), eventID, "station-1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, job.ID, first.ID)
	assert.Equal(t, "station-1", first.StationID)

	second, err := svc.ClaimNext(context.Background(), eventID, "station-2")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestClaimNextStaleClaimReclaimable(t *testing.T) {
	_, _, svc := newPrintFixture()
	eventID := uuid.New()

	_, err := svc.EnqueueJob(context.Background(), EnqueuePrintRequest{
		EventID: eventID,
		GuestID: uuid.New(),
		Source:  printjob.SourceScanner,
	})
	require.NoError(t, err)

	base := time.Now()
	svc.now = func() time.Time { return base }

	claimed, err := svc.ClaimNext(context.Background(), eventID, "station-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	// Five seconds in, the claim is still fresh and no takeover happens.
	svc.now = func() time.Time { return base.Add(5 * time.Second) }
	blocked, err := svc.ClaimNext(context.Background(), eventID, "station-2")
	require.NoError(t, err)
	assert.Nil(t, blocked)

	// Past the staleness window the abandoned claim is taken over.
	svc.now = func() time.Time { return base.Add(printjob.ClaimTTL + time.Second) }
	takeover, err := svc.ClaimNext(context.Background(), eventID, "station-2")
	require.NoError(t, err)
	require.NotNil(t, takeover)
	assert.Equal(t, claimed.ID, takeover.ID)
	assert.Equal(t, "station-2", takeover.StationID)
}

func TestCompleteJobMarksGuestPrinted(t *testing.T) {
	_, guests, svc := newPrintFixture()
	eventID := uuid.New()
	g := guests.seed(guestWithEvent(eventID))

	_, err := svc.EnqueueJob(context.Background(), EnqueuePrintRequest{
		EventID: eventID,
		GuestID: g.ID,
		Source:  printjob.SourceSelfCheckin,
	})
	require.NoError(t, err)

	claimed, err := svc.ClaimNext(context.Background(), eventID, "station-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, svc.CompleteJob(context.Background(), eventID, claimed.ID, "station-1"))

	done, err := svc.GetJob(context.Background(), eventID, claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, printjob.StatusDone, done.Status)

	updated, err := guests.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.True(t, updated.IDCardPrinted)
}

func TestCompleteJobRejectsWrongStation(t *testing.T) {
	_, guests, svc := newPrintFixture()
	eventID := uuid.New()
	g := guests.seed(guestWithEvent(eventID))

	_, err := svc.EnqueueJob(context.Background(), EnqueuePrintRequest{EventID: eventID, GuestID: g.ID})
	require.NoError(t, err)

	claimed, err := svc.ClaimNext(context.Background(), eventID, "station-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	err = svc.CompleteJob(context.Background(), eventID, claimed.ID, "station-2")
	assert.Error(t, err)

	job, err := svc.GetJob(context.Background(), eventID, claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, printjob.StatusClaimed, job.Status)
}

func TestAcquirePrintLockHeldIsConflict(t *testing.T) {
	_, _, svc := newPrintFixture()
	svc.lock = &fakePrintLock{}
	eventID := uuid.New()
	guestID := uuid.New()

	release, err := svc.AcquirePrintLock(context.Background(), eventID, guestID, "tab-1")
	require.NoError(t, err)

	// A second tab cannot take the same guest while tab-1 holds the lock.
	_, err = svc.AcquirePrintLock(context.Background(), eventID, guestID, "tab-2")
	assert.ErrorIs(t, err, gatepass_errors.ErrConflict)

	// Another guest of the same event is not affected.
	_, err = svc.AcquirePrintLock(context.Background(), eventID, uuid.New(), "tab-2")
	assert.NoError(t, err)

	release(context.Background())
	_, err = svc.AcquirePrintLock(context.Background(), eventID, guestID, "tab-2")
	assert.NoError(t, err)
}

func TestFailJobRecordsReason(t *testing.T) {
	_, guests, svc := newPrintFixture()
	eventID := uuid.New()
	g := guests.seed(guestWithEvent(eventID))

	_, err := svc.EnqueueJob(context.Background(), EnqueuePrintRequest{EventID: eventID, GuestID: g.ID})
	require.NoError(t, err)

	claimed, err := svc.ClaimNext(context.Background(), eventID, "station-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)

	require.NoError(t, svc.FailJob(context.Background(), eventID, claimed.ID, "station-1", "printer jam"))

	job, err := svc.GetJob(context.Background(), eventID, claimed.ID)
	require.NoError(t, err)
	assert.Equal(t, printjob.StatusFailed, job.Status)
	assert.Equal(t, "printer jam", job.Error)

	updated, err := guests.GetByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.False(t, updated.IDCardPrinted)
}
