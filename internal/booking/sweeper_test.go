package booking

import (
    "context"
    "testing"
    "time"

    "marina-reservation/internal/model"
)

// seedPending inserts an unpaid PENDING reservation whose grace period ran
// out at the given expiry.
func seedPending(store *memStore, id uint64, start time.Time, graceMin int) *model.Reservation {
    exp := start.Add(time.Duration(graceMin) * time.Minute)
    return store.seed(model.Reservation{
        ID:         id,
        TenantID:   testTenant,
        ModelID:    testModel,
        CustomerID: testCustomer,
        StartAt:    start,
        EndAt:      start.Add(2 * time.Hour),
        Tier:       model.TierRegular,
        Status:     model.StatusPending,
        ExpiresAt:  &exp,
        IsActive:   true,
    })
}

func TestSweepExpiresNoShow(t *testing.T) {
    store := newMemStore()
    notifier := &fakeNotifier{}
    // Start time 40 minutes in the past with a 30 minute grace period.
    clock := &fakeClock{t: time.Date(2025, 2, 1, 10, 40, 0, 0, time.UTC)}
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    r := seedPending(store, 0, start, 30)

    sw := NewSweeper(store, notifier, clock, time.Minute, 100)
    expired, failed := sw.SweepOnce(context.Background())
    if expired != 1 || failed != 0 {
        t.Fatalf("sweep = (%d, %d), want (1, 0)", expired, failed)
    }
    got := store.get(r.ID)
    if got.Status != model.StatusExpired || got.IsActive {
        t.Fatalf("reservation after sweep = %+v", got)
    }
    if len(notifier.expired) != 1 || notifier.expired[0] != r.ID {
        t.Fatalf("expired events = %v", notifier.expired)
    }
}

func TestSweepSkipsDeposited(t *testing.T) {
    store := newMemStore()
    clock := &fakeClock{t: time.Date(2025, 2, 1, 10, 40, 0, 0, time.UTC)}
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    r := seedPending(store, 0, start, 30)

    // Deposit recorded before the sweep: the reservation is guaranteed and
    // never auto-expires.
    store.mu.Lock()
    stored := store.reservations[r.ID]
    stored.DepositPaid = true
    stored.Tier = model.TierGuaranteed
    store.mu.Unlock()

    sw := NewSweeper(store, &fakeNotifier{}, clock, time.Minute, 100)
    expired, failed := sw.SweepOnce(context.Background())
    if expired != 0 || failed != 0 {
        t.Fatalf("sweep = (%d, %d), want (0, 0)", expired, failed)
    }
    if got := store.get(r.ID); got.Status != model.StatusPending || !got.IsActive {
        t.Fatalf("deposited reservation must be untouched: %+v", got)
    }
}

func TestSweepBeforeGraceDoesNothing(t *testing.T) {
    store := newMemStore()
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    r := seedPending(store, 0, start, 30)
    clock := &fakeClock{t: start.Add(10 * time.Minute)} // inside grace

    sw := NewSweeper(store, &fakeNotifier{}, clock, time.Minute, 100)
    if expired, _ := sw.SweepOnce(context.Background()); expired != 0 {
        t.Fatalf("expired %d reservations inside the grace period", expired)
    }
    if got := store.get(r.ID); got.Status != model.StatusPending {
        t.Fatalf("status = %s, want PENDING", got.Status)
    }
}

func TestSweepIdempotent(t *testing.T) {
    store := newMemStore()
    notifier := &fakeNotifier{}
    clock := &fakeClock{t: time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)}
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    seedPending(store, 0, start, 30)
    seedPending(store, 0, start.Add(5*time.Minute), 30)

    sw := NewSweeper(store, notifier, clock, time.Minute, 100)
    expired, _ := sw.SweepOnce(context.Background())
    if expired != 2 {
        t.Fatalf("first sweep expired %d, want 2", expired)
    }
    // The second run finds nothing left to do and emits nothing.
    expired, failed := sw.SweepOnce(context.Background())
    if expired != 0 || failed != 0 {
        t.Fatalf("second sweep = (%d, %d), want (0, 0)", expired, failed)
    }
    if len(notifier.expired) != 2 {
        t.Fatalf("events = %d, want exactly 2", len(notifier.expired))
    }
}

func TestSweepIsolatesFailures(t *testing.T) {
    store := newMemStore()
    clock := &fakeClock{t: time.Date(2025, 2, 1, 11, 0, 0, 0, time.UTC)}
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    bad := seedPending(store, 0, start, 30)
    good := seedPending(store, 0, start, 30)
    store.failExpireID = bad.ID

    sw := NewSweeper(store, &fakeNotifier{}, clock, time.Minute, 100)
    expired, failed := sw.SweepOnce(context.Background())
    if expired != 1 || failed != 1 {
        t.Fatalf("sweep = (%d, %d), want (1, 1)", expired, failed)
    }
    if got := store.get(good.ID); got.Status != model.StatusExpired {
        t.Fatalf("healthy reservation must still expire: %+v", got)
    }
}

func TestNoticeFiresOnce(t *testing.T) {
    store := newMemStore()
    store.policies[testTenant] = model.CapacityPolicy{
        TenantID:          testTenant,
        GraceMinutes:      30,
        OverbookingFactor: 1.2,
        AbsoluteCap:       10,
        NoticeEnabled:     true,
        NoticeLeadMinutes: 60,
    }
    notifier := &fakeNotifier{}
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    r := seedPending(store, 0, start, 30) // expires 10:30
    clock := &fakeClock{t: start.Add(-15 * time.Minute)} // 09:45, inside the 60m lead

    sw := NewSweeper(store, notifier, clock, time.Minute, 100)
    sent, failed := sw.NoticeOnce(context.Background())
    if sent != 1 || failed != 0 {
        t.Fatalf("notice = (%d, %d), want (1, 0)", sent, failed)
    }
    // Second pass: the notice_sent guard holds.
    sent, _ = sw.NoticeOnce(context.Background())
    if sent != 0 {
        t.Fatalf("notice fired twice for reservation %d", r.ID)
    }
    if len(notifier.approaching) != 1 {
        t.Fatalf("approaching events = %v", notifier.approaching)
    }
}

func TestNoticeRespectsPolicyToggle(t *testing.T) {
    store := newMemStore()
    store.policies[testTenant] = model.CapacityPolicy{
        TenantID:          testTenant,
        GraceMinutes:      30,
        OverbookingFactor: 1.2,
        AbsoluteCap:       10,
        NoticeEnabled:     false,
        NoticeLeadMinutes: 60,
    }
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    seedPending(store, 0, start, 30)
    clock := &fakeClock{t: start}

    sw := NewSweeper(store, &fakeNotifier{}, clock, time.Minute, 100)
    if sent, _ := sw.NoticeOnce(context.Background()); sent != 0 {
        t.Fatalf("notice fired with the policy toggle off")
    }
}
