package booking

import (
    "context"
    "sync"
    "testing"
    "time"

    "marina-reservation/internal/model"
)

const (
    testTenant   = uint64(1)
    testModel    = uint64(1)
    testCustomer = uint64(5)
)

// testEnv bundles the service with its fakes so tests can reach in.
type testEnv struct {
    svc   *Service
    store *memStore
    fleet *fakeFleet
    clock *fakeClock
}

func newTestEnv(units int, pol model.CapacityPolicy) *testEnv {
    store := newMemStore()
    store.policies[testTenant] = pol
    fleet := &fakeFleet{
        units: map[uint64]int{testModel: units},
        boats: map[uint64]*model.Boat{},
    }
    customers := &fakeCustomers{byID: map[uint64]*model.Customer{
        testCustomer: {ID: testCustomer, TenantID: testTenant, FullName: "Ana Reyes", IsActive: true, TermsAccepted: true},
        6:            {ID: 6, TenantID: testTenant, FullName: "No Terms", IsActive: true, TermsAccepted: false},
    }}
    clock := &fakeClock{t: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)}
    svc := NewService(store, fleet, customers, &fakePolicies{policy: pol}, clock)
    return &testEnv{svc: svc, store: store, fleet: fleet, clock: clock}
}

func (e *testEnv) addBoat(id, modelID uint64, status string) {
    e.fleet.boats[id] = &model.Boat{ID: id, TenantID: testTenant, ModelID: modelID, Status: status, IsActive: true}
}

func (e *testEnv) window() (time.Time, time.Time) {
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    return start, start.Add(2 * time.Hour)
}

func (e *testEnv) create(t *testing.T, p CreateParams) *model.Reservation {
    t.Helper()
    r, err := e.svc.Create(context.Background(), testTenant, p)
    if err != nil {
        t.Fatalf("create reservation: %v", err)
    }
    return r
}

func wantKind(t *testing.T, err error, kind Kind) {
    t.Helper()
    if err == nil {
        t.Fatalf("expected %s error, got nil", kind)
    }
    if got := KindOf(err); got != kind {
        t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
    }
}

func TestCreateReservation(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    start, end := env.window()
    r := env.create(t, CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end})

    if r.Status != model.StatusPending || r.Tier != model.TierRegular {
        t.Fatalf("new reservation must be PENDING/REGULAR, got %s/%s", r.Status, r.Tier)
    }
    if !r.IsActive || r.DepositPaid {
        t.Fatalf("new reservation must be active and unpaid: %+v", r)
    }
    wantExp := start.Add(30 * time.Minute)
    if r.ExpiresAt == nil || !r.ExpiresAt.Equal(wantExp) {
        t.Fatalf("expiresAt = %v, want %v", r.ExpiresAt, wantExp)
    }
}

func TestCreateValidation(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    start, end := env.window()
    ctx := context.Background()

    _, err := env.svc.Create(ctx, testTenant, CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: end, EndAt: start})
    wantKind(t, err, KindValidation)

    past := env.clock.Now().Add(-time.Hour)
    _, err = env.svc.Create(ctx, testTenant, CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: past, EndAt: end})
    wantKind(t, err, KindValidation)

    _, err = env.svc.Create(ctx, testTenant, CreateParams{ModelID: testModel, CustomerID: 6, StartAt: start, EndAt: end})
    wantKind(t, err, KindValidation) // terms not accepted

    _, err = env.svc.Create(ctx, testTenant, CreateParams{ModelID: testModel, CustomerID: 999, StartAt: start, EndAt: end})
    wantKind(t, err, KindNotFound)

    _, err = env.svc.Create(ctx, testTenant, CreateParams{ModelID: 999, CustomerID: testCustomer, StartAt: start, EndAt: end})
    wantKind(t, err, KindNotFound)
}

func TestCreateRegularCeiling(t *testing.T) {
    // 2 units, factor 1.0, so exactly 2 regular bookings fit.
    env := newTestEnv(2, policy(1.0, 10))
    start, end := env.window()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}
    env.create(t, p)
    env.create(t, p)

    _, err := env.svc.Create(context.Background(), testTenant, p)
    wantKind(t, err, KindCapacity)

    // A disjoint window is unaffected.
    later := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: end, EndAt: end.Add(time.Hour)}
    env.create(t, later)
}

func TestCreateUnitSpecificConflicts(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    env.addBoat(7, testModel, model.BoatAvailable)
    unit := uint64(7)
    day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
    at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

    env.create(t, CreateParams{ModelID: testModel, CustomerID: testCustomer, UnitID: &unit, StartAt: at(10, 0), EndAt: at(11, 0)})

    // Overlapping request for the same unit is a hard conflict.
    _, err := env.svc.Create(context.Background(), testTenant,
        CreateParams{ModelID: testModel, CustomerID: testCustomer, UnitID: &unit, StartAt: at(10, 30), EndAt: at(11, 30)})
    wantKind(t, err, KindConflict)

    // Back-to-back is fine: windows are half-open.
    env.create(t, CreateParams{ModelID: testModel, CustomerID: testCustomer, UnitID: &unit, StartAt: at(11, 0), EndAt: at(12, 0)})
}

func TestCreateUnitOfWrongModel(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    env.fleet.units[2] = 1
    env.addBoat(9, 2, model.BoatAvailable)
    unit := uint64(9)
    start, end := env.window()
    _, err := env.svc.Create(context.Background(), testTenant,
        CreateParams{ModelID: testModel, CustomerID: testCustomer, UnitID: &unit, StartAt: start, EndAt: end})
    wantKind(t, err, KindValidation)
}

func TestConfirmRevalidatesCapacity(t *testing.T) {
    env := newTestEnv(2, policy(1.0, 10))
    start, end := env.window()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}
    a := env.create(t, p)
    env.create(t, p)

    // The fleet shrinks between request and confirmation: maxRegular drops
    // to 1 and the window already holds another active reservation.
    env.fleet.units[testModel] = 1
    _, err := env.svc.Confirm(context.Background(), testTenant, a.ID)
    wantKind(t, err, KindCapacity)

    // With the fleet back, confirmation succeeds and is not repeatable.
    env.fleet.units[testModel] = 2
    got, err := env.svc.Confirm(context.Background(), testTenant, a.ID)
    if err != nil {
        t.Fatalf("confirm: %v", err)
    }
    if got.Status != model.StatusConfirmed {
        t.Fatalf("status = %s, want CONFIRMED", got.Status)
    }
    _, err = env.svc.Confirm(context.Background(), testTenant, a.ID)
    wantKind(t, err, KindIllegalState)
}

func TestCancel(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    start, end := env.window()
    r := env.create(t, CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end})

    got, err := env.svc.Cancel(context.Background(), testTenant, r.ID)
    if err != nil {
        t.Fatalf("cancel: %v", err)
    }
    if got.Status != model.StatusCancelled || got.IsActive {
        t.Fatalf("cancelled reservation = %+v", got)
    }

    // Cancelling again surfaces the programming error.
    _, err = env.svc.Cancel(context.Background(), testTenant, r.ID)
    wantKind(t, err, KindIllegalState)

    // A cancelled booking frees its slot.
    env2 := newTestEnv(1, policy(1.0, 10))
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}
    first := env2.create(t, p)
    _, err = env2.svc.Create(context.Background(), testTenant, p)
    wantKind(t, err, KindCapacity)
    if _, err := env2.svc.Cancel(context.Background(), testTenant, first.ID); err != nil {
        t.Fatalf("cancel: %v", err)
    }
    env2.create(t, p)
}

func TestCancelTenantIsolation(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    start, end := env.window()
    r := env.create(t, CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end})

    // Another tenant sees the reservation as missing, not forbidden.
    _, err := env.svc.Cancel(context.Background(), 2, r.ID)
    wantKind(t, err, KindNotFound)
}

func TestConfirmDeposit(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    start, end := env.window()
    r := env.create(t, CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end})

    _, err := env.svc.ConfirmDeposit(context.Background(), testTenant, r.ID, 0)
    wantKind(t, err, KindValidation)

    got, err := env.svc.ConfirmDeposit(context.Background(), testTenant, r.ID, 5000)
    if err != nil {
        t.Fatalf("confirm deposit: %v", err)
    }
    if got.Tier != model.TierGuaranteed || !got.DepositPaid || got.DepositCents != 5000 || got.DepositPaidAt == nil {
        t.Fatalf("upgraded reservation = %+v", got)
    }

    // The deposit is recorded at most once.
    _, err = env.svc.ConfirmDeposit(context.Background(), testTenant, r.ID, 5000)
    wantKind(t, err, KindIllegalState)
}

func TestConfirmDepositGuaranteedCeiling(t *testing.T) {
    // One physical unit, overbooking allows two regular bookings, but only
    // one may ever be guaranteed.
    env := newTestEnv(1, policy(2.0, 10))
    start, end := env.window()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}
    a := env.create(t, p)
    b := env.create(t, p)

    if _, err := env.svc.ConfirmDeposit(context.Background(), testTenant, a.ID, 1000); err != nil {
        t.Fatalf("first deposit: %v", err)
    }
    _, err := env.svc.ConfirmDeposit(context.Background(), testTenant, b.ID, 1000)
    wantKind(t, err, KindCapacity)
}

func TestConcurrentDepositsNeverOverAdmit(t *testing.T) {
    // Two simultaneous guaranteed upgrades against a single physical
    // unit. Exactly one may win.
    env := newTestEnv(1, policy(2.0, 10))
    start, end := env.window()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}
    a := env.create(t, p)
    b := env.create(t, p)

    var wg sync.WaitGroup
    errs := make([]error, 2)
    for i, id := range []uint64{a.ID, b.ID} {
        wg.Add(1)
        go func(i int, id uint64) {
            defer wg.Done()
            _, errs[i] = env.svc.ConfirmDeposit(context.Background(), testTenant, id, 1000)
        }(i, id)
    }
    wg.Wait()

    var ok, capacity int
    for _, err := range errs {
        switch {
        case err == nil:
            ok++
        case KindOf(err) == KindCapacity:
            capacity++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if ok != 1 || capacity != 1 {
        t.Fatalf("got %d successes and %d capacity rejections, want 1 and 1", ok, capacity)
    }
}

func TestConcurrentCreatesNeverOverAdmit(t *testing.T) {
    env := newTestEnv(2, policy(1.0, 10)) // maxRegular = 2
    start, end := env.window()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}

    const attempts = 6
    var wg sync.WaitGroup
    errs := make([]error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = env.svc.Create(context.Background(), testTenant, p)
        }(i)
    }
    wg.Wait()

    var ok int
    for _, err := range errs {
        if err == nil {
            ok++
        } else if KindOf(err) != KindCapacity {
            t.Fatalf("unexpected error: %v", err)
        }
    }
    if ok != 2 {
        t.Fatalf("%d creates admitted, want exactly 2", ok)
    }
}

func TestAllocateUnit(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    env.addBoat(7, testModel, model.BoatAvailable)
    env.addBoat(8, testModel, model.BoatMaintenance)
    env.fleet.units[2] = 1
    env.addBoat(9, 2, model.BoatAvailable)
    start, end := env.window()
    ctx := context.Background()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}

    r := env.create(t, p)

    // Allocation on a PENDING reservation is rejected.
    _, err := env.svc.AllocateUnit(ctx, testTenant, r.ID, 7)
    wantKind(t, err, KindIllegalState)

    if _, err := env.svc.Confirm(ctx, testTenant, r.ID); err != nil {
        t.Fatalf("confirm: %v", err)
    }

    // Wrong model and unavailable units are rejected.
    _, err = env.svc.AllocateUnit(ctx, testTenant, r.ID, 9)
    wantKind(t, err, KindValidation)
    _, err = env.svc.AllocateUnit(ctx, testTenant, r.ID, 8)
    wantKind(t, err, KindConflict)
    _, err = env.svc.AllocateUnit(ctx, testTenant, r.ID, 999)
    wantKind(t, err, KindNotFound)

    got, err := env.svc.AllocateUnit(ctx, testTenant, r.ID, 7)
    if err != nil {
        t.Fatalf("allocate: %v", err)
    }
    if got.UnitID == nil || *got.UnitID != 7 {
        t.Fatalf("unit = %v, want 7", got.UnitID)
    }

    // The unit ID is set once.
    _, err = env.svc.AllocateUnit(ctx, testTenant, r.ID, 7)
    wantKind(t, err, KindIllegalState)

    // A second confirmed reservation cannot grab the same boat for an
    // overlapping window.
    other := env.create(t, p)
    if _, err := env.svc.Confirm(ctx, testTenant, other.ID); err != nil {
        t.Fatalf("confirm: %v", err)
    }
    _, err = env.svc.AllocateUnit(ctx, testTenant, other.ID, 7)
    wantKind(t, err, KindConflict)
}

func TestCheckAvailability(t *testing.T) {
    env := newTestEnv(3, policy(1.5, 8))
    start, end := env.window()
    ctx := context.Background()

    a, err := env.svc.CheckAvailability(ctx, testTenant, testModel, start, end)
    if err != nil {
        t.Fatalf("check availability: %v", err)
    }
    if a.MaxRegular != 5 || !a.AcceptsGuaranteed || !a.AcceptsRegular ||
        a.RemainingGuaranteed != 3 || a.RemainingRegular != 5 {
        t.Fatalf("empty window report = %+v", a)
    }
    if a.ModelID != testModel || !a.StartAt.Equal(start) || !a.EndAt.Equal(end) {
        t.Fatalf("report must echo the query: %+v", a)
    }

    // Three guaranteed reservations exhaust the physical ceiling while
    // regular capacity remains.
    for i := 0; i < 3; i++ {
        env.store.seed(model.Reservation{
            TenantID: testTenant, ModelID: testModel, CustomerID: testCustomer,
            StartAt: start, EndAt: end,
            Tier: model.TierGuaranteed, Status: model.StatusConfirmed,
            DepositPaid: true, IsActive: true,
        })
    }
    a, err = env.svc.CheckAvailability(ctx, testTenant, testModel, start, end)
    if err != nil {
        t.Fatalf("check availability: %v", err)
    }
    if a.AcceptsGuaranteed || a.RemainingGuaranteed != 0 {
        t.Fatalf("guaranteed must be exhausted: %+v", a)
    }
    if !a.AcceptsRegular || a.RemainingRegular != 2 {
        t.Fatalf("regular must still fit: %+v", a)
    }

    _, err = env.svc.CheckAvailability(ctx, testTenant, 999, start, end)
    wantKind(t, err, KindNotFound)
    _, err = env.svc.CheckAvailability(ctx, testTenant, testModel, end, start)
    wantKind(t, err, KindValidation)
}

func TestGuaranteedInvariantUnderMixedOperations(t *testing.T) {
    // For any sequence of create/confirm/deposit/cancel, guaranteed
    // reservations overlapping the window never exceed the unit count.
    const units = 2
    env := newTestEnv(units, policy(3.0, 20))
    start, end := env.window()
    ctx := context.Background()
    p := CreateParams{ModelID: testModel, CustomerID: testCustomer, StartAt: start, EndAt: end}

    var ids []uint64
    for i := 0; i < 6; i++ {
        r := env.create(t, p)
        ids = append(ids, r.ID)
    }
    // Deposits race; cancels interleave.
    var wg sync.WaitGroup
    for _, id := range ids {
        wg.Add(1)
        go func(id uint64) {
            defer wg.Done()
            _, _ = env.svc.ConfirmDeposit(ctx, testTenant, id, 1000)
        }(id)
    }
    wg.Wait()
    counts, err := env.store.CountsInWindow(ctx, testTenant, testModel, Window{Start: start, End: end})
    if err != nil {
        t.Fatalf("counts: %v", err)
    }
    if counts.Guaranteed > units {
        t.Fatalf("capacity invariant violated: %d guaranteed > %d units", counts.Guaranteed, units)
    }
    if counts.Guaranteed != units {
        t.Fatalf("expected the ceiling to be reached, got %d", counts.Guaranteed)
    }
}
