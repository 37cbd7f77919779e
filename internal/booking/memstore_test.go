package booking

import (
    "context"
    "fmt"
    "sync"
    "time"

    "marina-reservation/internal/model"
)

// memStore is an in-memory Store used by the engine tests. WithModelLock
// takes a single mutex for the whole critical section, which gives the
// same serialization guarantee the MySQL implementation gets from its
// per-model row lock.
type memStore struct {
    mu           sync.Mutex
    nextID       uint64
    reservations map[uint64]*model.Reservation
    policies     map[uint64]model.CapacityPolicy
    failExpireID uint64 // MarkExpired errors for this ID, to test isolation
}

func newMemStore() *memStore {
    return &memStore{
        reservations: make(map[uint64]*model.Reservation),
        policies:     make(map[uint64]model.CapacityPolicy),
    }
}

// seed inserts a reservation directly, bypassing the service.
func (m *memStore) seed(r model.Reservation) *model.Reservation {
    m.mu.Lock()
    defer m.mu.Unlock()
    if r.ID == 0 {
        m.nextID++
        r.ID = m.nextID
    } else if r.ID > m.nextID {
        m.nextID = r.ID
    }
    cp := r
    m.reservations[r.ID] = &cp
    return &cp
}

func (m *memStore) get(id uint64) model.Reservation {
    m.mu.Lock()
    defer m.mu.Unlock()
    return *m.reservations[id]
}

type memTx struct{ s *memStore }

func (m *memStore) WithModelLock(ctx context.Context, tenantID, modelID uint64, fn func(tx Tx) error) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    return fn(memTx{s: m})
}

func (t memTx) CountsInWindow(ctx context.Context, tenantID, modelID uint64, w Window, excludeID uint64) (WindowCounts, error) {
    return t.s.countsLocked(tenantID, modelID, w, excludeID), nil
}

func (t memTx) UnitReservationsInWindow(ctx context.Context, tenantID, unitID uint64, w Window) ([]model.Reservation, error) {
    var out []model.Reservation
    for _, r := range t.s.reservations {
        if r.TenantID != tenantID || r.UnitID == nil || *r.UnitID != unitID {
            continue
        }
        if !r.IsActive {
            continue
        }
        if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
            continue
        }
        if w.Overlaps(Window{Start: r.StartAt, End: r.EndAt}) {
            out = append(out, *r)
        }
    }
    return out, nil
}

func (t memTx) GetReservation(ctx context.Context, tenantID, id uint64) (*model.Reservation, error) {
    r, ok := t.s.reservations[id]
    if !ok || r.TenantID != tenantID {
        return nil, ErrNotFound
    }
    cp := *r
    return &cp, nil
}

func (t memTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
    t.s.nextID++
    r.ID = t.s.nextID
    cp := *r
    t.s.reservations[r.ID] = &cp
    return nil
}

func (t memTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
    cur, ok := t.s.reservations[r.ID]
    if !ok || cur.Version != r.Version {
        return ErrNotFound
    }
    r.Version++
    cp := *r
    t.s.reservations[r.ID] = &cp
    return nil
}

func (m *memStore) countsLocked(tenantID, modelID uint64, w Window, excludeID uint64) WindowCounts {
    var c WindowCounts
    for _, r := range m.reservations {
        if r.TenantID != tenantID || r.ModelID != modelID || r.ID == excludeID {
            continue
        }
        if !r.IsActive {
            continue
        }
        if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
            continue
        }
        if !w.Overlaps(Window{Start: r.StartAt, End: r.EndAt}) {
            continue
        }
        c.Total++
        if r.Tier == model.TierGuaranteed {
            c.Guaranteed++
        }
    }
    return c
}

func (m *memStore) CountsInWindow(ctx context.Context, tenantID, modelID uint64, w Window) (WindowCounts, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    return m.countsLocked(tenantID, modelID, w, 0), nil
}

func (m *memStore) GetReservation(ctx context.Context, tenantID, id uint64) (*model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.reservations[id]
    if !ok || r.TenantID != tenantID {
        return nil, ErrNotFound
    }
    cp := *r
    return &cp, nil
}

func (m *memStore) ListReservations(ctx context.Context, tenantID uint64, status string) ([]model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Reservation
    for _, r := range m.reservations {
        if r.TenantID != tenantID {
            continue
        }
        if status != "" && r.Status != status {
            continue
        }
        out = append(out, *r)
    }
    return out, nil
}

func (m *memStore) ExpireCandidates(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Reservation
    for _, r := range m.reservations {
        if len(out) >= limit {
            break
        }
        if r.DepositPaid || !r.IsActive {
            continue
        }
        if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
            continue
        }
        if r.ExpiresAt == nil || now.Before(*r.ExpiresAt) {
            continue
        }
        out = append(out, *r)
    }
    return out, nil
}

func (m *memStore) MarkExpired(ctx context.Context, id uint64, version uint32, now time.Time) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    if id == m.failExpireID {
        return false, fmt.Errorf("injected failure for reservation %d", id)
    }
    r, ok := m.reservations[id]
    if !ok || r.Version != version || r.DepositPaid || !r.IsActive {
        return false, nil
    }
    if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
        return false, nil
    }
    r.Status = model.StatusExpired
    r.IsActive = false
    r.Version++
    r.UpdatedAt = now
    return true, nil
}

func (m *memStore) NoticeCandidates(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Reservation
    for _, r := range m.reservations {
        if len(out) >= limit {
            break
        }
        if r.DepositPaid || !r.IsActive || r.NoticeSent || r.ExpiresAt == nil {
            continue
        }
        if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
            continue
        }
        p, ok := m.policies[r.TenantID]
        if !ok || !p.NoticeEnabled {
            continue
        }
        lead := time.Duration(p.NoticeLeadMinutes) * time.Minute
        if now.Add(lead).Before(*r.ExpiresAt) {
            continue
        }
        out = append(out, *r)
    }
    return out, nil
}

func (m *memStore) MarkNoticeSent(ctx context.Context, id uint64, version uint32, now time.Time) (bool, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    r, ok := m.reservations[id]
    if !ok || r.Version != version || r.NoticeSent {
        return false, nil
    }
    r.NoticeSent = true
    r.Version++
    r.UpdatedAt = now
    return true, nil
}

func (m *memStore) NeedsReview(ctx context.Context, tenantID uint64, now time.Time) ([]model.Reservation, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    var out []model.Reservation
    for _, r := range m.reservations {
        if r.TenantID != tenantID || !r.DepositPaid || !r.IsActive {
            continue
        }
        if r.ExpiresAt == nil || now.Before(*r.ExpiresAt) {
            continue
        }
        out = append(out, *r)
    }
    return out, nil
}

// fakeFleet implements FleetDirectory over plain maps.
type fakeFleet struct {
    units map[uint64]int         // modelID -> active unit count
    boats map[uint64]*model.Boat // boatID -> boat
}

func (f *fakeFleet) ModelExists(ctx context.Context, tenantID, modelID uint64) (bool, error) {
    _, ok := f.units[modelID]
    return ok, nil
}

func (f *fakeFleet) UnitsOfModel(ctx context.Context, tenantID, modelID uint64) (int, error) {
    return f.units[modelID], nil
}

func (f *fakeFleet) GetBoat(ctx context.Context, tenantID, unitID uint64) (*model.Boat, error) {
    b, ok := f.boats[unitID]
    if !ok || b.TenantID != tenantID {
        return nil, ErrNotFound
    }
    cp := *b
    return &cp, nil
}

// fakeCustomers implements CustomerDirectory.
type fakeCustomers struct{ byID map[uint64]*model.Customer }

func (f *fakeCustomers) GetCustomer(ctx context.Context, tenantID, customerID uint64) (*model.Customer, error) {
    c, ok := f.byID[customerID]
    if !ok || c.TenantID != tenantID {
        return nil, ErrNotFound
    }
    cp := *c
    return &cp, nil
}

// fakePolicies returns the same policy for every tenant.
type fakePolicies struct{ policy model.CapacityPolicy }

func (f *fakePolicies) PolicyFor(ctx context.Context, tenantID uint64) (model.CapacityPolicy, error) {
    return f.policy, nil
}

// fakeClock is frozen until advanced.
type fakeClock struct {
    mu sync.Mutex
    t  time.Time
}

func (c *fakeClock) Now() time.Time {
    c.mu.Lock()
    defer c.mu.Unlock()
    return c.t
}

func (c *fakeClock) advance(d time.Duration) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.t = c.t.Add(d)
}

// fakeNotifier records published events.
type fakeNotifier struct {
    mu          sync.Mutex
    expired     []uint64
    approaching []uint64
}

func (n *fakeNotifier) ReservationExpired(ctx context.Context, r model.Reservation) {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.expired = append(n.expired, r.ID)
}

func (n *fakeNotifier) ExpirationApproaching(ctx context.Context, r model.Reservation) {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.approaching = append(n.approaching, r.ID)
}

// Compile-time interface checks.
var (
    _ Store             = (*memStore)(nil)
    _ Tx                = memTx{}
    _ FleetDirectory    = (*fakeFleet)(nil)
    _ CustomerDirectory = (*fakeCustomers)(nil)
    _ PolicySource      = (*fakePolicies)(nil)
    _ Clock             = (*fakeClock)(nil)
    _ Notifier          = (*fakeNotifier)(nil)
)
