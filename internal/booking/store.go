package booking

import (
    "context"
    "errors"
    "time"

    "marina-reservation/internal/model"
)

// ErrNotFound is the sentinel implementations return (possibly wrapped) for
// missing rows. The service translates it into a KindNotFound Error.
var ErrNotFound = errors.New("not found")

// WindowCounts carries the pre-computed reservation counts for one model
// and window: how many active GUARANTEED reservations overlap it, and how
// many active reservations overlap it in total.
type WindowCounts struct {
    Guaranteed int
    Total      int
}

// Tx is the view of the store available inside a model-lock critical
// section. Every read it performs is guaranteed stable against concurrent
// check-then-reserve sequences for the same (tenant, model).
type Tx interface {
    // CountsInWindow counts active PENDING/CONFIRMED reservations of the
    // model overlapping the window. excludeID (0 = none) leaves one
    // reservation out, for re-validation of an existing booking.
    CountsInWindow(ctx context.Context, tenantID, modelID uint64, w Window, excludeID uint64) (WindowCounts, error)
    // UnitReservationsInWindow loads the active reservations holding the
    // given unit that overlap the window, for conflict detection.
    UnitReservationsInWindow(ctx context.Context, tenantID, unitID uint64, w Window) ([]model.Reservation, error)
    // GetReservation reloads a reservation under the lock.
    GetReservation(ctx context.Context, tenantID, id uint64) (*model.Reservation, error)
    // InsertReservation persists a new reservation and fills in its ID.
    InsertReservation(ctx context.Context, r *model.Reservation) error
    // UpdateReservation writes the mutable fields guarded by the version
    // column and bumps Version. A stale version returns ErrNotFound.
    UpdateReservation(ctx context.Context, r *model.Reservation) error
}

// Store is the persistence boundary of the engine. The MySQL implementation
// lives in internal/repository; tests use an in-memory fake.
type Store interface {
    // WithModelLock runs fn inside a transaction that holds the per-
    // (tenant, model) advisory lock for the whole check-then-reserve
    // sequence, so two concurrent admission checks for the same model are
    // serialized and can never jointly exceed a ceiling. fn returning an
    // error rolls the transaction back.
    WithModelLock(ctx context.Context, tenantID, modelID uint64, fn func(tx Tx) error) error
    // CountsInWindow is the lock-free variant used by the read-only
    // availability query.
    CountsInWindow(ctx context.Context, tenantID, modelID uint64, w Window) (WindowCounts, error)
    // GetReservation loads one reservation scoped to the tenant.
    GetReservation(ctx context.Context, tenantID, id uint64) (*model.Reservation, error)
    // ListReservations returns the tenant's reservations, optionally
    // filtered by status, newest first.
    ListReservations(ctx context.Context, tenantID uint64, status string) ([]model.Reservation, error)
    // ExpireCandidates returns up to limit reservations eligible for
    // auto-expiration: unpaid, active, PENDING/CONFIRMED, past expires_at.
    ExpireCandidates(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
    // MarkExpired applies the EXPIRED transition as a guarded conditional
    // update. It reports false without error when the row was already
    // processed by a concurrent sweep.
    MarkExpired(ctx context.Context, id uint64, version uint32, now time.Time) (bool, error)
    // NoticeCandidates returns unpaid active reservations entering their
    // tenant's pre-expiration notice lead, whose notice has not fired yet.
    NoticeCandidates(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error)
    // MarkNoticeSent flips notice_sent once, guarded like MarkExpired.
    MarkNoticeSent(ctx context.Context, id uint64, version uint32, now time.Time) (bool, error)
    // NeedsReview lists deposited (guaranteed) reservations past their
    // expiration marker. These are never auto-expired and wait for a
    // human decision.
    NeedsReview(ctx context.Context, tenantID uint64, now time.Time) ([]model.Reservation, error)
}

// FleetDirectory is the unit-directory collaborator contract. Reservations
// read unit counts and statuses; they never mutate them.
type FleetDirectory interface {
    ModelExists(ctx context.Context, tenantID, modelID uint64) (bool, error)
    // UnitsOfModel returns the number of active physical units of a model,
    // the denominator of every capacity computation.
    UnitsOfModel(ctx context.Context, tenantID, modelID uint64) (int, error)
    GetBoat(ctx context.Context, tenantID, unitID uint64) (*model.Boat, error)
}

// CustomerDirectory is the customer-directory collaborator contract.
type CustomerDirectory interface {
    GetCustomer(ctx context.Context, tenantID, customerID uint64) (*model.Customer, error)
}

// PolicySource supplies the per-tenant capacity policy. The policy is
// read-mostly; implementations may cache it.
type PolicySource interface {
    PolicyFor(ctx context.Context, tenantID uint64) (model.CapacityPolicy, error)
}

// Notifier is the fire-and-forget notification collaborator. Failures are
// the implementation's problem (logged, retried, dropped) and must never
// affect reservation state, hence no error returns.
type Notifier interface {
    ReservationExpired(ctx context.Context, r model.Reservation)
    ExpirationApproaching(ctx context.Context, r model.Reservation)
}
