package booking

import (
    "context"
    "errors"
    "time"

    "marina-reservation/internal/model"
)

// Service orchestrates the booking lifecycle: admission checks through the
// pure calculators, state transitions through the guards in state.go, and
// persistence through the Store. The tenant ID is an explicit argument on
// every operation; there is no ambient tenant state anywhere.
type Service struct {
    store     Store
    fleet     FleetDirectory
    customers CustomerDirectory
    policies  PolicySource
    clock     Clock
}

// NewService wires a Service. All dependencies must be non-nil.
func NewService(store Store, fleet FleetDirectory, customers CustomerDirectory, policies PolicySource, clock Clock) *Service {
    if store == nil || fleet == nil || customers == nil || policies == nil || clock == nil {
        panic("nil dependency passed to booking.NewService")
    }
    return &Service{store: store, fleet: fleet, customers: customers, policies: policies, clock: clock}
}

// CreateParams carries a booking request. UnitID and SellerID are optional;
// a request with an explicit UnitID is admitted by unit-conflict detection
// instead of model-level capacity accounting.
type CreateParams struct {
    ModelID    uint64
    CustomerID uint64
    UnitID     *uint64
    SellerID   *uint64
    StartAt    time.Time
    EndAt      time.Time
    Notes      *string
}

// Create validates and persists a new PENDING reservation at the REGULAR
// tier. A deposit, if any, is recorded by a separate ConfirmDeposit call.
// The admission check and the insert run under the per-(tenant, model)
// lock so concurrent requests cannot jointly exceed a ceiling.
func (s *Service) Create(ctx context.Context, tenantID uint64, p CreateParams) (*model.Reservation, error) {
    w := Window{Start: p.StartAt.UTC(), End: p.EndAt.UTC()}
    if !w.Valid() {
        return nil, Validationf("start must be before end")
    }
    now := s.clock.Now()
    if w.Start.Before(now) {
        return nil, Validationf("start is in the past")
    }

    cust, err := s.customers.GetCustomer(ctx, tenantID, p.CustomerID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return nil, NotFoundf("customer %d not found", p.CustomerID)
        }
        return nil, Internal("load customer", err)
    }
    if !cust.Eligible() {
        return nil, Validationf("customer %d is not eligible to book", p.CustomerID)
    }

    ok, err := s.fleet.ModelExists(ctx, tenantID, p.ModelID)
    if err != nil {
        return nil, Internal("check model", err)
    }
    if !ok {
        return nil, NotFoundf("model %d not found", p.ModelID)
    }

    // Validate the explicit unit choice, when present, before taking the
    // lock: the unit must exist and belong to the requested model.
    if p.UnitID != nil {
        boat, err := s.fleet.GetBoat(ctx, tenantID, *p.UnitID)
        if err != nil {
            if errors.Is(err, ErrNotFound) {
                return nil, NotFoundf("unit %d not found", *p.UnitID)
            }
            return nil, Internal("load unit", err)
        }
        if boat.ModelID != p.ModelID {
            return nil, Validationf("unit %d does not belong to model %d", *p.UnitID, p.ModelID)
        }
    }

    policy, err := s.policies.PolicyFor(ctx, tenantID)
    if err != nil {
        return nil, Internal("load capacity policy", err)
    }
    expiresAt := w.Start.Add(time.Duration(policy.GraceMinutes) * time.Minute)

    res := &model.Reservation{
        TenantID:   tenantID,
        ModelID:    p.ModelID,
        UnitID:     p.UnitID,
        CustomerID: p.CustomerID,
        SellerID:   p.SellerID,
        StartAt:    w.Start,
        EndAt:      w.End,
        Tier:       model.TierRegular,
        Status:     model.StatusPending,
        ExpiresAt:  &expiresAt,
        IsActive:   true,
        Notes:      p.Notes,
        CreatedAt:  now,
        UpdatedAt:  now,
    }

    err = s.store.WithModelLock(ctx, tenantID, p.ModelID, func(tx Tx) error {
        if p.UnitID != nil {
            // Unit-specific booking: the customer picked a concrete boat,
            // so model-level accounting is skipped and the unit's own
            // calendar decides.
            existing, err := tx.UnitReservationsInWindow(ctx, tenantID, *p.UnitID, w)
            if err != nil {
                return Internal("load unit reservations", err)
            }
            if conflicts := ConflictingReservations(w, existing, 0); len(conflicts) > 0 {
                return Conflictf("unit %d already booked in this window", *p.UnitID)
            }
        } else {
            counts, err := tx.CountsInWindow(ctx, tenantID, p.ModelID, w, 0)
            if err != nil {
                return Internal("count reservations", err)
            }
            units, err := s.fleet.UnitsOfModel(ctx, tenantID, p.ModelID)
            if err != nil {
                return Internal("count units", err)
            }
            avail := ComputeAvailability(units, policy, counts.Guaranteed, counts.Total)
            if !avail.AcceptsRegular {
                return Capacityf("regular capacity for model %d exhausted in this window", p.ModelID)
            }
        }
        if err := tx.InsertReservation(ctx, res); err != nil {
            return Internal("insert reservation", err)
        }
        return nil
    })
    if err != nil {
        return nil, err
    }
    return res, nil
}

// Confirm moves a PENDING reservation to CONFIRMED, re-validating capacity
// at the reservation's current tier. Capacity may have tightened since the
// request was created, so the creation-time check is not trusted here.
func (s *Service) Confirm(ctx context.Context, tenantID, reservationID uint64) (*model.Reservation, error) {
    return s.withReservation(ctx, tenantID, reservationID, func(tx Tx, r *model.Reservation, policy model.CapacityPolicy) error {
        if err := CanConfirm(r); err != nil {
            return err
        }
        counts, err := tx.CountsInWindow(ctx, tenantID, r.ModelID, WindowOf(r), r.ID)
        if err != nil {
            return Internal("count reservations", err)
        }
        units, err := s.fleet.UnitsOfModel(ctx, tenantID, r.ModelID)
        if err != nil {
            return Internal("count units", err)
        }
        avail := ComputeAvailability(units, policy, counts.Guaranteed, counts.Total)
        if r.Tier == model.TierGuaranteed && !avail.AcceptsGuaranteed {
            return Capacityf("guaranteed capacity for model %d exhausted in this window", r.ModelID)
        }
        if r.Tier == model.TierRegular && !avail.AcceptsRegular {
            return Capacityf("regular capacity for model %d exhausted in this window", r.ModelID)
        }
        r.Status = model.StatusConfirmed
        return nil
    })
}

// Cancel moves an active reservation to CANCELLED and clears its active
// flag. Cancelling twice fails with an illegal-state error by design.
func (s *Service) Cancel(ctx context.Context, tenantID, reservationID uint64) (*model.Reservation, error) {
    return s.withReservation(ctx, tenantID, reservationID, func(tx Tx, r *model.Reservation, _ model.CapacityPolicy) error {
        if err := CanCancel(r); err != nil {
            return err
        }
        r.Status = model.StatusCancelled
        r.IsActive = false
        return nil
    })
}

// ConfirmDeposit records a deposit and upgrades the reservation from
// REGULAR to GUARANTEED. The upgrade consumes a guaranteed slot, a hard
// physical ceiling, so the check runs under the model lock at the moment
// of upgrade. The money itself is the billing collaborator's business.
func (s *Service) ConfirmDeposit(ctx context.Context, tenantID, reservationID uint64, amountCents uint32) (*model.Reservation, error) {
    if amountCents == 0 {
        return nil, Validationf("deposit amount must be positive")
    }
    return s.withReservation(ctx, tenantID, reservationID, func(tx Tx, r *model.Reservation, policy model.CapacityPolicy) error {
        if err := CanUpgrade(r); err != nil {
            return err
        }
        counts, err := tx.CountsInWindow(ctx, tenantID, r.ModelID, WindowOf(r), r.ID)
        if err != nil {
            return Internal("count reservations", err)
        }
        units, err := s.fleet.UnitsOfModel(ctx, tenantID, r.ModelID)
        if err != nil {
            return Internal("count units", err)
        }
        avail := ComputeAvailability(units, policy, counts.Guaranteed, counts.Total)
        if !avail.AcceptsGuaranteed {
            return Capacityf("guaranteed capacity for model %d exhausted in this window", r.ModelID)
        }
        now := s.clock.Now()
        r.Tier = model.TierGuaranteed
        r.DepositPaid = true
        r.DepositCents = amountCents
        r.DepositPaidAt = &now
        return nil
    })
}

// AllocateUnit assigns a physical boat to a confirmed reservation. The boat
// must belong to the reserved model, be AVAILABLE in the fleet directory
// and have no conflicting reservation in the window. The unit ID is set at
// most once.
func (s *Service) AllocateUnit(ctx context.Context, tenantID, reservationID, unitID uint64) (*model.Reservation, error) {
    boat, err := s.fleet.GetBoat(ctx, tenantID, unitID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return nil, NotFoundf("unit %d not found", unitID)
        }
        return nil, Internal("load unit", err)
    }
    return s.withReservation(ctx, tenantID, reservationID, func(tx Tx, r *model.Reservation, _ model.CapacityPolicy) error {
        if err := CanAllocate(r); err != nil {
            return err
        }
        if boat.ModelID != r.ModelID {
            return Validationf("unit %d does not belong to model %d", unitID, r.ModelID)
        }
        if boat.Status != model.BoatAvailable {
            return Conflictf("unit %d is %s, not available", unitID, boat.Status)
        }
        existing, err := tx.UnitReservationsInWindow(ctx, tenantID, unitID, WindowOf(r))
        if err != nil {
            return Internal("load unit reservations", err)
        }
        if conflicts := ConflictingReservations(WindowOf(r), existing, r.ID); len(conflicts) > 0 {
            return Conflictf("unit %d already booked in this window", unitID)
        }
        r.UnitID = &unitID
        return nil
    })
}

// CheckAvailability is the read-only capacity report for one model and
// window. It takes no lock; the numbers are a snapshot and admission is
// decided again, under the lock, when a booking is actually placed.
func (s *Service) CheckAvailability(ctx context.Context, tenantID, modelID uint64, start, end time.Time) (*Availability, error) {
    w := Window{Start: start.UTC(), End: end.UTC()}
    if !w.Valid() {
        return nil, Validationf("start must be before end")
    }
    ok, err := s.fleet.ModelExists(ctx, tenantID, modelID)
    if err != nil {
        return nil, Internal("check model", err)
    }
    if !ok {
        return nil, NotFoundf("model %d not found", modelID)
    }
    policy, err := s.policies.PolicyFor(ctx, tenantID)
    if err != nil {
        return nil, Internal("load capacity policy", err)
    }
    units, err := s.fleet.UnitsOfModel(ctx, tenantID, modelID)
    if err != nil {
        return nil, Internal("count units", err)
    }
    counts, err := s.store.CountsInWindow(ctx, tenantID, modelID, w)
    if err != nil {
        return nil, Internal("count reservations", err)
    }
    avail := ComputeAvailability(units, policy, counts.Guaranteed, counts.Total)
    avail.ModelID = modelID
    avail.StartAt = w.Start
    avail.EndAt = w.End
    return &avail, nil
}

// Get loads one reservation scoped to the tenant.
func (s *Service) Get(ctx context.Context, tenantID, reservationID uint64) (*model.Reservation, error) {
    r, err := s.store.GetReservation(ctx, tenantID, reservationID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return nil, NotFoundf("reservation %d not found", reservationID)
        }
        return nil, Internal("load reservation", err)
    }
    return r, nil
}

// List returns the tenant's reservations, optionally filtered by status.
func (s *Service) List(ctx context.Context, tenantID uint64, status string) ([]model.Reservation, error) {
    if status != "" {
        switch status {
        case model.StatusPending, model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted, model.StatusExpired:
        default:
            return nil, Validationf("unknown status %q", status)
        }
    }
    out, err := s.store.ListReservations(ctx, tenantID, status)
    if err != nil {
        return nil, Internal("list reservations", err)
    }
    return out, nil
}

// ListNeedsReview returns deposited reservations past their expiration
// marker. The sweeper never touches them; an operator decides.
func (s *Service) ListNeedsReview(ctx context.Context, tenantID uint64) ([]model.Reservation, error) {
    out, err := s.store.NeedsReview(ctx, tenantID, s.clock.Now())
    if err != nil {
        return nil, Internal("list reservations needing review", err)
    }
    return out, nil
}

// withReservation runs a guarded update of one reservation inside its
// model lock: load outside the lock to learn the model, then reload and
// mutate under the lock, stamping updated_at on the way out.
func (s *Service) withReservation(ctx context.Context, tenantID, reservationID uint64, fn func(tx Tx, r *model.Reservation, policy model.CapacityPolicy) error) (*model.Reservation, error) {
    peek, err := s.store.GetReservation(ctx, tenantID, reservationID)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return nil, NotFoundf("reservation %d not found", reservationID)
        }
        return nil, Internal("load reservation", err)
    }
    policy, err := s.policies.PolicyFor(ctx, tenantID)
    if err != nil {
        return nil, Internal("load capacity policy", err)
    }
    var out *model.Reservation
    err = s.store.WithModelLock(ctx, tenantID, peek.ModelID, func(tx Tx) error {
        r, err := tx.GetReservation(ctx, tenantID, reservationID)
        if err != nil {
            if errors.Is(err, ErrNotFound) {
                return NotFoundf("reservation %d not found", reservationID)
            }
            return Internal("load reservation", err)
        }
        if err := fn(tx, r, policy); err != nil {
            return err
        }
        r.UpdatedAt = s.clock.Now()
        if err := tx.UpdateReservation(ctx, r); err != nil {
            return Internal("update reservation", err)
        }
        out = r
        return nil
    })
    if err != nil {
        return nil, err
    }
    return out, nil
}
