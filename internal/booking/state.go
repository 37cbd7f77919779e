package booking

import (
    "time"

    "marina-reservation/internal/model"
)

// Transition guards for the reservation state machine. All legal status
// changes funnel through these checks; nothing else in the codebase decides
// whether a transition is allowed. Each guard returns nil when the
// transition may proceed and a typed error describing the violated
// condition otherwise. Capacity re-checks are the service's job; the
// guards only look at the reservation itself.

// CanConfirm gates PENDING -> CONFIRMED. The capacity re-check at the
// current tier happens separately, at confirmation time.
func CanConfirm(r *model.Reservation) error {
    if !r.IsActive {
        return IllegalStatef("reservation %d is no longer active", r.ID)
    }
    if r.Status != model.StatusPending {
        return IllegalStatef("reservation %d is %s, only PENDING reservations can be confirmed", r.ID, r.Status)
    }
    return nil
}

// CanCancel gates PENDING|CONFIRMED -> CANCELLED. Cancelling an already
// terminal reservation fails loudly instead of silently succeeding so that
// double-cancel bugs surface.
func CanCancel(r *model.Reservation) error {
    if r.Terminal() || !r.IsActive {
        return IllegalStatef("reservation %d is %s and not cancellable", r.ID, r.Status)
    }
    if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
        return IllegalStatef("reservation %d is %s and not cancellable", r.ID, r.Status)
    }
    return nil
}

// CanExpire gates PENDING|CONFIRMED -> EXPIRED, the automatic no-show
// transition applied by the sweeper. Reservations with a recorded deposit
// are never auto-expired; they require a human decision and are surfaced
// by the needs-review query instead.
func CanExpire(r *model.Reservation, now time.Time) error {
    if r.DepositPaid {
        return IllegalStatef("reservation %d has a deposit and never auto-expires", r.ID)
    }
    if !r.IsActive || r.Terminal() {
        return IllegalStatef("reservation %d is %s and cannot expire", r.ID, r.Status)
    }
    if r.ExpiresAt == nil || now.Before(*r.ExpiresAt) {
        return IllegalStatef("reservation %d has not passed its grace period", r.ID)
    }
    return nil
}

// CanUpgrade gates the REGULAR -> GUARANTEED tier change triggered by a
// deposit confirmation. It is not a status transition. The guaranteed
// capacity check (a hard physical ceiling) is performed by the service
// at the moment of upgrade, inside the model lock.
func CanUpgrade(r *model.Reservation) error {
    if r.DepositPaid {
        return IllegalStatef("reservation %d already has a recorded deposit", r.ID)
    }
    if !r.IsActive {
        return IllegalStatef("reservation %d is no longer active", r.ID)
    }
    if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
        return IllegalStatef("reservation %d is %s and cannot take a deposit", r.ID, r.Status)
    }
    return nil
}

// CanAllocate gates assigning a physical unit. Allocation is legal only on
// a CONFIRMED reservation with no unit yet; the unit/model match, the
// unit's availability and the conflict scan are checked by the service.
func CanAllocate(r *model.Reservation) error {
    if r.Status != model.StatusConfirmed {
        return IllegalStatef("reservation %d is %s, units are allocated on CONFIRMED reservations only", r.ID, r.Status)
    }
    if r.UnitID != nil {
        return IllegalStatef("reservation %d already has unit %d assigned", r.ID, *r.UnitID)
    }
    if !r.IsActive {
        return IllegalStatef("reservation %d is no longer active", r.ID)
    }
    return nil
}
