package booking

import (
    "testing"
    "time"

    "marina-reservation/internal/model"
)

func baseReservation(status string) *model.Reservation {
    start := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
    exp := start.Add(30 * time.Minute)
    return &model.Reservation{
        ID:        42,
        TenantID:  1,
        ModelID:   1,
        StartAt:   start,
        EndAt:     start.Add(2 * time.Hour),
        Tier:      model.TierRegular,
        Status:    status,
        ExpiresAt: &exp,
        IsActive:  status == model.StatusPending || status == model.StatusConfirmed,
    }
}

func wantIllegalState(t *testing.T, err error) {
    t.Helper()
    if err == nil {
        t.Fatal("expected an illegal-state error, got nil")
    }
    if KindOf(err) != KindIllegalState {
        t.Fatalf("expected illegal_state, got %v (%v)", KindOf(err), err)
    }
}

func TestCanConfirm(t *testing.T) {
    if err := CanConfirm(baseReservation(model.StatusPending)); err != nil {
        t.Fatalf("pending reservation must be confirmable: %v", err)
    }
    for _, status := range []string{model.StatusConfirmed, model.StatusCancelled, model.StatusExpired, model.StatusCompleted} {
        wantIllegalState(t, CanConfirm(baseReservation(status)))
    }
}

func TestCanCancel(t *testing.T) {
    if err := CanCancel(baseReservation(model.StatusPending)); err != nil {
        t.Fatalf("pending reservation must be cancellable: %v", err)
    }
    if err := CanCancel(baseReservation(model.StatusConfirmed)); err != nil {
        t.Fatalf("confirmed reservation must be cancellable: %v", err)
    }
    // A second cancel is an explicit error, not a silent no-op.
    wantIllegalState(t, CanCancel(baseReservation(model.StatusCancelled)))
    wantIllegalState(t, CanCancel(baseReservation(model.StatusExpired)))
    wantIllegalState(t, CanCancel(baseReservation(model.StatusCompleted)))
}

func TestCanExpire(t *testing.T) {
    r := baseReservation(model.StatusPending)
    past := r.ExpiresAt.Add(time.Minute)

    if err := CanExpire(r, past); err != nil {
        t.Fatalf("unpaid reservation past grace must expire: %v", err)
    }
    // Before the grace period runs out nothing happens.
    wantIllegalState(t, CanExpire(r, r.ExpiresAt.Add(-time.Minute)))

    // A recorded deposit blocks auto-expiration forever.
    paid := baseReservation(model.StatusConfirmed)
    paid.DepositPaid = true
    paid.Tier = model.TierGuaranteed
    wantIllegalState(t, CanExpire(paid, past))

    // Terminal rows are untouchable.
    wantIllegalState(t, CanExpire(baseReservation(model.StatusCancelled), past))

    // A reservation without an expiration marker never auto-expires.
    noMarker := baseReservation(model.StatusPending)
    noMarker.ExpiresAt = nil
    wantIllegalState(t, CanExpire(noMarker, past))
}

func TestCanUpgrade(t *testing.T) {
    if err := CanUpgrade(baseReservation(model.StatusPending)); err != nil {
        t.Fatalf("pending reservation must be upgradable: %v", err)
    }
    if err := CanUpgrade(baseReservation(model.StatusConfirmed)); err != nil {
        t.Fatalf("confirmed reservation must be upgradable: %v", err)
    }
    // Deposit recorded at most once.
    paid := baseReservation(model.StatusPending)
    paid.DepositPaid = true
    wantIllegalState(t, CanUpgrade(paid))
    wantIllegalState(t, CanUpgrade(baseReservation(model.StatusCancelled)))
}

func TestCanAllocate(t *testing.T) {
    // Only CONFIRMED reservations take a unit.
    wantIllegalState(t, CanAllocate(baseReservation(model.StatusPending)))
    if err := CanAllocate(baseReservation(model.StatusConfirmed)); err != nil {
        t.Fatalf("confirmed reservation must accept allocation: %v", err)
    }
    // The unit ID is set at most once.
    r := baseReservation(model.StatusConfirmed)
    unit := uint64(9)
    r.UnitID = &unit
    wantIllegalState(t, CanAllocate(r))
}
