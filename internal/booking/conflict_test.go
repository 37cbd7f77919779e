package booking

import (
    "testing"
    "time"

    "marina-reservation/internal/model"
)

func win(t *testing.T, startHour, endHour int) Window {
    t.Helper()
    day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
    return Window{Start: day.Add(time.Duration(startHour) * time.Hour), End: day.Add(time.Duration(endHour) * time.Hour)}
}

func TestWindowOverlapSymmetry(t *testing.T) {
    a := win(t, 10, 12)
    b := win(t, 11, 13)
    if !a.Overlaps(b) || !b.Overlaps(a) {
        t.Fatalf("expected %v and %v to overlap both ways", a, b)
    }
    c := win(t, 14, 15)
    if a.Overlaps(c) || c.Overlaps(a) {
        t.Fatalf("expected %v and %v not to overlap", a, c)
    }
}

func TestWindowTouchingEndpointsDoNotConflict(t *testing.T) {
    // [10:00,11:00) and [11:00,12:00) share only the endpoint.
    a := win(t, 10, 11)
    b := win(t, 11, 12)
    if a.Overlaps(b) || b.Overlaps(a) {
        t.Fatalf("half-open windows touching at an endpoint must not overlap")
    }
}

func TestWindowValid(t *testing.T) {
    if !win(t, 10, 11).Valid() {
        t.Fatal("well-formed window reported invalid")
    }
    bad := Window{Start: win(t, 11, 12).Start, End: win(t, 10, 11).Start}
    if bad.Valid() {
        t.Fatal("reversed window reported valid")
    }
    zero := Window{Start: win(t, 10, 11).Start, End: win(t, 10, 11).Start}
    if zero.Valid() {
        t.Fatal("empty window reported valid")
    }
}

func unitRes(id uint64, w Window, status string, active bool) model.Reservation {
    unit := uint64(7)
    return model.Reservation{
        ID:       id,
        TenantID: 1,
        ModelID:  1,
        UnitID:   &unit,
        StartAt:  w.Start,
        EndAt:    w.End,
        Tier:     model.TierRegular,
        Status:   status,
        IsActive: active,
    }
}

func TestConflictingReservations(t *testing.T) {
    existing := []model.Reservation{
        unitRes(1, win(t, 10, 11), model.StatusConfirmed, true),
        unitRes(2, win(t, 11, 12), model.StatusPending, true),
        unitRes(3, win(t, 12, 13), model.StatusCancelled, false), // terminal, ignored
        unitRes(4, win(t, 9, 14), model.StatusExpired, false),    // terminal, ignored
    }

    got := ConflictingReservations(win(t, 10, 12), existing, 0)
    if len(got) != 2 {
        t.Fatalf("expected 2 conflicts, got %d", len(got))
    }

    // Touching window conflicts with nothing active.
    if got := ConflictingReservations(win(t, 12, 13), existing, 0); len(got) != 0 {
        t.Fatalf("expected no conflicts for touching window, got %d", len(got))
    }

    // Excluding a reservation removes it from the result.
    if got := ConflictingReservations(win(t, 10, 11), existing, 1); len(got) != 0 {
        t.Fatalf("expected exclusion of reservation 1, got %d conflicts", len(got))
    }
}

func TestConflictingReservationsPure(t *testing.T) {
    existing := []model.Reservation{unitRes(1, win(t, 10, 11), model.StatusPending, true)}
    first := ConflictingReservations(win(t, 10, 12), existing, 0)
    second := ConflictingReservations(win(t, 10, 12), existing, 0)
    if len(first) != len(second) || len(first) != 1 {
        t.Fatalf("identical inputs produced different results: %d vs %d", len(first), len(second))
    }
}
