package booking

import (
    "time"

    "marina-reservation/internal/model"
)

// Window is a half-open time interval [Start, End). Touching endpoints do
// not overlap, so back-to-back rentals of the same boat are legal.
type Window struct {
    Start time.Time
    End   time.Time
}

// Valid reports whether the window is well-formed (Start strictly before End).
func (w Window) Valid() bool { return w.Start.Before(w.End) }

// Overlaps reports whether two half-open windows intersect:
// other.Start < w.End AND other.End > w.Start. The relation is symmetric.
func (w Window) Overlaps(other Window) bool {
    return other.Start.Before(w.End) && other.End.After(w.Start)
}

// WindowOf returns the reservation's booked window.
func WindowOf(r *model.Reservation) Window {
    return Window{Start: r.StartAt, End: r.EndAt}
}

// ConflictingReservations returns the subset of existing reservations whose
// windows overlap the candidate window. Only active PENDING or CONFIRMED
// reservations block a unit; terminal and soft-deleted rows never conflict.
// excludeID skips one reservation, used for update-in-place checks such as
// allocating a unit to the very reservation being updated. The function is
// pure: identical inputs always produce identical output.
func ConflictingReservations(candidate Window, existing []model.Reservation, excludeID uint64) []model.Reservation {
    var out []model.Reservation
    for _, r := range existing {
        if r.ID == excludeID && excludeID != 0 {
            continue
        }
        if !r.IsActive {
            continue
        }
        if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
            continue
        }
        if candidate.Overlaps(Window{Start: r.StartAt, End: r.EndAt}) {
            out = append(out, r)
        }
    }
    return out
}
