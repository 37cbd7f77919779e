package booking

import (
    "math"
    "time"

    "marina-reservation/internal/model"
)

// Availability is the capacity report for one model and window. It is both
// the internal admission-check input and the structure returned by the
// availability endpoint.
type Availability struct {
    ModelID             uint64    `json:"model_id"`
    StartAt             time.Time `json:"start_at"`
    EndAt               time.Time `json:"end_at"`
    TotalUnits          int       `json:"total_units"`
    GuaranteedCount     int       `json:"guaranteed_count"`
    TotalCount          int       `json:"total_count"`
    MaxRegular          int       `json:"max_regular"`
    AcceptsGuaranteed   bool      `json:"accepts_guaranteed"`
    AcceptsRegular      bool      `json:"accepts_regular"`
    RemainingGuaranteed int       `json:"remaining_guaranteed"`
    RemainingRegular    int       `json:"remaining_regular"`
}

// ComputeAvailability derives admission flags and remaining slot counts
// from the physical unit count, the tenant policy and the pre-computed
// reservation counts for the window.
//
//	maxRegular       = min(ceil(units × overbookingFactor), absoluteCap)
//	acceptsGuaranteed = guaranteedCount < units
//	acceptsRegular    = totalCount < maxRegular
//
// GUARANTEED reservations are capped by the physical unit count, a hard
// ceiling. REGULAR reservations may overshoot the fleet up to maxRegular.
// With zero units both flags are false and every slot count is zero; there
// is no division anywhere, so the zero case needs no special handling
// beyond the comparisons. The function is pure.
func ComputeAvailability(units int, policy model.CapacityPolicy, guaranteedCount, totalCount int) Availability {
    maxRegular := 0
    if units > 0 {
        maxRegular = int(math.Ceil(float64(units) * policy.OverbookingFactor))
        if cap := int(policy.AbsoluteCap); maxRegular > cap {
            maxRegular = cap
        }
    }
    a := Availability{
        TotalUnits:        units,
        GuaranteedCount:   guaranteedCount,
        TotalCount:        totalCount,
        MaxRegular:        maxRegular,
        AcceptsGuaranteed: guaranteedCount < units,
        AcceptsRegular:    totalCount < maxRegular,
    }
    if rem := units - guaranteedCount; rem > 0 {
        a.RemainingGuaranteed = rem
    }
    if rem := maxRegular - totalCount; rem > 0 {
        a.RemainingRegular = rem
    }
    return a
}
