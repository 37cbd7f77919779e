package model

import "time"

// Reservation statuses. A reservation starts PENDING and moves to exactly
// one of the terminal states COMPLETED, CANCELLED or EXPIRED, normally via
// CONFIRMED. Transition rules live in the booking package; the model only
// names the states.
const (
    StatusPending   = "PENDING"
    StatusConfirmed = "CONFIRMED"
    StatusCancelled = "CANCELLED"
    StatusCompleted = "COMPLETED"
    StatusExpired   = "EXPIRED"
)

// Priority tiers. The tier is derived from the deposit state and is never
// set independently: a reservation is REGULAR until a deposit is recorded,
// after which it becomes GUARANTEED.
const (
    TierGuaranteed = "GUARANTEED"
    TierRegular    = "REGULAR"
)

// Reservation records one booking request for a boat model within a time
// window. The unit (a concrete boat) is optional and assigned late,
// typically at arrival.
//
// Fields:
//  ID            – primary key identifier.
//  TenantID      – owning tenant organization.
//  ModelID       – boat model being reserved (always set).
//  UnitID        – concrete boat, nil until allocation.
//  CustomerID    – customer the booking is for.
//  SellerID      – originating seller/partner, nil when booked directly.
//  StartAt       – window start (inclusive), UTC.
//  EndAt         – expected window end (exclusive), UTC; StartAt < EndAt.
//  Tier          – GUARANTEED or REGULAR, derived from deposit state.
//  Status        – see status constants above.
//  DepositPaid   – whether a deposit has been recorded.
//  DepositCents  – deposit amount in cents, > 0 when paid.
//  DepositPaidAt – when the deposit was recorded, nil when unpaid.
//  ExpiresAt     – StartAt + policy grace period; meaningful only while
//                  the deposit is unpaid. Kept after upgrade for audit.
//  NoticeSent    – whether a pre-expiration notice event was published.
//  IsActive      – false once cancelled/expired/completed; rows are kept.
//  Notes         – optional free-form text from the booking request.
//  Version       – optimistic guard bumped on every update.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Reservation struct {
    ID            uint64     // reservations.id
    TenantID      uint64     // reservations.tenant_id
    ModelID       uint64     // reservations.model_id
    UnitID        *uint64    // reservations.unit_id (nullable)
    CustomerID    uint64     // reservations.customer_id
    SellerID      *uint64    // reservations.seller_id (nullable)
    StartAt       time.Time  // reservations.start_at
    EndAt         time.Time  // reservations.end_at
    Tier          string     // reservations.tier
    Status        string     // reservations.status
    DepositPaid   bool       // reservations.deposit_paid
    DepositCents  uint32     // reservations.deposit_cents
    DepositPaidAt *time.Time // reservations.deposit_paid_at (nullable)
    ExpiresAt     *time.Time // reservations.expires_at (nullable)
    NoticeSent    bool       // reservations.notice_sent
    IsActive      bool       // reservations.is_active
    Notes         *string    // reservations.notes (nullable)
    Version       uint32     // reservations.version
    CreatedAt     time.Time  // reservations.created_at
    UpdatedAt     time.Time  // reservations.updated_at
}

// Terminal reports whether the reservation reached a final state.
func (r *Reservation) Terminal() bool {
    switch r.Status {
    case StatusCancelled, StatusCompleted, StatusExpired:
        return true
    }
    return false
}
