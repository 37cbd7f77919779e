package model

import "time"

// CapacityPolicy holds the per-tenant knobs of the capacity engine.
// Exactly one row exists per tenant; a default policy is created when the
// tenant registers.
//
// Fields:
//  TenantID          – owning tenant, primary key.
//  GraceMinutes      – window after a reservation's start during which a
//                      no-deposit booking is still honored before the
//                      sweeper expires it. Must be > 0.
//  DepositPercent    – suggested deposit as a percentage of the rental
//                      price (0–100). Informational, consumed by billing;
//                      not enforced here.
//  OverbookingFactor – multiplier applied to the physical unit count to
//                      compute the REGULAR-tier ceiling. Must be >= 1.0.
//  AbsoluteCap       – hard ceiling on REGULAR-tier reservations per
//                      model and window regardless of the factor.
//  NoticeEnabled     – whether pre-expiration notice events are published.
//  NoticeLeadMinutes – how long before expires_at the notice fires.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type CapacityPolicy struct {
    TenantID          uint64    // capacity_policies.tenant_id
    GraceMinutes      uint32    // capacity_policies.grace_minutes
    DepositPercent    uint8     // capacity_policies.deposit_percent
    OverbookingFactor float64   // capacity_policies.overbooking_factor
    AbsoluteCap       uint32    // capacity_policies.absolute_cap
    NoticeEnabled     bool      // capacity_policies.notice_enabled
    NoticeLeadMinutes uint32    // capacity_policies.notice_lead_minutes
    CreatedAt         time.Time // capacity_policies.created_at
    UpdatedAt         time.Time // capacity_policies.updated_at
}

// DefaultCapacityPolicy returns the policy applied to a tenant that has not
// tuned anything yet: 30 minute grace, 20% deposit, 1.2x overbooking capped
// at 50 regular reservations, notices one hour ahead.
func DefaultCapacityPolicy(tenantID uint64) CapacityPolicy {
    return CapacityPolicy{
        TenantID:          tenantID,
        GraceMinutes:      30,
        DepositPercent:    20,
        OverbookingFactor: 1.2,
        AbsoluteCap:       50,
        NoticeEnabled:     true,
        NoticeLeadMinutes: 60,
    }
}
