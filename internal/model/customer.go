package model

import "time"

// Customer is a person boats are rented to. The booking engine only cares
// about existence and eligibility; everything else is plain directory data.
//
// Fields:
//  ID            – primary key identifier.
//  TenantID      – owning tenant organization.
//  FullName      – customer display name.
//  Email         – contact address, unique per tenant.
//  TermsAccepted – whether the rental terms were accepted.
//  IsActive      – soft-delete flag.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Customer struct {
    ID            uint64    // customers.id
    TenantID      uint64    // customers.tenant_id
    FullName      string    // customers.full_name
    Email         string    // customers.email
    TermsAccepted bool      // customers.terms_accepted
    IsActive      bool      // customers.is_active
    CreatedAt     time.Time // customers.created_at
    UpdatedAt     time.Time // customers.updated_at
}

// Eligible reports whether the customer may place new bookings: the record
// must be active and the rental terms accepted.
func (c *Customer) Eligible() bool {
    return c.IsActive && c.TermsAccepted
}
