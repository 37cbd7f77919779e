package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
)

// ErrCustomerEmailExists is returned when a customer with the same email
// already exists for the tenant.
var ErrCustomerEmailExists = errors.New("customer email already exists")

// CustomerRepo mirrors the 'customers' table and implements
// booking.CustomerDirectory for eligibility checks at admission time.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo constructs a CustomerRepo with the given DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

var _ booking.CustomerDirectory = (*CustomerRepo)(nil)

// GetCustomer fetches a customer scoped to the tenant. Returns
// booking.ErrNotFound when no matching row exists.
func (r *CustomerRepo) GetCustomer(ctx context.Context, tenantID, customerID uint64) (*model.Customer, error) {
    const q = `SELECT id, tenant_id, full_name, email, terms_accepted, is_active, created_at, updated_at
               FROM customers WHERE id = ? AND tenant_id = ?`
    var c model.Customer
    err := r.db.QueryRowContext(ctx, q, customerID, tenantID).Scan(
        &c.ID, &c.TenantID, &c.FullName, &c.Email, &c.TermsAccepted, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, booking.ErrNotFound
        }
        return nil, err
    }
    return &c, nil
}

// Create inserts a customer with a normalized email and returns the new ID.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
    c.Email = strings.ToLower(strings.TrimSpace(c.Email))
    const q = `INSERT INTO customers (tenant_id, full_name, email, terms_accepted)
               VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, c.TenantID, c.FullName, c.Email, c.TermsAccepted)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrCustomerEmailExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    const sel = `SELECT id, tenant_id, full_name, email, terms_accepted, is_active, created_at, updated_at
                 FROM customers WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, c.ID).Scan(
        &c.ID, &c.TenantID, &c.FullName, &c.Email, &c.TermsAccepted, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
    )
}

// List returns the tenant's customers ordered by ID.
func (r *CustomerRepo) List(ctx context.Context, tenantID uint64) ([]model.Customer, error) {
    const q = `SELECT id, tenant_id, full_name, email, terms_accepted, is_active, created_at, updated_at
               FROM customers WHERE tenant_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, tenantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Customer, 0)
    for rows.Next() {
        var c model.Customer
        if err := rows.Scan(&c.ID, &c.TenantID, &c.FullName, &c.Email, &c.TermsAccepted, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// SetTermsAccepted records the customer's acceptance (or withdrawal) of the
// rental terms. Returns booking.ErrNotFound when the customer does not
// belong to the tenant.
func (r *CustomerRepo) SetTermsAccepted(ctx context.Context, tenantID, customerID uint64, accepted bool) error {
    const q = `UPDATE customers SET terms_accepted = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND tenant_id = ?`
    res, err := r.db.ExecContext(ctx, q, accepted, customerID, tenantID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return booking.ErrNotFound
    }
    return nil
}

// Deactivate soft-deletes a customer. Existing reservations are untouched;
// the customer just cannot place new ones.
func (r *CustomerRepo) Deactivate(ctx context.Context, tenantID, customerID uint64) error {
    const q = `UPDATE customers SET is_active = 0, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND tenant_id = ?`
    res, err := r.db.ExecContext(ctx, q, customerID, tenantID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return booking.ErrNotFound
    }
    return nil
}
