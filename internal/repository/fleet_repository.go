package repository

import (
    "context"
    "database/sql"
    "errors"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
)

// ErrModelNotFound is returned when a boat model lookup fails.
var ErrModelNotFound = errors.New("boat model not found")

// ErrBoatNotFound is returned when a boat lookup fails.
var ErrBoatNotFound = errors.New("boat not found")

// FleetRepo provides access to boat models and the physical boats behind
// them. It also implements booking.FleetDirectory, the read surface the
// admission logic consults for unit counts and unit lookups.
type FleetRepo struct {
    db *sql.DB
}

// NewFleetRepo constructs a FleetRepo with the given DB handle.
func NewFleetRepo(db *sql.DB) *FleetRepo { return &FleetRepo{db: db} }

var _ booking.FleetDirectory = (*FleetRepo)(nil)

// ModelExists reports whether an active model belongs to the tenant.
func (r *FleetRepo) ModelExists(ctx context.Context, tenantID, modelID uint64) (bool, error) {
    const q = `SELECT 1 FROM boat_models WHERE id = ? AND tenant_id = ? AND is_active = 1`
    var one int
    err := r.db.QueryRowContext(ctx, q, modelID, tenantID).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// UnitsOfModel returns how many active boats of the model the tenant has.
// Boats in MAINTENANCE or BLOCKED still count toward the physical ceiling;
// removing a boat from capacity means deactivating it.
func (r *FleetRepo) UnitsOfModel(ctx context.Context, tenantID, modelID uint64) (int, error) {
    const q = `SELECT COUNT(*) FROM boats WHERE tenant_id = ? AND model_id = ? AND is_active = 1`
    var n int
    if err := r.db.QueryRowContext(ctx, q, tenantID, modelID).Scan(&n); err != nil {
        return 0, err
    }
    return n, nil
}

// GetBoat loads a single boat scoped to the tenant. Returns
// booking.ErrNotFound when no matching row exists.
func (r *FleetRepo) GetBoat(ctx context.Context, tenantID, boatID uint64) (*model.Boat, error) {
    const q = `SELECT id, tenant_id, model_id, name, status, is_active, created_at, updated_at
               FROM boats WHERE id = ? AND tenant_id = ?`
    var b model.Boat
    err := r.db.QueryRowContext(ctx, q, boatID, tenantID).Scan(
        &b.ID, &b.TenantID, &b.ModelID, &b.Name, &b.Status, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, booking.ErrNotFound
        }
        return nil, err
    }
    return &b, nil
}

// CreateModel inserts a new boat model and reads the row back so the
// generated ID, flags and timestamps are populated.
func (r *FleetRepo) CreateModel(ctx context.Context, m *model.BoatModel) error {
    const qInsert = `INSERT INTO boat_models (tenant_id, name, description) VALUES (?, ?, ?)`
    res, err := r.db.ExecContext(ctx, qInsert, m.TenantID, m.Name, nullableStr(m.Description))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    m.ID = uint64(id)
    const qSelect = `SELECT id, tenant_id, name, description, is_active, created_at, updated_at
                     FROM boat_models WHERE id = ?`
    var desc sql.NullString
    err = r.db.QueryRowContext(ctx, qSelect, m.ID).Scan(
        &m.ID, &m.TenantID, &m.Name, &desc, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
    )
    if err != nil {
        return err
    }
    if desc.Valid {
        d := desc.String
        m.Description = &d
    }
    return nil
}

// GetModel retrieves a boat model by ID scoped to the tenant. Returns
// ErrModelNotFound when no row matches.
func (r *FleetRepo) GetModel(ctx context.Context, tenantID, id uint64) (*model.BoatModel, error) {
    const q = `SELECT id, tenant_id, name, description, is_active, created_at, updated_at
               FROM boat_models WHERE id = ? AND tenant_id = ?`
    var m model.BoatModel
    var desc sql.NullString
    err := r.db.QueryRowContext(ctx, q, id, tenantID).Scan(
        &m.ID, &m.TenantID, &m.Name, &desc, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrModelNotFound
        }
        return nil, err
    }
    if desc.Valid {
        d := desc.String
        m.Description = &d
    }
    return &m, nil
}

// ListModels returns all boat models for the tenant ordered by ID.
func (r *FleetRepo) ListModels(ctx context.Context, tenantID uint64) ([]model.BoatModel, error) {
    const q = `SELECT id, tenant_id, name, description, is_active, created_at, updated_at
               FROM boat_models
               WHERE tenant_id = ?
               ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, tenantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.BoatModel, 0)
    for rows.Next() {
        var m model.BoatModel
        var desc sql.NullString
        if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &desc, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
            return nil, err
        }
        if desc.Valid {
            d := desc.String
            m.Description = &d
        }
        out = append(out, m)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// CreateBoat inserts a physical boat under an existing model. A dangling
// model reference surfaces as ErrModelNotFound before the insert runs.
func (r *FleetRepo) CreateBoat(ctx context.Context, b *model.Boat) error {
    ok, err := r.ModelExists(ctx, b.TenantID, b.ModelID)
    if err != nil {
        return err
    }
    if !ok {
        return ErrModelNotFound
    }
    if b.Status == "" {
        b.Status = model.BoatAvailable
    }
    const qInsert = `INSERT INTO boats (tenant_id, model_id, name, status) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, qInsert, b.TenantID, b.ModelID, b.Name, b.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    const qSelect = `SELECT id, tenant_id, model_id, name, status, is_active, created_at, updated_at
                     FROM boats WHERE id = ?`
    return r.db.QueryRowContext(ctx, qSelect, b.ID).Scan(
        &b.ID, &b.TenantID, &b.ModelID, &b.Name, &b.Status, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
    )
}

// ListBoats returns the tenant's boats for one model ordered by ID.
func (r *FleetRepo) ListBoats(ctx context.Context, tenantID, modelID uint64) ([]model.Boat, error) {
    const q = `SELECT id, tenant_id, model_id, name, status, is_active, created_at, updated_at
               FROM boats
               WHERE tenant_id = ? AND model_id = ?
               ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, tenantID, modelID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Boat, 0)
    for rows.Next() {
        var b model.Boat
        if err := rows.Scan(&b.ID, &b.TenantID, &b.ModelID, &b.Name, &b.Status, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// UpdateBoatStatus moves a boat between AVAILABLE, RENTED, MAINTENANCE and
// BLOCKED. Returns ErrBoatNotFound when the boat does not belong to the
// tenant.
func (r *FleetRepo) UpdateBoatStatus(ctx context.Context, tenantID, boatID uint64, status string) error {
    const q = `UPDATE boats SET status = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND tenant_id = ?`
    res, err := r.db.ExecContext(ctx, q, status, boatID, tenantID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrBoatNotFound
    }
    return nil
}
