package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
)

// ReservationStore is the MySQL implementation of booking.Store. All
// timestamp fields are stored and compared in UTC. The check-then-reserve
// critical section is serialized per (tenant, model) by taking a row lock
// on the boat_models row (SELECT ... FOR UPDATE) for the duration of the
// transaction, so two concurrent admission checks for the same model see
// each other's writes and can never jointly exceed a ceiling.
type ReservationStore struct {
    db *sql.DB
}

// NewReservationStore returns a ReservationStore bound to the given database.
func NewReservationStore(db *sql.DB) *ReservationStore { return &ReservationStore{db: db} }

var _ booking.Store = (*ReservationStore)(nil)

// reservationColumns is the canonical column list consumed by scanReservation.
const reservationColumns = `id, tenant_id, model_id, unit_id, customer_id, seller_id,
    start_at, end_at, tier, status, deposit_paid, deposit_cents, deposit_paid_at,
    expires_at, notice_sent, is_active, notes, version, created_at, updated_at`

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
    var (
        r             model.Reservation
        unitID        sql.NullInt64
        sellerID      sql.NullInt64
        depositPaidAt sql.NullTime
        expiresAt     sql.NullTime
        notes         sql.NullString
    )
    err := row.Scan(
        &r.ID, &r.TenantID, &r.ModelID, &unitID, &r.CustomerID, &sellerID,
        &r.StartAt, &r.EndAt, &r.Tier, &r.Status, &r.DepositPaid, &r.DepositCents, &depositPaidAt,
        &expiresAt, &r.NoticeSent, &r.IsActive, &notes, &r.Version, &r.CreatedAt, &r.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if unitID.Valid {
        v := uint64(unitID.Int64)
        r.UnitID = &v
    }
    if sellerID.Valid {
        v := uint64(sellerID.Int64)
        r.SellerID = &v
    }
    if depositPaidAt.Valid {
        t := depositPaidAt.Time.UTC()
        r.DepositPaidAt = &t
    }
    if expiresAt.Valid {
        t := expiresAt.Time.UTC()
        r.ExpiresAt = &t
    }
    if notes.Valid {
        n := notes.String
        r.Notes = &n
    }
    r.StartAt = r.StartAt.UTC()
    r.EndAt = r.EndAt.UTC()
    return &r, nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        r, err := scanReservation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *r)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// storeTx adapts an open *sql.Tx to the booking.Tx interface.
type storeTx struct {
    tx *sql.Tx
}

// WithModelLock opens a transaction, locks the model row and runs fn. An
// error from fn rolls everything back, so a failed admission never leaves
// partial state behind.
func (s *ReservationStore) WithModelLock(ctx context.Context, tenantID, modelID uint64, fn func(tx booking.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    // The lock anchor. Concurrent check-then-reserve sequences for the
    // same model block here until the holder commits or rolls back.
    var locked uint64
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM boat_models WHERE id = ? AND tenant_id = ? FOR UPDATE`,
        modelID, tenantID).Scan(&locked)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return fmt.Errorf("model %d: %w", modelID, booking.ErrNotFound)
        }
        return err
    }
    if err := fn(storeTx{tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

type rowQuerier interface {
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// countsInWindow runs the overlap count against either the pool or an
// open transaction. Overlap follows the half-open rule:
// existing.start < candidate.end AND existing.end > candidate.start.
func countsInWindow(ctx context.Context, q rowQuerier, tenantID, modelID uint64, w booking.Window, excludeID uint64) (booking.WindowCounts, error) {
    const query = `SELECT COUNT(*),
                          COALESCE(SUM(CASE WHEN tier = 'GUARANTEED' THEN 1 ELSE 0 END), 0)
                   FROM reservations
                   WHERE tenant_id = ? AND model_id = ?
                     AND is_active = 1
                     AND status IN ('PENDING','CONFIRMED')
                     AND start_at < ? AND end_at > ?
                     AND (? = 0 OR id <> ?)`
    var c booking.WindowCounts
    err := q.QueryRowContext(ctx, query,
        tenantID, modelID, w.End.UTC(), w.Start.UTC(), excludeID, excludeID,
    ).Scan(&c.Total, &c.Guaranteed)
    return c, err
}

func (t storeTx) CountsInWindow(ctx context.Context, tenantID, modelID uint64, w booking.Window, excludeID uint64) (booking.WindowCounts, error) {
    return countsInWindow(ctx, t.tx, tenantID, modelID, w, excludeID)
}

func (t storeTx) UnitReservationsInWindow(ctx context.Context, tenantID, unitID uint64, w booking.Window) ([]model.Reservation, error) {
    query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE tenant_id = ? AND unit_id = ?
                AND is_active = 1
                AND status IN ('PENDING','CONFIRMED')
                AND start_at < ? AND end_at > ?`
    rows, err := t.tx.QueryContext(ctx, query, tenantID, unitID, w.End.UTC(), w.Start.UTC())
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

func getReservation(ctx context.Context, q rowQuerier, tenantID, id uint64) (*model.Reservation, error) {
    query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ? AND tenant_id = ?`
    r, err := scanReservation(q.QueryRowContext(ctx, query, id, tenantID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, booking.ErrNotFound
        }
        return nil, err
    }
    return r, nil
}

func (t storeTx) GetReservation(ctx context.Context, tenantID, id uint64) (*model.Reservation, error) {
    return getReservation(ctx, t.tx, tenantID, id)
}

func (t storeTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
    const query = `INSERT INTO reservations
        (tenant_id, model_id, unit_id, customer_id, seller_id, start_at, end_at,
         tier, status, deposit_paid, deposit_cents, deposit_paid_at, expires_at,
         notice_sent, is_active, notes, version, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
    res, err := t.tx.ExecContext(ctx, query,
        r.TenantID, r.ModelID, nullableID(r.UnitID), r.CustomerID, nullableID(r.SellerID),
        r.StartAt.UTC(), r.EndAt.UTC(), r.Tier, r.Status,
        r.DepositPaid, r.DepositCents, nullableTime(r.DepositPaidAt), nullableTime(r.ExpiresAt),
        r.NoticeSent, r.IsActive, nullableStr(r.Notes), r.Version,
        r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
    )
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    r.ID = uint64(id)
    return nil
}

// UpdateReservation writes the mutable fields guarded by the version
// column. A concurrent writer that got in first leaves zero matching
// rows; that surfaces as ErrNotFound so the caller retries from a fresh
// read.
func (t storeTx) UpdateReservation(ctx context.Context, r *model.Reservation) error {
    const query = `UPDATE reservations
                   SET unit_id = ?, tier = ?, status = ?,
                       deposit_paid = ?, deposit_cents = ?, deposit_paid_at = ?,
                       expires_at = ?, notice_sent = ?, is_active = ?,
                       version = version + 1, updated_at = ?
                   WHERE id = ? AND tenant_id = ? AND version = ?`
    res, err := t.tx.ExecContext(ctx, query,
        nullableID(r.UnitID), r.Tier, r.Status,
        r.DepositPaid, r.DepositCents, nullableTime(r.DepositPaidAt),
        nullableTime(r.ExpiresAt), r.NoticeSent, r.IsActive,
        r.UpdatedAt.UTC(),
        r.ID, r.TenantID, r.Version,
    )
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return fmt.Errorf("reservation %d at version %d: %w", r.ID, r.Version, booking.ErrNotFound)
    }
    r.Version++
    return nil
}

// CountsInWindow is the lock-free variant for read-only availability
// queries, executed against the pool.
func (s *ReservationStore) CountsInWindow(ctx context.Context, tenantID, modelID uint64, w booking.Window) (booking.WindowCounts, error) {
    return countsInWindow(ctx, s.db, tenantID, modelID, w, 0)
}

// GetReservation loads one reservation scoped to the tenant. A row owned
// by a different tenant reads as missing.
func (s *ReservationStore) GetReservation(ctx context.Context, tenantID, id uint64) (*model.Reservation, error) {
    return getReservation(ctx, s.db, tenantID, id)
}

// ListReservations returns the tenant's reservations newest first,
// optionally filtered by status.
func (s *ReservationStore) ListReservations(ctx context.Context, tenantID uint64, status string) ([]model.Reservation, error) {
    query := `SELECT ` + reservationColumns + ` FROM reservations WHERE tenant_id = ?`
    args := []interface{}{tenantID}
    if status != "" {
        query += ` AND status = ?`
        args = append(args, status)
    }
    query += ` ORDER BY created_at DESC`
    rows, err := s.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

// ExpireCandidates returns reservations eligible for auto-expiration:
// unpaid, active, non-terminal and past their grace deadline.
func (s *ReservationStore) ExpireCandidates(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
    query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE deposit_paid = 0 AND is_active = 1
                AND status IN ('PENDING','CONFIRMED')
                AND expires_at IS NOT NULL AND expires_at <= ?
              ORDER BY expires_at
              LIMIT ?`
    rows, err := s.db.QueryContext(ctx, query, now.UTC(), limit)
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

// MarkExpired applies the EXPIRED transition as a guarded conditional
// update. Every precondition is restated in the WHERE clause, so an
// overlapping sweep or a racing deposit/cancel leaves zero affected rows
// instead of a double transition.
func (s *ReservationStore) MarkExpired(ctx context.Context, id uint64, version uint32, now time.Time) (bool, error) {
    const query = `UPDATE reservations
                   SET status = 'EXPIRED', is_active = 0,
                       version = version + 1, updated_at = ?
                   WHERE id = ? AND version = ?
                     AND deposit_paid = 0 AND is_active = 1
                     AND status IN ('PENDING','CONFIRMED')`
    res, err := s.db.ExecContext(ctx, query, now.UTC(), id, version)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// NoticeCandidates joins each unpaid reservation against its tenant's
// policy to find rows entering the pre-expiration notice lead.
func (s *ReservationStore) NoticeCandidates(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
    const query = `SELECT r.id, r.tenant_id, r.model_id, r.unit_id, r.customer_id, r.seller_id,
                          r.start_at, r.end_at, r.tier, r.status, r.deposit_paid, r.deposit_cents, r.deposit_paid_at,
                          r.expires_at, r.notice_sent, r.is_active, r.notes, r.version, r.created_at, r.updated_at
                   FROM reservations r
                   JOIN capacity_policies p ON p.tenant_id = r.tenant_id
                   WHERE r.deposit_paid = 0 AND r.is_active = 1 AND r.notice_sent = 0
                     AND r.status IN ('PENDING','CONFIRMED')
                     AND r.expires_at IS NOT NULL
                     AND p.notice_enabled = 1
                     AND r.expires_at <= DATE_ADD(?, INTERVAL p.notice_lead_minutes MINUTE)
                   ORDER BY r.expires_at
                   LIMIT ?`
    rows, err := s.db.QueryContext(ctx, query, now.UTC(), limit)
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

// MarkNoticeSent flips the notice flag with the same guarded-update
// discipline as MarkExpired.
func (s *ReservationStore) MarkNoticeSent(ctx context.Context, id uint64, version uint32, now time.Time) (bool, error) {
    const query = `UPDATE reservations
                   SET notice_sent = 1, version = version + 1, updated_at = ?
                   WHERE id = ? AND version = ? AND notice_sent = 0`
    res, err := s.db.ExecContext(ctx, query, now.UTC(), id, version)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// NeedsReview lists deposited reservations past their expiration marker.
// The sweeper never touches them; an operator decides what happens.
func (s *ReservationStore) NeedsReview(ctx context.Context, tenantID uint64, now time.Time) ([]model.Reservation, error) {
    query := `SELECT ` + reservationColumns + `
              FROM reservations
              WHERE tenant_id = ? AND deposit_paid = 1 AND is_active = 1
                AND status IN ('PENDING','CONFIRMED')
                AND expires_at IS NOT NULL AND expires_at <= ?
              ORDER BY expires_at`
    rows, err := s.db.QueryContext(ctx, query, tenantID, now.UTC())
    if err != nil {
        return nil, err
    }
    return collectReservations(rows)
}

func nullableID(v *uint64) interface{} {
    if v == nil {
        return nil
    }
    return *v
}

func nullableTime(v *time.Time) interface{} {
    if v == nil {
        return nil
    }
    return v.UTC()
}

func nullableStr(v *string) interface{} {
    if v == nil {
        return nil
    }
    return *v
}
