package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
)

// policyCacheTTL bounds how stale a cached policy can get. Updates
// invalidate eagerly; the TTL only covers writers outside this process.
const policyCacheTTL = 5 * time.Minute

// PolicyRepo stores per-tenant capacity policies. Policies are read on
// every admission check and change rarely, so reads go through an optional
// Redis JSON cache. A nil Redis client degrades to plain DB reads.
type PolicyRepo struct {
    db  *sql.DB
    rdb *redis.Client
}

// NewPolicyRepo constructs a PolicyRepo. rdb may be nil to disable caching.
func NewPolicyRepo(db *sql.DB, rdb *redis.Client) *PolicyRepo {
    return &PolicyRepo{db: db, rdb: rdb}
}

var _ booking.PolicySource = (*PolicyRepo)(nil)

func policyKey(tenantID uint64) string {
    return fmt.Sprintf("policy:%d", tenantID)
}

// PolicyFor returns the tenant's capacity policy, consulting the cache
// first. A cache failure is treated as a miss, never as an error.
func (r *PolicyRepo) PolicyFor(ctx context.Context, tenantID uint64) (model.CapacityPolicy, error) {
    if r.rdb != nil {
        if bs, err := r.rdb.Get(ctx, policyKey(tenantID)).Bytes(); err == nil {
            var p model.CapacityPolicy
            if json.Unmarshal(bs, &p) == nil && p.TenantID == tenantID {
                return p, nil
            }
        }
    }
    p, err := r.load(ctx, tenantID)
    if err != nil {
        return model.CapacityPolicy{}, err
    }
    if r.rdb != nil {
        if bs, err := json.Marshal(p); err == nil {
            _ = r.rdb.SetEx(ctx, policyKey(tenantID), bs, policyCacheTTL).Err()
        }
    }
    return p, nil
}

func (r *PolicyRepo) load(ctx context.Context, tenantID uint64) (model.CapacityPolicy, error) {
    const q = `SELECT tenant_id, grace_minutes, deposit_percent, overbooking_factor,
                      absolute_cap, notice_enabled, notice_lead_minutes, created_at, updated_at
               FROM capacity_policies WHERE tenant_id = ?`
    var p model.CapacityPolicy
    err := r.db.QueryRowContext(ctx, q, tenantID).Scan(
        &p.TenantID, &p.GraceMinutes, &p.DepositPercent, &p.OverbookingFactor,
        &p.AbsoluteCap, &p.NoticeEnabled, &p.NoticeLeadMinutes, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return model.CapacityPolicy{}, fmt.Errorf("policy for tenant %d: %w", tenantID, booking.ErrNotFound)
        }
        return model.CapacityPolicy{}, err
    }
    return p, nil
}

// EnsureDefault creates the default policy row for a freshly registered
// tenant. An existing row is left untouched.
func (r *PolicyRepo) EnsureDefault(ctx context.Context, tenantID uint64) error {
    p := model.DefaultCapacityPolicy(tenantID)
    const q = `INSERT IGNORE INTO capacity_policies
               (tenant_id, grace_minutes, deposit_percent, overbooking_factor,
                absolute_cap, notice_enabled, notice_lead_minutes)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q,
        p.TenantID, p.GraceMinutes, p.DepositPercent, p.OverbookingFactor,
        p.AbsoluteCap, p.NoticeEnabled, p.NoticeLeadMinutes,
    )
    return err
}

// Update overwrites the tenant's policy and invalidates the cache entry.
// Returns booking.ErrNotFound when the tenant has no policy row.
func (r *PolicyRepo) Update(ctx context.Context, p model.CapacityPolicy) error {
    const q = `UPDATE capacity_policies
               SET grace_minutes = ?, deposit_percent = ?, overbooking_factor = ?,
                   absolute_cap = ?, notice_enabled = ?, notice_lead_minutes = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE tenant_id = ?`
    res, err := r.db.ExecContext(ctx, q,
        p.GraceMinutes, p.DepositPercent, p.OverbookingFactor,
        p.AbsoluteCap, p.NoticeEnabled, p.NoticeLeadMinutes, p.TenantID,
    )
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return fmt.Errorf("policy for tenant %d: %w", p.TenantID, booking.ErrNotFound)
    }
    if r.rdb != nil {
        _ = r.rdb.Del(ctx, policyKey(p.TenantID)).Err()
    }
    return nil
}
