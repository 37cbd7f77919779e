package model

import "time"

// Operator roles. ADMIN may edit the capacity policy and the fleet; STAFF
// may work with reservations and customers.
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)

// User represents an operator account as stored in the `users` table.
// Every user belongs to exactly one tenant; the tenant ID travels in the
// access token and is passed explicitly into every service call.
//
// Fields:
//  ID           – primary key identifier of the user.
//  TenantID     – tenant organization the account belongs to.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – ADMIN or STAFF.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    TenantID     uint64    // users.tenant_id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Tenant is one customer organization. All domain rows (fleet, customers,
// reservations, policy) hang off a tenant ID; no data is shared between
// tenants.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – organization display name.
//  CreatedAt – timestamp of creation.
type Tenant struct {
    ID        uint64    // tenants.id
    Name      string    // tenants.name
    CreatedAt time.Time // tenants.created_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
