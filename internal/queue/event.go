// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationExpiredEvent is published when the sweeper auto-expires a
// no-deposit reservation whose grace period ran out. It carries enough
// information for downstream consumers to log or notify without querying
// the primary database.
type ReservationExpiredEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    TenantID      uint64 `json:"tenant_id"`
    ModelID       uint64 `json:"model_id"`
    CustomerID    uint64 `json:"customer_id"`
    Tier          string `json:"tier"`
    StartAt       string `json:"start_at"`
    EndAt         string `json:"end_at"`
    ExpiredAt     string `json:"expired_at"`
}

// ExpirationApproachingEvent is published once per reservation when an
// unpaid booking enters its tenant's pre-expiration notice lead.
type ExpirationApproachingEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    TenantID      uint64 `json:"tenant_id"`
    ModelID       uint64 `json:"model_id"`
    CustomerID    uint64 `json:"customer_id"`
    StartAt       string `json:"start_at"`
    ExpiresAt     string `json:"expires_at"`
}
