package model

import "time"

// Boat statuses as reported by the fleet directory. Reservations never
// mutate a boat's status themselves; they only read it at allocation time.
const (
    BoatAvailable   = "AVAILABLE"
    BoatRented      = "RENTED"
    BoatMaintenance = "MAINTENANCE"
    BoatBlocked     = "BLOCKED"
)

// BoatModel groups interchangeable physical boats of the same make/type.
// Model-level bookings count against the number of active boats of the
// model, so the model row doubles as the lock anchor for the capacity
// critical section.
//
// Fields:
//  ID          – primary key identifier.
//  TenantID    – owning tenant organization.
//  Name        – unique model name per tenant (e.g. "WaveRunner VX").
//  Description – optional description of the model.
//  IsActive    – whether the model is offered for booking.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type BoatModel struct {
    ID          uint64    // boat_models.id
    TenantID    uint64    // boat_models.tenant_id
    Name        string    // boat_models.name
    Description *string   // boat_models.description (nullable)
    IsActive    bool      // boat_models.is_active
    CreatedAt   time.Time // boat_models.created_at
    UpdatedAt   time.Time // boat_models.updated_at
}

// Boat is one physical unit of a model. Only AVAILABLE boats may be
// allocated to a confirmed reservation.
//
// Fields:
//  ID        – primary key identifier.
//  TenantID  – owning tenant organization.
//  ModelID   – model this boat belongs to.
//  Name      – hull name or registration label.
//  Status    – see boat status constants above.
//  IsActive  – soft-delete flag; inactive boats never count as capacity.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Boat struct {
    ID        uint64    // boats.id
    TenantID  uint64    // boats.tenant_id
    ModelID   uint64    // boats.model_id
    Name      string    // boats.name
    Status    string    // boats.status
    IsActive  bool      // boats.is_active
    CreatedAt time.Time // boats.created_at
    UpdatedAt time.Time // boats.updated_at
}
