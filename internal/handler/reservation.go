package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
)

// ReservationHandler exposes the booking engine over HTTP. All state
// transitions and admission decisions live in the booking service; this
// layer only binds requests, resolves the tenant from the JWT claims and
// maps the error taxonomy to status codes.
type ReservationHandler struct {
    Svc *booking.Service
}

func NewReservationHandler(svc *booking.Service) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Svc: svc}
}

// ----- DTOs -----

type createReservationReq struct {
    ModelID    uint64  `json:"model_id"`
    CustomerID uint64  `json:"customer_id"`
    UnitID     *uint64 `json:"unit_id,omitempty"`
    SellerID   *uint64 `json:"seller_id,omitempty"`
    StartAt    string  `json:"start_at"` // RFC3339
    EndAt      string  `json:"end_at"`   // RFC3339
    Notes      *string `json:"notes,omitempty"`
}

type depositReq struct {
    AmountCents uint32 `json:"amount_cents"`
}

type allocateReq struct {
    UnitID uint64 `json:"unit_id"`
}

// reservationView is the wire shape of a reservation. Timestamps are
// RFC3339 UTC strings.
type reservationView struct {
    ID            uint64  `json:"id"`
    ModelID       uint64  `json:"model_id"`
    UnitID        *uint64 `json:"unit_id,omitempty"`
    CustomerID    uint64  `json:"customer_id"`
    SellerID      *uint64 `json:"seller_id,omitempty"`
    StartAt       string  `json:"start_at"`
    EndAt         string  `json:"end_at"`
    Tier          string  `json:"tier"`
    Status        string  `json:"status"`
    DepositPaid   bool    `json:"deposit_paid"`
    DepositCents  uint32  `json:"deposit_cents,omitempty"`
    DepositPaidAt *string `json:"deposit_paid_at,omitempty"`
    ExpiresAt     *string `json:"expires_at,omitempty"`
    Notes         *string `json:"notes,omitempty"`
    CreatedAt     string  `json:"created_at"`
    UpdatedAt     string  `json:"updated_at"`
}

func viewOf(r *model.Reservation) reservationView {
    v := reservationView{
        ID:           r.ID,
        ModelID:      r.ModelID,
        UnitID:       r.UnitID,
        CustomerID:   r.CustomerID,
        SellerID:     r.SellerID,
        StartAt:      r.StartAt.UTC().Format(time.RFC3339),
        EndAt:        r.EndAt.UTC().Format(time.RFC3339),
        Tier:         r.Tier,
        Status:       r.Status,
        DepositPaid:  r.DepositPaid,
        DepositCents: r.DepositCents,
        Notes:        r.Notes,
        CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
        UpdatedAt:    r.UpdatedAt.UTC().Format(time.RFC3339),
    }
    if r.DepositPaidAt != nil {
        s := r.DepositPaidAt.UTC().Format(time.RFC3339)
        v.DepositPaidAt = &s
    }
    if r.ExpiresAt != nil {
        s := r.ExpiresAt.UTC().Format(time.RFC3339)
        v.ExpiresAt = &s
    }
    return v
}

func viewsOf(rs []model.Reservation) []reservationView {
    out := make([]reservationView, 0, len(rs))
    for i := range rs {
        out = append(out, viewOf(&rs[i]))
    }
    return out
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createReservationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    start, err := parseRFC3339(req.StartAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
    }
    end, err := parseRFC3339(req.EndAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be RFC3339"})
    }

    res, err := h.Svc.Create(c.Request().Context(), tenantID, booking.CreateParams{
        ModelID:    req.ModelID,
        CustomerID: req.CustomerID,
        UnitID:     req.UnitID,
        SellerID:   req.SellerID,
        StartAt:    start,
        EndAt:      end,
        Notes:      req.Notes,
    })
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusCreated, viewOf(res))
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    res, err := h.Svc.Get(c.Request().Context(), tenantID, id)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, viewOf(res))
}

// List handles GET /v1/reservations?status=PENDING.
func (h *ReservationHandler) List(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
    rs, err := h.Svc.List(c.Request().Context(), tenantID, status)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": viewsOf(rs)})
}

// NeedsReview handles GET /v1/reservations/needs-review: deposited bookings
// past their expiration marker, waiting for an operator decision.
func (h *ReservationHandler) NeedsReview(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    rs, err := h.Svc.ListNeedsReview(c.Request().Context(), tenantID)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservations": viewsOf(rs)})
}

// Confirm handles POST /v1/reservations/:id/confirm.
func (h *ReservationHandler) Confirm(c echo.Context) error {
    return h.transition(c, h.Svc.Confirm)
}

// Cancel handles POST /v1/reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    return h.transition(c, h.Svc.Cancel)
}

// Deposit handles POST /v1/reservations/:id/deposit. Recording a deposit
// upgrades the reservation to the GUARANTEED tier.
func (h *ReservationHandler) Deposit(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req depositReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    res, err := h.Svc.ConfirmDeposit(c.Request().Context(), tenantID, id, req.AmountCents)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, viewOf(res))
}

// Allocate handles POST /v1/reservations/:id/allocate: assigns a physical
// boat to a confirmed reservation.
func (h *ReservationHandler) Allocate(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req allocateReq
    if err := c.Bind(&req); err != nil || req.UnitID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_id required"})
    }
    res, err := h.Svc.AllocateUnit(c.Request().Context(), tenantID, id, req.UnitID)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, viewOf(res))
}

// Availability handles GET /v1/availability?model_id=&start_at=&end_at=.
func (h *ReservationHandler) Availability(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    modelID, err := queryID(c, "model_id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "model_id required"})
    }
    start, err := parseRFC3339(c.QueryParam("start_at"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be RFC3339"})
    }
    end, err := parseRFC3339(c.QueryParam("end_at"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_at must be RFC3339"})
    }
    avail, err := h.Svc.CheckAvailability(c.Request().Context(), tenantID, modelID, start, end)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, avail)
}

func (h *ReservationHandler) transition(c echo.Context, op func(ctx context.Context, tenantID, id uint64) (*model.Reservation, error)) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    res, err := op(c.Request().Context(), tenantID, id)
    if err != nil {
        return httpError(c, err)
    }
    return c.JSON(http.StatusOK, viewOf(res))
}
