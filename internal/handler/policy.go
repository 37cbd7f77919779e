package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
    "marina-reservation/internal/repository"
)

// PolicyHandler exposes the tenant's capacity policy. Reads are open to
// all operators; updates are ADMIN-only via the role middleware.
type PolicyHandler struct {
    Policies *repository.PolicyRepo
}

func NewPolicyHandler(policies *repository.PolicyRepo) *PolicyHandler {
    if policies == nil {
        panic("nil repository passed to NewPolicyHandler")
    }
    return &PolicyHandler{Policies: policies}
}

type policyView struct {
    GraceMinutes      uint32  `json:"grace_minutes"`
    DepositPercent    uint8   `json:"deposit_percent"`
    OverbookingFactor float64 `json:"overbooking_factor"`
    AbsoluteCap       uint32  `json:"absolute_cap"`
    NoticeEnabled     bool    `json:"notice_enabled"`
    NoticeLeadMinutes uint32  `json:"notice_lead_minutes"`
    UpdatedAt         string  `json:"updated_at"`
}

type updatePolicyReq struct {
    GraceMinutes      uint32  `json:"grace_minutes"`
    DepositPercent    uint8   `json:"deposit_percent"`
    OverbookingFactor float64 `json:"overbooking_factor"`
    AbsoluteCap       uint32  `json:"absolute_cap"`
    NoticeEnabled     bool    `json:"notice_enabled"`
    NoticeLeadMinutes uint32  `json:"notice_lead_minutes"`
}

// Get handles GET /v1/policy.
func (h *PolicyHandler) Get(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    p, err := h.Policies.PolicyFor(c.Request().Context(), tenantID)
    if err != nil {
        if errors.Is(err, booking.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "policy not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load policy failed"})
    }
    return c.JSON(http.StatusOK, policyView{
        GraceMinutes:      p.GraceMinutes,
        DepositPercent:    p.DepositPercent,
        OverbookingFactor: p.OverbookingFactor,
        AbsoluteCap:       p.AbsoluteCap,
        NoticeEnabled:     p.NoticeEnabled,
        NoticeLeadMinutes: p.NoticeLeadMinutes,
        UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339),
    })
}

// Update handles PUT /v1/policy. The knobs are validated here so the
// engine can assume a well-formed policy everywhere else.
func (h *PolicyHandler) Update(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req updatePolicyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.GraceMinutes == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "grace_minutes must be positive"})
    }
    if req.OverbookingFactor < 1.0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "overbooking_factor must be >= 1.0"})
    }
    if req.DepositPercent > 100 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "deposit_percent must be 0-100"})
    }
    if req.AbsoluteCap == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "absolute_cap must be positive"})
    }
    p := model.CapacityPolicy{
        TenantID:          tenantID,
        GraceMinutes:      req.GraceMinutes,
        DepositPercent:    req.DepositPercent,
        OverbookingFactor: req.OverbookingFactor,
        AbsoluteCap:       req.AbsoluteCap,
        NoticeEnabled:     req.NoticeEnabled,
        NoticeLeadMinutes: req.NoticeLeadMinutes,
    }
    if err := h.Policies.Update(c.Request().Context(), p); err != nil {
        if errors.Is(err, booking.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "policy not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update policy failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
