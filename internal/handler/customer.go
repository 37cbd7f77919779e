package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "marina-reservation/internal/booking"
    "marina-reservation/internal/model"
    "marina-reservation/internal/repository"
)

// CustomerHandler manages the customer directory. Eligibility (active +
// terms accepted) is what the booking engine checks at admission time.
type CustomerHandler struct {
    Customers *repository.CustomerRepo
}

func NewCustomerHandler(customers *repository.CustomerRepo) *CustomerHandler {
    if customers == nil {
        panic("nil repository passed to NewCustomerHandler")
    }
    return &CustomerHandler{Customers: customers}
}

type createCustomerReq struct {
    FullName      string `json:"full_name"`
    Email         string `json:"email"`
    TermsAccepted bool   `json:"terms_accepted"`
}

type termsReq struct {
    Accepted bool `json:"accepted"`
}

type customerView struct {
    ID            uint64 `json:"id"`
    FullName      string `json:"full_name"`
    Email         string `json:"email"`
    TermsAccepted bool   `json:"terms_accepted"`
    IsActive      bool   `json:"is_active"`
    CreatedAt     string `json:"created_at"`
}

func customerViewOf(cu *model.Customer) customerView {
    return customerView{
        ID:            cu.ID,
        FullName:      cu.FullName,
        Email:         cu.Email,
        TermsAccepted: cu.TermsAccepted,
        IsActive:      cu.IsActive,
        CreatedAt:     cu.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// Create handles POST /v1/customers.
func (h *CustomerHandler) Create(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createCustomerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.FullName = strings.TrimSpace(req.FullName)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.FullName == "" || req.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name and email required"})
    }
    cu := &model.Customer{
        TenantID:      tenantID,
        FullName:      req.FullName,
        Email:         req.Email,
        TermsAccepted: req.TermsAccepted,
    }
    if err := h.Customers.Create(c.Request().Context(), cu); err != nil {
        if errors.Is(err, repository.ErrCustomerEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create customer failed"})
    }
    return c.JSON(http.StatusCreated, customerViewOf(cu))
}

// List handles GET /v1/customers.
func (h *CustomerHandler) List(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    customers, err := h.Customers.List(c.Request().Context(), tenantID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list customers failed"})
    }
    out := make([]customerView, 0, len(customers))
    for i := range customers {
        out = append(out, customerViewOf(&customers[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"customers": out})
}

// SetTerms handles PATCH /v1/customers/:id/terms.
func (h *CustomerHandler) SetTerms(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req termsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := h.Customers.SetTermsAccepted(c.Request().Context(), tenantID, id, req.Accepted); err != nil {
        if errors.Is(err, booking.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update customer failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Deactivate handles DELETE /v1/customers/:id (soft delete).
func (h *CustomerHandler) Deactivate(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.Customers.Deactivate(c.Request().Context(), tenantID, id); err != nil {
        if errors.Is(err, booking.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete customer failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
