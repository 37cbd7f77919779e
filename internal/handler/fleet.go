package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "marina-reservation/internal/model"
    "marina-reservation/internal/repository"
)

// FleetHandler manages boat models and physical boats. Fleet mutations are
// ADMIN-only; the routes enforce that via the role middleware.
type FleetHandler struct {
    Fleet *repository.FleetRepo
}

func NewFleetHandler(fleet *repository.FleetRepo) *FleetHandler {
    if fleet == nil {
        panic("nil repository passed to NewFleetHandler")
    }
    return &FleetHandler{Fleet: fleet}
}

type createModelReq struct {
    Name        string  `json:"name"`
    Description *string `json:"description,omitempty"`
}

type createBoatReq struct {
    ModelID uint64 `json:"model_id"`
    Name    string `json:"name"`
}

type boatStatusReq struct {
    Status string `json:"status"`
}

type modelView struct {
    ID          uint64  `json:"id"`
    Name        string  `json:"name"`
    Description *string `json:"description,omitempty"`
    IsActive    bool    `json:"is_active"`
    CreatedAt   string  `json:"created_at"`
}

type boatView struct {
    ID        uint64 `json:"id"`
    ModelID   uint64 `json:"model_id"`
    Name      string `json:"name"`
    Status    string `json:"status"`
    IsActive  bool   `json:"is_active"`
    CreatedAt string `json:"created_at"`
}

func modelViewOf(m *model.BoatModel) modelView {
    return modelView{
        ID:          m.ID,
        Name:        m.Name,
        Description: m.Description,
        IsActive:    m.IsActive,
        CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
    }
}

func boatViewOf(b *model.Boat) boatView {
    return boatView{
        ID:        b.ID,
        ModelID:   b.ModelID,
        Name:      b.Name,
        Status:    b.Status,
        IsActive:  b.IsActive,
        CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
    }
}

// CreateModel handles POST /v1/models.
func (h *FleetHandler) CreateModel(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createModelReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    m := &model.BoatModel{TenantID: tenantID, Name: req.Name, Description: req.Description}
    if err := h.Fleet.CreateModel(c.Request().Context(), m); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create model failed"})
    }
    return c.JSON(http.StatusCreated, modelViewOf(m))
}

// ListModels handles GET /v1/models.
func (h *FleetHandler) ListModels(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    models, err := h.Fleet.ListModels(c.Request().Context(), tenantID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list models failed"})
    }
    out := make([]modelView, 0, len(models))
    for i := range models {
        out = append(out, modelViewOf(&models[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"models": out})
}

// CreateBoat handles POST /v1/boats.
func (h *FleetHandler) CreateBoat(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBoatReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" || req.ModelID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "model_id and name required"})
    }
    b := &model.Boat{TenantID: tenantID, ModelID: req.ModelID, Name: req.Name}
    if err := h.Fleet.CreateBoat(c.Request().Context(), b); err != nil {
        if errors.Is(err, repository.ErrModelNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "model not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create boat failed"})
    }
    return c.JSON(http.StatusCreated, boatViewOf(b))
}

// ListBoats handles GET /v1/models/:id/boats.
func (h *FleetHandler) ListBoats(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    modelID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    boats, err := h.Fleet.ListBoats(c.Request().Context(), tenantID, modelID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list boats failed"})
    }
    out := make([]boatView, 0, len(boats))
    for i := range boats {
        out = append(out, boatViewOf(&boats[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"boats": out})
}

// UpdateBoatStatus handles PATCH /v1/boats/:id/status.
func (h *FleetHandler) UpdateBoatStatus(c echo.Context) error {
    tenantID, ok := tenantFromContext(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    boatID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req boatStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    switch status {
    case model.BoatAvailable, model.BoatRented, model.BoatMaintenance, model.BoatBlocked:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }
    if err := h.Fleet.UpdateBoatStatus(c.Request().Context(), tenantID, boatID, status); err != nil {
        if errors.Is(err, repository.ErrBoatNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "boat not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update boat failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
