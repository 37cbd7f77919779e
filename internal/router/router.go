package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "marina-reservation/internal/handler"
    "marina-reservation/internal/middleware"
    "marina-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    // Operations that do not require an existing session: register a new
    // tenant, login, refresh, logout.
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token and returns a new pair.
    g.POST("/refresh", a.Refresh)
    // Logout accepts either a bearer token (revoke all sessions) or a
    // refresh_token body (revoke one session).
    g.POST("/logout", a.Logout)

    // Protected identity endpoints.
    auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
    // Only admins may add staff accounts to their tenant.
    auth.POST("/users", a.CreateStaff, middleware.RequireRole(model.RoleAdmin))
}

// RegisterBooking registers the reservation engine endpoints under /v1.
// All routes require a valid JWT; both ADMIN and STAFF operate on
// reservations.
func RegisterBooking(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
    )
    g.POST("/reservations", h.Create)
    g.GET("/reservations", h.List)
    // needs-review must be registered before :id so Echo does not try to
    // parse it as a reservation ID.
    g.GET("/reservations/needs-review", h.NeedsReview)
    g.GET("/reservations/:id", h.Get)
    g.POST("/reservations/:id/confirm", h.Confirm)
    g.POST("/reservations/:id/cancel", h.Cancel)
    g.POST("/reservations/:id/deposit", h.Deposit)
    g.POST("/reservations/:id/allocate", h.Allocate)
    g.GET("/availability", h.Availability)
}

// RegisterFleet registers boat model and boat management endpoints. Reads
// are open to all operators; mutations are ADMIN-only.
func RegisterFleet(e *echo.Echo, h *handler.FleetHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
    )
    g.GET("/models", h.ListModels)
    g.GET("/models/:id/boats", h.ListBoats)

    admin := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    admin.POST("/models", h.CreateModel)
    admin.POST("/boats", h.CreateBoat)
    admin.PATCH("/boats/:id/status", h.UpdateBoatStatus)
}

// RegisterCustomers registers customer directory endpoints for operators.
func RegisterCustomers(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
    )
    g.POST("/customers", h.Create)
    g.GET("/customers", h.List)
    g.PATCH("/customers/:id/terms", h.SetTerms)
    g.DELETE("/customers/:id", h.Deactivate, middleware.RequireRole(model.RoleAdmin))
}

// RegisterPolicy registers capacity policy endpoints. Every operator may
// read the policy; only admins may change it.
func RegisterPolicy(e *echo.Echo, h *handler.PolicyHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin, model.RoleStaff),
    )
    g.GET("/policy", h.Get)

    admin := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleAdmin),
    )
    admin.PUT("/policy", h.Update)
}
