package handler

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "marina-reservation/internal/booking"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
    return contextID(c, "user_id")
}

// tenantFromContext extracts the tenant_id claim placed by JWTAuth.
func tenantFromContext(c echo.Context) (uint64, bool) {
    id, err := contextID(c, "tenant_id")
    return id, err == nil
}

// contextID reads a numeric context value set by the JWT middleware. JWT
// numeric claims decode as float64; older callers may store native ints.
func contextID(c echo.Context, key string) (uint64, error) {
    v := c.Get(key)
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid " + key + " in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}

// queryID parses a numeric query parameter.
func queryID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.QueryParam(name), 10, 64)
}

// parseRFC3339 parses a timestamp parameter and normalizes it to UTC.
func parseRFC3339(s string) (time.Time, error) {
    t, err := time.Parse(time.RFC3339, s)
    if err != nil {
        return time.Time{}, err
    }
    return t.UTC(), nil
}

// httpError translates the booking error taxonomy into an HTTP response.
// Unknown errors become opaque 500s so internals never leak to clients.
func httpError(c echo.Context, err error) error {
    status := http.StatusInternalServerError
    msg := "internal error"
    switch booking.KindOf(err) {
    case booking.KindValidation:
        status, msg = http.StatusBadRequest, err.Error()
    case booking.KindNotFound:
        status, msg = http.StatusNotFound, err.Error()
    case booking.KindConflict:
        status, msg = http.StatusConflict, err.Error()
    case booking.KindCapacity:
        status, msg = http.StatusConflict, err.Error()
    case booking.KindIllegalState:
        status, msg = http.StatusUnprocessableEntity, err.Error()
    }
    return c.JSON(status, echo.Map{"error": msg})
}
