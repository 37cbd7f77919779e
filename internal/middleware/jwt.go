package middleware // middleware contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the token's subject, tenant and role claims into the request
// context. The provided secret must match the one used when issuing
// tokens. This middleware wraps protected routes so that handlers can read
// the authenticated identity via c.Get("user_id"), c.Get("tenant_id") and
// c.Get("role"). Every tenant-scoped query downstream keys off the
// tenant_id claim, so a token from one marina can never read another's
// rows.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header is "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret. The callback checks the
            // algorithm so an attacker cannot downgrade to "none" or swap
            // in an asymmetric method.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // A token without a tenant claim cannot be scoped to any data
            // and is rejected outright.
            if claims["tenant_id"] == nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            // Handlers and downstream middleware read these via c.Get().
            // Type assertions are left to the consumers.
            c.Set("user_id", claims["sub"])
            c.Set("tenant_id", claims["tenant_id"])
            c.Set("role", claims["role"])
            return next(c)
        }
    }
}
