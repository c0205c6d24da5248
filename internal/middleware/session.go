package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// SessionCookie is the name of the HTTP-only cookie carrying the signed
// session token. API clients may alternatively send the same token as a
// Bearer Authorization header.
const SessionCookie = "session"

// SessionAuth returns an Echo middleware that validates the session
// token and injects the token's subject (account id) and display name
// claims into the request context. Protected handlers read them via
// `c.Get("account_id")` and `c.Get("account_name")`. Unauthenticated
// API calls receive a 401 JSON body.
func SessionAuth(secret string) echo.MiddlewareFunc {
    return sessionAuth(secret, false)
}

// PageAuth behaves like SessionAuth but redirects unauthenticated
// requests to the login page, which is the expected behavior for
// server-rendered pages.
func PageAuth(secret string) echo.MiddlewareFunc {
    return sessionAuth(secret, true)
}

func sessionAuth(secret string, redirect bool) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw := tokenFrom(c)
            if raw == "" {
                return reject(c, redirect, "missing session")
            }

            // Parse the token using the HS256 signing method and our
            // secret. If the signing method differs, we reject the
            // token by returning an unauthorized error.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return reject(c, redirect, "invalid session")
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return reject(c, redirect, "invalid claims")
            }

            // Store the subject (account id) and display name in the
            // context. Type assertions are left to downstream consumers.
            c.Set("account_id", claims["sub"])
            c.Set("account_name", claims["name"])
            return next(c)
        }
    }
}

// tokenFrom extracts the raw session token, preferring the cookie and
// falling back to a Bearer Authorization header.
func tokenFrom(c echo.Context) string {
    if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
        return ck.Value
    }
    auth := c.Request().Header.Get("Authorization")
    if strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimPrefix(auth, "Bearer ")
    }
    return ""
}

func reject(c echo.Context, redirect bool, msg string) error {
    if redirect {
        return c.Redirect(http.StatusFound, "/login")
    }
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}
