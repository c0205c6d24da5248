package handler // handler defines the HTTP handlers for pages and the JSON API

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeoutSec = 5

// getAccountID extracts the account_id injected by the session
// middleware and converts it to uint64. JWT numeric claims arrive as
// float64, so a type switch covers every representation we may see.
func getAccountID(c echo.Context) (uint64, error) {
	v := c.Get("account_id")
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
	return 0, errors.New("invalid account_id in context")
}

// accountName returns the display name claim set by the session
// middleware, or an empty string when absent.
func accountName(c echo.Context) string {
	if s, ok := c.Get("account_name").(string); ok {
		return s
	}
	return ""
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
