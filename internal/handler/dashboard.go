package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/service"
)

// DashboardHandler serves the aggregated home view. The heavy lifting
// lives in service.Engine; this handler only resolves the month key
// and picks the response shape.
type DashboardHandler struct {
	Engine *service.Engine
}

func NewDashboardHandler(en *service.Engine) *DashboardHandler {
	return &DashboardHandler{Engine: en}
}

// Page renders the dashboard for ?month=YYYY-MM (default: current).
func (h *DashboardHandler) Page(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	dash, err := h.Engine.Build(ctx, accountID, c.QueryParam("month"), time.Now())
	if err != nil {
		return c.Render(http.StatusInternalServerError, "dashboard.html", echo.Map{"Error": "could not load dashboard, try again"})
	}
	return c.Render(http.StatusOK, "dashboard.html", echo.Map{
		"Dash": dash,
		"Name": accountName(c),
	})
}

// Get is the JSON twin of Page for API clients.
func (h *DashboardHandler) Get(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	dash, err := h.Engine.Build(ctx, accountID, c.QueryParam("month"), time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "build dashboard failed"})
	}
	return c.JSON(http.StatusOK, dash)
}
