package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/repository"
	"github.com/avelune/homehub/internal/service"
)

// GroceryHandler serves the grocery list API. Items live under a month
// key next to the budget they count against.
type GroceryHandler struct {
	Grocery *repository.GroceryRepo
}

func NewGroceryHandler(g *repository.GroceryRepo) *GroceryHandler {
	return &GroceryHandler{Grocery: g}
}

type groceryReq struct {
	Month         string  `json:"month" form:"month"`
	ItemName      string  `json:"item_name" form:"item_name"`
	Quantity      int     `json:"quantity" form:"quantity"`
	EstimatedCost float64 `json:"estimated_cost" form:"estimated_cost"`
	Category      string  `json:"category" form:"category"`
}

type checkReq struct {
	Checked bool `json:"checked" form:"checked"`
}

// List returns the month's grocery items.
func (h *GroceryHandler) List(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	month := monthOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	items, err := h.Grocery.ListByMonth(ctx, accountID, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list groceries failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// Create adds an item to the month's list. A blank category defaults
// to Groceries, matching how the dashboard attributes the spend.
func (h *GroceryHandler) Create(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req groceryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := strings.TrimSpace(req.ItemName)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "item_name is required"})
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.EstimatedCost < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "estimated_cost must be non-negative"})
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "Groceries"
	}
	month := service.NormalizeMonth(strings.TrimSpace(req.Month), time.Now())

	g := repository.GroceryItem{
		AccountID:     accountID,
		MonthISO:      month,
		ItemName:      name,
		Quantity:      req.Quantity,
		EstimatedCost: req.EstimatedCost,
		Category:      category,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Grocery.Create(ctx, &g); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create item failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, g)
	}
	return c.Redirect(http.StatusFound, "/budget?month="+month)
}

// Check sets the checked flag on an item.
func (h *GroceryHandler) Check(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}
	var req checkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Grocery.SetChecked(ctx, accountID, id, req.Checked); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update item failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "checked": req.Checked})
}

// Delete removes an item owned by the session account.
func (h *GroceryHandler) Delete(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Grocery.Delete(ctx, accountID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete item failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
