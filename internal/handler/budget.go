package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/repository"
	"github.com/avelune/homehub/internal/service"
)

// BudgetHandler serves the monthly budget page and the budget API.
// Every endpoint keys on ?month=YYYY-MM and falls back to the current
// month when the key is absent or malformed.
type BudgetHandler struct {
	Budgets  *repository.BudgetRepo
	Expenses *repository.ExpenseRepo
	Grocery  *repository.GroceryRepo
}

func NewBudgetHandler(b *repository.BudgetRepo, e *repository.ExpenseRepo, g *repository.GroceryRepo) *BudgetHandler {
	return &BudgetHandler{Budgets: b, Expenses: e, Grocery: g}
}

type budgetReq struct {
	Month  string  `json:"month" form:"month"`
	Income float64 `json:"income" form:"income"`
	Limit  float64 `json:"budget_limit" form:"budget_limit"`
}

// monthOf resolves the month key for the request.
func monthOf(c echo.Context) string {
	return service.NormalizeMonth(c.QueryParam("month"), time.Now())
}

// Page renders the budget overview with this month's rows.
func (h *BudgetHandler) Page(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	month := monthOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	budget, err := h.Budgets.GetByMonth(ctx, accountID, month)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return c.Render(http.StatusInternalServerError, "budget.html", echo.Map{"Error": "could not load budget"})
	}
	expenses, err := h.Expenses.ListByMonth(ctx, accountID, month)
	if err != nil {
		return c.Render(http.StatusInternalServerError, "budget.html", echo.Map{"Error": "could not load expenses"})
	}
	groceries, err := h.Grocery.ListByMonth(ctx, accountID, month)
	if err != nil {
		return c.Render(http.StatusInternalServerError, "budget.html", echo.Map{"Error": "could not load groceries"})
	}

	spent := service.SpentTotal(expenses, groceries)
	return c.Render(http.StatusOK, "budget.html", echo.Map{
		"Month":     month,
		"Budget":    budget,
		"Expenses":  expenses,
		"Groceries": groceries,
		"Spent":     spent,
		"Remaining": budget.Income - spent,
		"Name":      accountName(c),
	})
}

// Get returns the budget row for the month, or the zero row with the
// month key when none is saved yet.
func (h *BudgetHandler) Get(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	month := monthOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	budget, err := h.Budgets.GetByMonth(ctx, accountID, month)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusOK, repository.MonthlyBudget{MonthISO: month})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load budget failed"})
	}
	return c.JSON(http.StatusOK, budget)
}

// Put upserts the income and limit for the month.
func (h *BudgetHandler) Put(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req budgetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Income < 0 || req.Limit < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "income and limit must be non-negative"})
	}
	month := service.NormalizeMonth(strings.TrimSpace(req.Month), time.Now())

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	b := repository.MonthlyBudget{AccountID: accountID, MonthISO: month, Income: req.Income, Limit: req.Limit}
	if err := h.Budgets.Upsert(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save budget failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, b)
	}
	return c.Redirect(http.StatusFound, "/budget?month="+month)
}

// Delete removes the budget row for the month.
func (h *BudgetHandler) Delete(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	month := monthOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Budgets.Delete(ctx, accountID, month); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no budget for that month"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete budget failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Settings is the form twin of Put. It accepts string fields so an
// empty form input reads as zero instead of a bind error.
func (h *BudgetHandler) Settings(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	income, err := parseAmount(c.FormValue("income"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "income must be a non-negative number"})
	}
	limit, err := parseAmount(c.FormValue("budget_limit"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a non-negative number"})
	}
	month := service.NormalizeMonth(c.FormValue("month"), time.Now())

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	b := repository.MonthlyBudget{AccountID: accountID, MonthISO: month, Income: income, Limit: limit}
	if err := h.Budgets.Upsert(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save budget failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, b)
	}
	return c.Redirect(http.StatusFound, "/budget?month="+month)
}

// parseAmount parses a non-negative money amount; empty means zero.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, errors.New("invalid amount")
	}
	return n, nil
}
