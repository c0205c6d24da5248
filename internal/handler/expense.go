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

// ExpenseHandler serves the expense API. Categories outside the fixed
// enumeration are folded into Others at write time so stored rows are
// always well-formed.
type ExpenseHandler struct {
	Expenses *repository.ExpenseRepo
}

func NewExpenseHandler(e *repository.ExpenseRepo) *ExpenseHandler {
	return &ExpenseHandler{Expenses: e}
}

type expenseReq struct {
	Month       string  `json:"month" form:"month"`
	Category    string  `json:"category" form:"category"`
	Description string  `json:"description" form:"description"`
	Amount      float64 `json:"amount" form:"amount"`
	ExpenseDate string  `json:"expense_date" form:"expense_date"`
}

// List returns the month's expenses.
func (h *ExpenseHandler) List(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	month := monthOf(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	expenses, err := h.Expenses.ListByMonth(ctx, accountID, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list expenses failed"})
	}
	return c.JSON(http.StatusOK, expenses)
}

// Create records an expense under its month key.
func (h *ExpenseHandler) Create(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req expenseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	now := time.Now()
	date := strings.TrimSpace(req.ExpenseDate)
	if date == "" {
		date = now.Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expense_date must be YYYY-MM-DD"})
	}
	month := strings.TrimSpace(req.Month)
	if month == "" {
		// derive from the expense date so back-dated entries land in
		// the right month
		month = date[:7]
	}
	month = service.NormalizeMonth(month, now)

	e := repository.Expense{
		AccountID:   accountID,
		MonthISO:    month,
		Category:    service.MapCategory(req.Category),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		ExpenseDate: date,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Expenses.Create(ctx, &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create expense failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, e)
	}
	return c.Redirect(http.StatusFound, "/budget?month="+month)
}

// Delete removes an expense owned by the session account.
func (h *ExpenseHandler) Delete(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "expense not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Expenses.Delete(ctx, accountID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "expense not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete expense failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
