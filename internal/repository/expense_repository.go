package repository

import (
	"context"
	"database/sql"
	"time"
)

// Expense mirrors the 'expenses' table. Expenses are created and
// deleted but never edited in place. Category is stored as provided by
// the client; mapping onto the fixed enumeration happens on the read
// side when aggregating.
//
// Fields:
//  ID          – primary key identifier.
//  AccountID   – owning account.
//  MonthISO    – YYYY-MM key the expense is booked under.
//  Category    – spend category label.
//  Description – free-text note.
//  Amount      – non-negative amount in currency units.
//  ExpenseDate – YYYY-MM-DD date of the expense.
//  CreatedAt   – timestamp of creation.
type Expense struct {
	ID          uint64    `json:"id"`           // expenses.id
	AccountID   uint64    `json:"-"`            // expenses.account_id
	MonthISO    string    `json:"month_iso"`    // expenses.month_iso
	Category    string    `json:"category"`     // expenses.category
	Description string    `json:"description"`  // expenses.description
	Amount      float64   `json:"amount"`       // expenses.amount
	ExpenseDate string    `json:"expense_date"` // expenses.expense_date
	CreatedAt   time.Time `json:"created_at"`   // expenses.created_at
}

type ExpenseRepo struct{ DB *sql.DB }

func NewExpenseRepo(db *sql.DB) *ExpenseRepo { return &ExpenseRepo{DB: db} }

const expenseCols = "id, account_id, month_iso, category, description, amount, expense_date, created_at"

// Create inserts an expense and populates its ID.
func (r *ExpenseRepo) Create(ctx context.Context, e *Expense) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO expenses (account_id, month_iso, category, description, amount, expense_date)
		 VALUES (?,?,?,?,?,?)`,
		e.AccountID, e.MonthISO, e.Category, e.Description, e.Amount, e.ExpenseDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByMonth returns the account's expenses for the month, newest first.
func (r *ExpenseRepo) ListByMonth(ctx context.Context, accountID uint64, monthISO string) ([]Expense, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+expenseCols+` FROM expenses
		 WHERE account_id=? AND month_iso=? ORDER BY expense_date DESC, id DESC`,
		accountID, monthISO)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.AccountID, &e.MonthISO, &e.Category, &e.Description,
			&e.Amount, &e.ExpenseDate, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the expense if it belongs to the account.
func (r *ExpenseRepo) Delete(ctx context.Context, accountID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM expenses WHERE id=? AND account_id=?", id, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
