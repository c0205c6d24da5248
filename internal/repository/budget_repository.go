package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// MonthlyBudget mirrors the 'monthly_budgets' table. There is at most
// one row per (account, month) pair; MonthISO is a YYYY-MM key.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owning account.
//  MonthISO  – YYYY-MM month key.
//  Income    – declared income for the month.
//  Limit     – spending limit for the month.
//  UpdatedAt – timestamp of last upsert.
type MonthlyBudget struct {
	ID        uint64    `json:"id"`           // monthly_budgets.id
	AccountID uint64    `json:"-"`            // monthly_budgets.account_id
	MonthISO  string    `json:"month_iso"`    // monthly_budgets.month_iso
	Income    float64   `json:"income"`       // monthly_budgets.income
	Limit     float64   `json:"budget_limit"` // monthly_budgets.budget_limit
	UpdatedAt time.Time `json:"updated_at"`   // monthly_budgets.updated_at
}

type BudgetRepo struct{ DB *sql.DB }

func NewBudgetRepo(db *sql.DB) *BudgetRepo { return &BudgetRepo{DB: db} }

// Upsert inserts or replaces the budget row for (account, month). The
// unique key on (account_id, month_iso) makes the operation atomic.
func (r *BudgetRepo) Upsert(ctx context.Context, b *MonthlyBudget) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO monthly_budgets (account_id, month_iso, income, budget_limit)
		 VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE income=VALUES(income), budget_limit=VALUES(budget_limit), updated_at=NOW()`,
		b.AccountID, b.MonthISO, b.Income, b.Limit)
	return err
}

// GetByMonth returns the budget row for the exact month key.
func (r *BudgetRepo) GetByMonth(ctx context.Context, accountID uint64, monthISO string) (MonthlyBudget, error) {
	return r.get(ctx,
		`SELECT id, account_id, month_iso, income, budget_limit, updated_at
		 FROM monthly_budgets WHERE account_id=? AND month_iso=? LIMIT 1`,
		accountID, monthISO)
}

// GetLatest returns the account's most recent budget row by month key.
// YYYY-MM keys order chronologically under plain string comparison.
func (r *BudgetRepo) GetLatest(ctx context.Context, accountID uint64) (MonthlyBudget, error) {
	return r.get(ctx,
		`SELECT id, account_id, month_iso, income, budget_limit, updated_at
		 FROM monthly_budgets WHERE account_id=? ORDER BY month_iso DESC LIMIT 1`,
		accountID)
}

func (r *BudgetRepo) get(ctx context.Context, q string, args ...any) (MonthlyBudget, error) {
	var b MonthlyBudget
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(
		&b.ID, &b.AccountID, &b.MonthISO, &b.Income, &b.Limit, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

// Delete removes the budget row for the month.
func (r *BudgetRepo) Delete(ctx context.Context, accountID uint64, monthISO string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM monthly_budgets WHERE account_id=? AND month_iso=?", accountID, monthISO)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
