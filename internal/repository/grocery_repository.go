package repository

import (
	"context"
	"database/sql"
	"time"
)

// GroceryItem mirrors the 'grocery_items' table. Estimated costs feed
// the monthly spend aggregation alongside expenses; the creation
// timestamp decides which day the cost counts against.
//
// Fields:
//  ID            – primary key identifier.
//  AccountID     – owning account.
//  MonthISO      – YYYY-MM key the item is listed under.
//  ItemName      – grocery item label.
//  Quantity      – how many to buy, at least 1.
//  EstimatedCost – projected cost in currency units.
//  Category      – spend category label (blank falls back to Groceries).
//  Checked       – whether the item has been ticked off.
//  CreatedAt     – timestamp of creation.
type GroceryItem struct {
	ID            uint64    `json:"id"`             // grocery_items.id
	AccountID     uint64    `json:"-"`              // grocery_items.account_id
	MonthISO      string    `json:"month_iso"`      // grocery_items.month_iso
	ItemName      string    `json:"item_name"`      // grocery_items.item_name
	Quantity      int       `json:"quantity"`       // grocery_items.quantity
	EstimatedCost float64   `json:"estimated_cost"` // grocery_items.estimated_cost
	Category      string    `json:"category"`       // grocery_items.category
	Checked       bool      `json:"checked"`        // grocery_items.checked
	CreatedAt     time.Time `json:"created_at"`     // grocery_items.created_at
}

type GroceryRepo struct{ DB *sql.DB }

func NewGroceryRepo(db *sql.DB) *GroceryRepo { return &GroceryRepo{DB: db} }

const groceryCols = "id, account_id, month_iso, item_name, quantity, estimated_cost, category, checked, created_at"

// Create inserts a grocery item and populates its ID.
func (r *GroceryRepo) Create(ctx context.Context, g *GroceryItem) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO grocery_items (account_id, month_iso, item_name, quantity, estimated_cost, category, checked)
		 VALUES (?,?,?,?,?,?,0)`,
		g.AccountID, g.MonthISO, g.ItemName, g.Quantity, g.EstimatedCost, g.Category)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	return nil
}

// ListByMonth returns the account's grocery items for the month.
func (r *GroceryRepo) ListByMonth(ctx context.Context, accountID uint64, monthISO string) ([]GroceryItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+groceryCols+` FROM grocery_items
		 WHERE account_id=? AND month_iso=? ORDER BY id DESC`,
		accountID, monthISO)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GroceryItem
	for rows.Next() {
		var g GroceryItem
		if err := rows.Scan(&g.ID, &g.AccountID, &g.MonthISO, &g.ItemName, &g.Quantity,
			&g.EstimatedCost, &g.Category, &g.Checked, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SetChecked toggles the checked flag for an owned item.
func (r *GroceryRepo) SetChecked(ctx context.Context, accountID, id uint64, checked bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE grocery_items SET checked=? WHERE id=? AND account_id=?", checked, id, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM grocery_items WHERE id=? AND account_id=?)", id, accountID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes the item if it belongs to the account.
func (r *GroceryRepo) Delete(ctx context.Context, accountID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM grocery_items WHERE id=? AND account_id=?", id, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
