package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ReminderNote is the legacy single free-text reminder, one row per
// account. It predates reminder items and is kept for the sticky-note
// widget on the dashboard.
type ReminderNote struct {
	Message   string    `json:"message"`    // reminders.message
	UpdatedAt time.Time `json:"updated_at"` // reminders.updated_at
}

// ReminderItem mirrors the 'reminder_items' table. RemindAt is an
// ISO-8601 timestamp string and may be null for undated notes; the
// dashboard surfaces items falling due within the next two days.
//
// Fields:
//  ID             – primary key identifier.
//  AccountID      – owning account.
//  Title          – short reminder label.
//  Message        – longer free-text body.
//  RemindAt       – ISO-8601 due timestamp (nil = undated).
//  IsRecurring    – whether the reminder repeats.
//  RecurrenceRule – opaque client-interpreted recurrence string.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type ReminderItem struct {
	ID             uint64    `json:"id"`              // reminder_items.id
	AccountID      uint64    `json:"-"`               // reminder_items.account_id
	Title          string    `json:"title"`           // reminder_items.title
	Message        string    `json:"message"`         // reminder_items.message
	RemindAt       *string   `json:"remind_at"`       // reminder_items.remind_at (nullable)
	IsRecurring    bool      `json:"is_recurring"`    // reminder_items.is_recurring
	RecurrenceRule string    `json:"recurrence_rule"` // reminder_items.recurrence_rule
	CreatedAt      time.Time `json:"created_at"`      // reminder_items.created_at
	UpdatedAt      time.Time `json:"updated_at"`      // reminder_items.updated_at
}

type ReminderRepo struct{ DB *sql.DB }

func NewReminderRepo(db *sql.DB) *ReminderRepo { return &ReminderRepo{DB: db} }

// GetNote fetches the account's singleton note. A missing row is not
// an error; an empty note is returned instead.
func (r *ReminderRepo) GetNote(ctx context.Context, accountID uint64) (ReminderNote, error) {
	var n ReminderNote
	err := r.DB.QueryRowContext(ctx,
		"SELECT message, updated_at FROM reminders WHERE account_id=? LIMIT 1",
		accountID).Scan(&n.Message, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ReminderNote{UpdatedAt: time.Now().UTC()}, nil
	}
	return n, err
}

// UpsertNote replaces the account's singleton note.
func (r *ReminderRepo) UpsertNote(ctx context.Context, accountID uint64, message string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO reminders (account_id, message) VALUES (?,?)
		 ON DUPLICATE KEY UPDATE message=VALUES(message), updated_at=NOW()`,
		accountID, message)
	return err
}

const reminderItemCols = "id, account_id, title, message, remind_at, is_recurring, recurrence_rule, created_at, updated_at"

// ListItems returns all reminder items of the account, soonest due
// first with undated items trailing.
func (r *ReminderRepo) ListItems(ctx context.Context, accountID uint64) ([]ReminderItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+reminderItemCols+` FROM reminder_items
		 WHERE account_id=? ORDER BY remind_at IS NULL ASC, remind_at ASC, id ASC`,
		accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReminderItem
	for rows.Next() {
		var it ReminderItem
		if err := rows.Scan(&it.ID, &it.AccountID, &it.Title, &it.Message, &it.RemindAt,
			&it.IsRecurring, &it.RecurrenceRule, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItem inserts a reminder item and populates its ID.
func (r *ReminderRepo) CreateItem(ctx context.Context, it *ReminderItem) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO reminder_items (account_id, title, message, remind_at, is_recurring, recurrence_rule)
		 VALUES (?,?,?,?,?,?)`,
		it.AccountID, it.Title, it.Message, it.RemindAt, it.IsRecurring, it.RecurrenceRule)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// UpdateItem rewrites the editable fields of an owned reminder item.
func (r *ReminderRepo) UpdateItem(ctx context.Context, it *ReminderItem) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE reminder_items SET title=?, message=?, remind_at=?, is_recurring=?, recurrence_rule=?, updated_at=NOW()
		 WHERE id=? AND account_id=?`,
		it.Title, it.Message, it.RemindAt, it.IsRecurring, it.RecurrenceRule, it.ID, it.AccountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM reminder_items WHERE id=? AND account_id=?)", it.ID, it.AccountID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// DeleteItem removes an owned reminder item.
func (r *ReminderRepo) DeleteItem(ctx context.Context, accountID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM reminder_items WHERE id=? AND account_id=?", id, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
