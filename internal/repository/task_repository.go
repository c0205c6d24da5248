package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"
)

// Task represents a planner entry persisted in the 'tasks' table. Each
// task belongs to a single account and is pinned to one calendar date.
// StartTime and Duration are fractional hours (9.5 means 09:30); both
// are nullable and a task missing either is treated as unscheduled,
// i.e. it never participates in overlap checking.
//
// Fields:
//  ID        – primary key identifier.
//  AccountID – owning account (tenancy key).
//  Title     – short task label.
//  StartTime – fractional start hour within the day (nil = unscheduled).
//  Duration  – length in fractional hours (nil = unscheduled).
//  Color     – color tag used by the timeline view.
//  Priority  – whether the task is pinned to the priority list.
//  TaskDate  – YYYY-MM-DD date the task belongs to.
//  Completed – completion flag toggled by the checkbox.
//  CreatedAt – timestamp of creation.
type Task struct {
	ID        uint64    `json:"id"`         // tasks.id
	AccountID uint64    `json:"-"`          // tasks.account_id
	Title     string    `json:"title"`      // tasks.title
	StartTime *float64  `json:"start_time"` // tasks.start_time (nullable)
	Duration  *float64  `json:"duration"`   // tasks.duration (nullable)
	Color     string    `json:"color"`      // tasks.color
	Priority  bool      `json:"is_priority"` // tasks.is_priority
	TaskDate  string    `json:"task_date"`  // tasks.task_date
	Completed bool      `json:"completed"`  // tasks.completed
	CreatedAt time.Time `json:"created_at"` // tasks.created_at
}

type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

const taskCols = "id, account_id, title, start_time, duration, color, is_priority, task_date, completed, created_at"

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.AccountID, &t.Title, &t.StartTime, &t.Duration,
		&t.Color, &t.Priority, &t.TaskDate, &t.Completed, &t.CreatedAt)
	return t, err
}

// Create inserts a task after validating the schedule inside a single
// transaction. The account's scheduled rows for the date are locked
// with FOR UPDATE so a concurrent insert cannot slip a colliding task
// in between the check and the write. Returns ErrOverlap when the
// proposed interval collides.
func (r *TaskRepo) Create(ctx context.Context, t *Task) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = checkSchedule(ctx, tx, t.AccountID, t.TaskDate, 0, t.StartTime, t.Duration); err != nil {
		return err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (account_id, title, start_time, duration, color, is_priority, task_date, completed)
		 VALUES (?,?,?,?,?,?,?,0)`,
		t.AccountID, t.Title, t.StartTime, t.Duration, t.Color, t.Priority, t.TaskDate)
	if err != nil {
		return err
	}
	var id int64
	if id, err = res.LastInsertId(); err != nil {
		return err
	}
	t.ID = uint64(id)
	return tx.Commit()
}

// Update rewrites the task's editable fields, re-running the overlap
// check against every scheduled task on the date except the task
// itself. Ownership is enforced by the WHERE clause; a non-owned id
// surfaces as ErrNotFound.
func (r *TaskRepo) Update(ctx context.Context, t *Task) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = checkSchedule(ctx, tx, t.AccountID, t.TaskDate, t.ID, t.StartTime, t.Duration); err != nil {
		return err
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE tasks SET title=?, start_time=?, duration=?, color=?, is_priority=?, task_date=?, completed=?
		 WHERE id=? AND account_id=?`,
		t.Title, t.StartTime, t.Duration, t.Color, t.Priority, t.TaskDate, t.Completed, t.ID, t.AccountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The row may exist with identical values; distinguish a clean
		// no-op from a missing/foreign row before reporting not found.
		var exists bool
		if err = tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM tasks WHERE id=? AND account_id=?)",
			t.ID, t.AccountID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			err = ErrNotFound
			return err
		}
	}
	return tx.Commit()
}

// checkSchedule locks the account's scheduled rows on the date and
// applies the overlap rule. Runs inside the caller's transaction.
func checkSchedule(ctx context.Context, tx *sql.Tx, accountID uint64, date string, excludeID uint64, start, duration *float64) error {
	if start == nil || duration == nil {
		return nil // unscheduled tasks are exempt
	}
	rows, err := tx.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks
		 WHERE account_id=? AND task_date=? AND start_time IS NOT NULL AND duration IS NOT NULL
		 FOR UPDATE`,
		accountID, date)
	if err != nil {
		return err
	}
	defer rows.Close()

	var existing []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return err
		}
		existing = append(existing, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if HasOverlap(existing, excludeID, *start, *duration) {
		return ErrOverlap
	}
	return nil
}

// plannerLess orders tasks for the planner: date ascending, scheduled
// tasks before unscheduled ones, scheduled by start time, ties by id so
// the order is stable across reloads.
func plannerLess(a, b Task) bool {
	if a.TaskDate != b.TaskDate {
		return a.TaskDate < b.TaskDate
	}
	switch {
	case a.StartTime != nil && b.StartTime == nil:
		return true
	case a.StartTime == nil && b.StartTime != nil:
		return false
	case a.StartTime != nil && b.StartTime != nil && *a.StartTime != *b.StartTime:
		return *a.StartTime < *b.StartTime
	}
	return a.ID < b.ID
}

// ListForPlanner returns the account's tasks that are either pending or
// dated today, the working set behind the dashboard and the planner
// page, ordered by plannerLess.
func (r *TaskRepo) ListForPlanner(ctx context.Context, accountID uint64, today string) ([]Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks
		 WHERE account_id=? AND (completed=0 OR task_date=?)`,
		accountID, today)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// ListByDate returns every task of the account on the given date.
func (r *TaskRepo) ListByDate(ctx context.Context, accountID uint64, date string) ([]Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+taskCols+` FROM tasks
		 WHERE account_id=? AND task_date=?`,
		accountID, date)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()
	var out []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return plannerLess(out[i], out[j]) })
	return out, nil
}

// SetCompleted toggles the completion flag.
func (r *TaskRepo) SetCompleted(ctx context.Context, accountID, id uint64, completed bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET completed=? WHERE id=? AND account_id=?", completed, id, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM tasks WHERE id=? AND account_id=?)", id, accountID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes the task if it belongs to the account.
func (r *TaskRepo) Delete(ctx context.Context, accountID, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE id=? AND account_id=?", id, accountID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStaleCompleted garbage-collects completed tasks dated strictly
// before today. Pending tasks from past days are deliberately kept so
// they carry over. Triggered on every dashboard/task-list read.
func (r *TaskRepo) DeleteStaleCompleted(ctx context.Context, accountID uint64, today string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM tasks WHERE account_id=? AND completed=1 AND task_date<?", accountID, today)
	return err
}

// GetByID fetches one task scoped to the account.
func (r *TaskRepo) GetByID(ctx context.Context, accountID, id uint64) (Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM tasks WHERE id=? AND account_id=? LIMIT 1", id, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}
