// Package service holds the read-side aggregation that folds an
// account's rows into the dashboard view-model. Everything here is
// pure computation over already-fetched rows except the Engine, which
// pulls those rows through narrow source interfaces so the folds can
// be exercised against in-memory fixtures.
package service

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/avelune/homehub/internal/repository"
)

// DefaultBudgetAmount is the placeholder income and spending limit used
// when an account has never saved a budget row for any month.
const DefaultBudgetAmount = 160000

// Categories is the fixed spend enumeration, in tie-break order. Any
// category outside this list is folded into Others.
var Categories = []string{
	"Groceries",
	"Kids/School",
	"Transport",
	"Utilities",
	"Home Mortgage",
	"Subscription",
	"Savings",
	"Others",
}

// TaskSource, BudgetSource and friends are the slices of the
// repository layer the engine reads through. The *Repo types satisfy
// them directly.
type TaskSource interface {
	DeleteStaleCompleted(ctx context.Context, accountID uint64, today string) error
	ListForPlanner(ctx context.Context, accountID uint64, today string) ([]repository.Task, error)
}

type BudgetSource interface {
	GetByMonth(ctx context.Context, accountID uint64, monthISO string) (repository.MonthlyBudget, error)
	GetLatest(ctx context.Context, accountID uint64) (repository.MonthlyBudget, error)
}

type ExpenseSource interface {
	ListByMonth(ctx context.Context, accountID uint64, monthISO string) ([]repository.Expense, error)
}

type GrocerySource interface {
	ListByMonth(ctx context.Context, accountID uint64, monthISO string) ([]repository.GroceryItem, error)
}

type ReminderSource interface {
	ListItems(ctx context.Context, accountID uint64) ([]repository.ReminderItem, error)
}

type MoodSource interface {
	GetMood(ctx context.Context, accountID uint64, date string) (repository.DailyMood, error)
	GetWellness(ctx context.Context, accountID uint64, date string) (repository.DailyWellness, error)
	ListMoodRange(ctx context.Context, accountID uint64, from, to string) ([]repository.DailyMood, error)
}

// UpcomingReminder is a reminder item falling due within the dashboard
// window, with a pre-rendered display time.
type UpcomingReminder struct {
	ID      uint64    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
	Display string    `json:"display"`
}

// MoodSummary carries today's mood and wellness metrics plus the
// weekly tally and the selected tip.
type MoodSummary struct {
	Mood          string `json:"mood"`
	Sleep         string `json:"sleep"`
	Water         string `json:"water"`
	Activity      string `json:"activity"`
	Stress        int    `json:"stress"`
	WeekScores    []int  `json:"week_scores"`
	FrequentScore int    `json:"frequent_score"`
	Tip           string `json:"tip"`
}

// Dashboard is the aggregated view-model for one account and month.
type Dashboard struct {
	MonthISO        string             `json:"month_iso"`
	Tasks           []repository.Task  `json:"tasks"`
	PendingCount    int                `json:"pending_count"`
	ProgressPct     int                `json:"progress_pct"`
	Income          float64            `json:"income"`
	BudgetLimit     float64            `json:"budget_limit"`
	SpentToday      float64            `json:"spent_today"`
	SpentMonth      float64            `json:"spent_month"`
	RemainingBudget float64            `json:"remaining_budget"`
	TopCategory     string             `json:"top_category"`
	TopAmount       float64            `json:"top_amount"`
	BudgetColor     string             `json:"budget_color"`
	BudgetIcon      string             `json:"budget_icon"`
	Upcoming        []UpcomingReminder `json:"upcoming_reminders"`
	Mood            MoodSummary        `json:"mood"`
}

// Engine computes dashboard view-models. Intn may be overridden in
// tests for deterministic tip selection; it defaults to rand.Intn.
type Engine struct {
	Tasks     TaskSource
	Budgets   BudgetSource
	Expenses  ExpenseSource
	Groceries GrocerySource
	Reminders ReminderSource
	Moods     MoodSource
	Intn      func(n int) int
}

func NewEngine(t TaskSource, b BudgetSource, e ExpenseSource, g GrocerySource, r ReminderSource, m MoodSource) *Engine {
	return &Engine{Tasks: t, Budgets: b, Expenses: e, Groceries: g, Reminders: r, Moods: m, Intn: rand.Intn}
}

// Build assembles the dashboard for the account and month key. An
// invalid month key silently falls back to now's month. The only write
// is the stale-task cleanup, which is part of every dashboard read.
func (en *Engine) Build(ctx context.Context, accountID uint64, monthKey string, now time.Time) (Dashboard, error) {
	monthISO := NormalizeMonth(monthKey, now)
	today := now.Format("2006-01-02")

	if err := en.Tasks.DeleteStaleCompleted(ctx, accountID, today); err != nil {
		return Dashboard{}, err
	}
	planner, err := en.Tasks.ListForPlanner(ctx, accountID, today)
	if err != nil {
		return Dashboard{}, err
	}
	pending, pct := Progress(planner, today)

	budget, err := en.lookupBudget(ctx, accountID, monthISO)
	if err != nil {
		return Dashboard{}, err
	}

	expenses, err := en.Expenses.ListByMonth(ctx, accountID, monthISO)
	if err != nil {
		return Dashboard{}, err
	}
	groceries, err := en.Groceries.ListByMonth(ctx, accountID, monthISO)
	if err != nil {
		return Dashboard{}, err
	}
	// Today's spend is date-keyed, not month-keyed: when the caller is
	// browsing an older month, today's rows live under the current
	// month key and must be fetched separately.
	todayExpenses, todayGroceries := expenses, groceries
	if nowMonth := now.Format("2006-01"); nowMonth != monthISO {
		if todayExpenses, err = en.Expenses.ListByMonth(ctx, accountID, nowMonth); err != nil {
			return Dashboard{}, err
		}
		if todayGroceries, err = en.Groceries.ListByMonth(ctx, accountID, nowMonth); err != nil {
			return Dashboard{}, err
		}
	}
	spentToday := SpentOn(todayExpenses, todayGroceries, today)
	spentMonth := SpentTotal(expenses, groceries)
	topName, topAmount := TopCategory(expenses, groceries)
	color, icon := BudgetStatus(spentMonth, budget.Limit)

	items, err := en.Reminders.ListItems(ctx, accountID)
	if err != nil {
		return Dashboard{}, err
	}

	mood, err := en.moodSummary(ctx, accountID, now)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		MonthISO:        monthISO,
		Tasks:           pendingTasks(planner),
		PendingCount:    pending,
		ProgressPct:     pct,
		Income:          budget.Income,
		BudgetLimit:     budget.Limit,
		SpentToday:      spentToday,
		SpentMonth:      spentMonth,
		RemainingBudget: budget.Income - spentMonth,
		TopCategory:     topName,
		TopAmount:       topAmount,
		BudgetColor:     color,
		BudgetIcon:      icon,
		Upcoming:        UpcomingReminders(items, now),
		Mood:            mood,
	}, nil
}

// lookupBudget resolves the budget baseline: exact month, else the
// account's most recent month, else the fixed default. Fields are
// never mixed between two rows.
func (en *Engine) lookupBudget(ctx context.Context, accountID uint64, monthISO string) (repository.MonthlyBudget, error) {
	b, err := en.Budgets.GetByMonth(ctx, accountID, monthISO)
	if err == nil {
		return b, nil
	}
	if err != repository.ErrNotFound {
		return b, err
	}
	b, err = en.Budgets.GetLatest(ctx, accountID)
	if err == nil {
		return b, nil
	}
	if err != repository.ErrNotFound {
		return b, err
	}
	return repository.MonthlyBudget{
		AccountID: accountID,
		MonthISO:  monthISO,
		Income:    DefaultBudgetAmount,
		Limit:     DefaultBudgetAmount,
	}, nil
}

func (en *Engine) moodSummary(ctx context.Context, accountID uint64, now time.Time) (MoodSummary, error) {
	today := now.Format("2006-01-02")
	s := MoodSummary{
		Mood:     "Neutral",
		Sleep:    "7.5",
		Water:    "0",
		Activity: "Light Stretching",
		Stress:   5,
	}
	if m, err := en.Moods.GetMood(ctx, accountID, today); err == nil {
		s.Mood = m.Mood
	} else if err != repository.ErrNotFound {
		return s, err
	}
	if w, err := en.Moods.GetWellness(ctx, accountID, today); err == nil {
		s.Sleep, s.Water, s.Activity, s.Stress = w.Sleep, w.Water, w.Activity, w.Stress
	} else if err != repository.ErrNotFound {
		return s, err
	}

	monday := WeekStart(now)
	from := monday.Format("2006-01-02")
	to := monday.AddDate(0, 0, 6).Format("2006-01-02")
	moods, err := en.Moods.ListMoodRange(ctx, accountID, from, to)
	if err != nil {
		return s, err
	}
	s.WeekScores = WeekScores(moods, monday)
	s.FrequentScore = FrequentScore(s.WeekScores)
	s.Tip = TipFor(s.FrequentScore, en.Intn)
	return s, nil
}

// NormalizeMonth validates a YYYY-MM key, falling back to now's month
// when the key is absent or malformed.
func NormalizeMonth(key string, now time.Time) string {
	if t, err := time.Parse("2006-01", key); err == nil {
		return t.Format("2006-01")
	}
	return now.Format("2006-01")
}

// Progress counts pending tasks in the planner working set and derives
// the completion percentage over today's tasks only. With no tasks
// today the percentage is 0, never a division error.
func Progress(tasks []repository.Task, today string) (pending, pct int) {
	var totalToday, doneToday int
	for _, t := range tasks {
		if !t.Completed {
			pending++
		}
		if t.TaskDate == today {
			totalToday++
			if t.Completed {
				doneToday++
			}
		}
	}
	if totalToday == 0 {
		return pending, 0
	}
	return pending, int(math.Round(100 * float64(doneToday) / float64(totalToday)))
}

func pendingTasks(tasks []repository.Task) []repository.Task {
	out := make([]repository.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Completed {
			out = append(out, t)
		}
	}
	return out
}

// SpentOn sums expense amounts dated on the given day plus grocery
// estimated costs created that day.
func SpentOn(expenses []repository.Expense, groceries []repository.GroceryItem, date string) float64 {
	var sum float64
	for _, e := range expenses {
		if e.ExpenseDate == date {
			sum += e.Amount
		}
	}
	for _, g := range groceries {
		if g.CreatedAt.Format("2006-01-02") == date {
			sum += g.EstimatedCost
		}
	}
	return sum
}

// SpentTotal sums all expense amounts and grocery estimated costs in
// the given (already month-filtered) row sets.
func SpentTotal(expenses []repository.Expense, groceries []repository.GroceryItem) float64 {
	var sum float64
	for _, e := range expenses {
		sum += e.Amount
	}
	for _, g := range groceries {
		sum += g.EstimatedCost
	}
	return sum
}

// MapCategory folds an arbitrary label onto the fixed enumeration;
// anything unknown becomes Others.
func MapCategory(raw string) string {
	for _, c := range Categories {
		if raw == c {
			return c
		}
	}
	return "Others"
}

// TopCategory accumulates per-category spend across expenses and
// groceries (blank grocery categories count as Groceries) and returns
// the strictly highest bucket, ties broken by enumeration order.
// When every bucket is zero the result is "None" with amount 0.
func TopCategory(expenses []repository.Expense, groceries []repository.GroceryItem) (string, float64) {
	totals := make(map[string]float64, len(Categories))
	for _, e := range expenses {
		totals[MapCategory(e.Category)] += e.Amount
	}
	for _, g := range groceries {
		cat := g.Category
		if cat == "" {
			cat = "Groceries"
		}
		totals[MapCategory(cat)] += g.EstimatedCost
	}
	best, bestAmount := "None", 0.0
	for _, c := range Categories {
		if totals[c] > bestAmount {
			best, bestAmount = c, totals[c]
		}
	}
	return best, bestAmount
}

// BudgetStatus classifies monthly spend against the limit as a
// traffic-light color plus icon. A zero limit with any spend is an
// immediate red; over 100% is red, 70% and up is orange, anything
// below is green.
func BudgetStatus(spentMonth, limit float64) (color, icon string) {
	if limit > 0 {
		pct := spentMonth / limit * 100
		switch {
		case pct > 100:
			return "red", "alert"
		case pct >= 70:
			return "orange", "warning"
		default:
			return "green", "check"
		}
	}
	if spentMonth > 0 {
		return "red", "alert"
	}
	return "green", "check"
}

// reminderLayouts are the timestamp shapes accepted for remind_at.
// Rows written by this service use RFC 3339; the other layouts cover
// rows imported from older exports.
var reminderLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseRemindAt parses a remind_at string against the accepted
// layouts. Zone-less layouts are interpreted in loc so imported rows
// line up with the caller's clock; RFC 3339 strings keep their own
// offset.
func ParseRemindAt(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range reminderLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UpcomingReminders selects items due in [now, now+48h] inclusive,
// soonest first. Undated and malformed timestamps are skipped.
func UpcomingReminders(items []repository.ReminderItem, now time.Time) []UpcomingReminder {
	horizon := now.Add(48 * time.Hour)
	var out []UpcomingReminder
	for _, it := range items {
		if it.RemindAt == nil {
			continue
		}
		at, ok := ParseRemindAt(*it.RemindAt, now.Location())
		if !ok {
			continue
		}
		if at.Before(now) || at.After(horizon) {
			continue
		}
		out = append(out, UpcomingReminder{
			ID:      it.ID,
			Title:   it.Title,
			Message: it.Message,
			At:      at,
			Display: at.Format("Mon 15:04"),
		})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].At.Before(out[j-1].At); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// WeekStart returns midnight of the Monday of now's week.
func WeekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7 // Monday = 0
	day := now.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}

// WeekScores lays the week's recorded mood scores over a Monday-start
// seven day window, defaulting missing days to 2.
func WeekScores(moods []repository.DailyMood, monday time.Time) []int {
	byDate := make(map[string]int, len(moods))
	for _, m := range moods {
		byDate[m.Date] = m.Score
	}
	scores := make([]int, 7)
	for i := 0; i < 7; i++ {
		date := monday.AddDate(0, 0, i).Format("2006-01-02")
		if s, ok := byDate[date]; ok && s >= 0 && s <= 3 {
			scores[i] = s
		} else {
			scores[i] = 2
		}
	}
	return scores
}

// FrequentScore tallies score frequency across the week and returns
// the single most frequent score, or 2 when the week is empty or the
// top frequency is tied.
func FrequentScore(scores []int) int {
	if len(scores) == 0 {
		return 2
	}
	counts := make(map[int]int, 4)
	for _, s := range scores {
		counts[s]++
	}
	best, bestCount, ties := 2, 0, 0
	for s := 0; s <= 3; s++ {
		switch {
		case counts[s] > bestCount:
			best, bestCount, ties = s, counts[s], 1
		case counts[s] == bestCount && counts[s] > 0:
			ties++
		}
	}
	if ties != 1 {
		return 2
	}
	return best
}
