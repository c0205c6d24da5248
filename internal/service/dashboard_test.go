package service

import (
	"context"
	"testing"
	"time"

	"github.com/avelune/homehub/internal/repository"
)

// fakeSources implements every engine source over in-memory slices.
type fakeSources struct {
	tasks     []repository.Task
	budgets   map[string]repository.MonthlyBudget
	expenses  map[string][]repository.Expense
	groceries map[string][]repository.GroceryItem
	reminders []repository.ReminderItem
	moods     []repository.DailyMood
	wellness  map[string]repository.DailyWellness
	cleaned   []string
}

func (f *fakeSources) DeleteStaleCompleted(_ context.Context, _ uint64, today string) error {
	f.cleaned = append(f.cleaned, today)
	return nil
}

func (f *fakeSources) ListForPlanner(_ context.Context, _ uint64, today string) ([]repository.Task, error) {
	var out []repository.Task
	for _, t := range f.tasks {
		if !t.Completed || t.TaskDate == today {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeSources) GetByMonth(_ context.Context, _ uint64, monthISO string) (repository.MonthlyBudget, error) {
	if b, ok := f.budgets[monthISO]; ok {
		return b, nil
	}
	return repository.MonthlyBudget{}, repository.ErrNotFound
}

func (f *fakeSources) GetLatest(_ context.Context, _ uint64) (repository.MonthlyBudget, error) {
	var best repository.MonthlyBudget
	found := false
	for _, b := range f.budgets {
		if !found || b.MonthISO > best.MonthISO {
			best, found = b, true
		}
	}
	if !found {
		return best, repository.ErrNotFound
	}
	return best, nil
}

func (f *fakeSources) ListByMonth(_ context.Context, _ uint64, monthISO string) ([]repository.Expense, error) {
	return f.expenses[monthISO], nil
}

// grocerySource adapts fakeSources to the GrocerySource interface,
// which would otherwise clash with ExpenseSource's method name.
type grocerySource struct{ f *fakeSources }

func (g grocerySource) ListByMonth(_ context.Context, _ uint64, monthISO string) ([]repository.GroceryItem, error) {
	return g.f.groceries[monthISO], nil
}

func (f *fakeSources) ListItems(_ context.Context, _ uint64) ([]repository.ReminderItem, error) {
	return f.reminders, nil
}

func (f *fakeSources) GetMood(_ context.Context, _ uint64, date string) (repository.DailyMood, error) {
	for _, m := range f.moods {
		if m.Date == date {
			return m, nil
		}
	}
	return repository.DailyMood{}, repository.ErrNotFound
}

func (f *fakeSources) GetWellness(_ context.Context, _ uint64, date string) (repository.DailyWellness, error) {
	if w, ok := f.wellness[date]; ok {
		return w, nil
	}
	return repository.DailyWellness{}, repository.ErrNotFound
}

func (f *fakeSources) ListMoodRange(_ context.Context, _ uint64, from, to string) ([]repository.DailyMood, error) {
	var out []repository.DailyMood
	for _, m := range f.moods {
		if m.Date >= from && m.Date <= to {
			out = append(out, m)
		}
	}
	return out, nil
}

func newTestEngine(f *fakeSources) *Engine {
	en := NewEngine(f, f, f, grocerySource{f}, f, f)
	en.Intn = func(n int) int { return 0 }
	return en
}

func TestNormalizeMonth(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "valid key kept", key: "2025-03", want: "2025-03"},
		{name: "empty falls back", key: "", want: "2025-06"},
		{name: "garbage falls back", key: "junk", want: "2025-06"},
		{name: "month out of range falls back", key: "2025-13", want: "2025-06"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMonth(tt.key, now); got != tt.want {
				t.Errorf("NormalizeMonth(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	today := "2025-06-15"
	tests := []struct {
		name        string
		tasks       []repository.Task
		wantPending int
		wantPct     int
	}{
		{name: "no tasks", wantPending: 0, wantPct: 0},
		{
			name: "no tasks today",
			tasks: []repository.Task{
				{TaskDate: "2025-06-16"},
				{TaskDate: "2025-06-17"},
			},
			wantPending: 2,
			wantPct:     0,
		},
		{
			name: "half done today",
			tasks: []repository.Task{
				{TaskDate: today, Completed: true},
				{TaskDate: today},
				{TaskDate: today, Completed: true},
				{TaskDate: today},
			},
			wantPending: 2,
			wantPct:     50,
		},
		{
			name: "mixed dates count today only",
			tasks: []repository.Task{
				{TaskDate: today, Completed: true},
				{TaskDate: today},
				{TaskDate: "2025-06-16"},
				{TaskDate: "2025-06-16"},
			},
			wantPending: 3,
			wantPct:     50,
		},
		{
			name: "rounding",
			tasks: []repository.Task{
				{TaskDate: today, Completed: true},
				{TaskDate: today},
				{TaskDate: today},
			},
			wantPending: 2,
			wantPct:     33,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending, pct := Progress(tt.tasks, today)
			if pending != tt.wantPending || pct != tt.wantPct {
				t.Errorf("Progress() = (%d, %d), want (%d, %d)", pending, pct, tt.wantPending, tt.wantPct)
			}
			if pct < 0 || pct > 100 {
				t.Errorf("progress percentage %d out of [0,100]", pct)
			}
		})
	}
}

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		name      string
		spent     float64
		limit     float64
		wantColor string
	}{
		{name: "well under", spent: 300, limit: 1000, wantColor: "green"},
		{name: "at 70 percent", spent: 700, limit: 1000, wantColor: "orange"},
		{name: "exactly at limit", spent: 1000, limit: 1000, wantColor: "orange"},
		{name: "over limit", spent: 1001, limit: 1000, wantColor: "red"},
		{name: "zero limit no spend", spent: 0, limit: 0, wantColor: "green"},
		{name: "zero limit with spend", spent: 1, limit: 0, wantColor: "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color, icon := BudgetStatus(tt.spent, tt.limit)
			if color != tt.wantColor {
				t.Errorf("BudgetStatus(%v, %v) color = %q, want %q", tt.spent, tt.limit, color, tt.wantColor)
			}
			if icon == "" {
				t.Error("icon must not be empty")
			}
		})
	}
}

func TestTopCategoryMapsUnknownToOthers(t *testing.T) {
	expenses := []repository.Expense{
		{Category: "Food", Amount: 200},
		{Category: "Travel", Amount: 100},
	}
	name, amount := TopCategory(expenses, nil)
	if name != "Others" || amount != 300 {
		t.Errorf("TopCategory = (%q, %v), want (Others, 300)", name, amount)
	}
}

func TestTopCategory(t *testing.T) {
	tests := []struct {
		name       string
		expenses   []repository.Expense
		groceries  []repository.GroceryItem
		wantName   string
		wantAmount float64
	}{
		{name: "empty is None", wantName: "None", wantAmount: 0},
		{
			name:       "zero amounts are None",
			expenses:   []repository.Expense{{Category: "Transport", Amount: 0}},
			wantName:   "None",
			wantAmount: 0,
		},
		{
			name: "known category wins",
			expenses: []repository.Expense{
				{Category: "Transport", Amount: 120},
				{Category: "Utilities", Amount: 80},
			},
			wantName:   "Transport",
			wantAmount: 120,
		},
		{
			name:       "blank grocery category counts as Groceries",
			groceries:  []repository.GroceryItem{{Category: "", EstimatedCost: 50}},
			wantName:   "Groceries",
			wantAmount: 50,
		},
		{
			name: "tie broken by enumeration order",
			expenses: []repository.Expense{
				{Category: "Savings", Amount: 100},
				{Category: "Transport", Amount: 100},
			},
			wantName:   "Transport",
			wantAmount: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, amount := TopCategory(tt.expenses, tt.groceries)
			if name != tt.wantName || amount != tt.wantAmount {
				t.Errorf("TopCategory = (%q, %v), want (%q, %v)", name, amount, tt.wantName, tt.wantAmount)
			}
		})
	}
}

func TestUpcomingReminders(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rs := func(s string) *string { return &s }
	items := []repository.ReminderItem{
		{ID: 1, Title: "past", RemindAt: rs("2025-06-14T09:00:00Z")},
		{ID: 2, Title: "soon", RemindAt: rs("2025-06-15T18:00:00Z")},
		{ID: 3, Title: "tomorrow", RemindAt: rs("2025-06-16 09:00")},
		{ID: 4, Title: "beyond window", RemindAt: rs("2025-06-18T09:00:00Z")},
		{ID: 5, Title: "undated"},
		{ID: 6, Title: "malformed", RemindAt: rs("next tuesday")},
		{ID: 7, Title: "edge of window", RemindAt: rs("2025-06-17T12:00:00Z")},
	}
	got := UpcomingReminders(items, now)
	wantIDs := []uint64{2, 3, 7}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d reminders, want %d (%+v)", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d: got id %d, want %d", i, got[i].ID, id)
		}
		if got[i].Display == "" {
			t.Errorf("reminder %d has empty display time", id)
		}
	}
}

func TestUpcomingRemindersLocalZone(t *testing.T) {
	// Zone-less rows must be read in now's zone, not UTC: on a UTC+10
	// clock at 12:00, "13:00" today is one hour away, while reading it
	// as UTC would push it to 23:00 local.
	loc := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, loc)
	rs := func(s string) *string { return &s }

	items := []repository.ReminderItem{
		{ID: 1, Title: "in one hour", RemindAt: rs("2025-06-15 13:00")},
		{ID: 2, Title: "just missed", RemindAt: rs("2025-06-15 11:00")},
	}
	got := UpcomingReminders(items, now)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %+v, want only reminder 1", got)
	}
	if diff := got[0].At.Sub(now); diff != time.Hour {
		t.Errorf("reminder is %v away, want 1h", diff)
	}
}

func TestParseRemindAtKeepsExplicitOffset(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	at, ok := ParseRemindAt("2025-06-15T03:00:00Z", loc)
	if !ok {
		t.Fatal("RFC 3339 string did not parse")
	}
	if !at.Equal(time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("explicit offset was overridden: got %v", at)
	}
}

func TestWeekMoodSummary(t *testing.T) {
	monday := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	t.Run("all default week", func(t *testing.T) {
		scores := WeekScores(nil, monday)
		for i, s := range scores {
			if s != 2 {
				t.Errorf("day %d score = %d, want default 2", i, s)
			}
		}
		freq := FrequentScore(scores)
		if freq != 2 {
			t.Errorf("FrequentScore = %d, want 2", freq)
		}
		tip := TipFor(freq, func(n int) int { return n - 1 })
		if tip == "" {
			t.Fatal("tip must be non-empty")
		}
		found := false
		for _, cand := range TipsFor(2) {
			if cand == tip {
				found = true
			}
		}
		if !found {
			t.Errorf("tip %q not in bucket 2", tip)
		}
	})

	t.Run("recorded days override defaults", func(t *testing.T) {
		moods := []repository.DailyMood{
			{Date: "2025-06-09", Score: 0},
			{Date: "2025-06-10", Score: 0},
			{Date: "2025-06-11", Score: 0},
			{Date: "2025-06-12", Score: 0},
		}
		scores := WeekScores(moods, monday)
		if got := FrequentScore(scores); got != 0 {
			t.Errorf("FrequentScore = %d, want 0", got)
		}
	})

	t.Run("tie falls back to 2", func(t *testing.T) {
		if got := FrequentScore([]int{0, 0, 0, 3, 3, 3, 1}); got != 2 {
			t.Errorf("FrequentScore tie = %d, want 2", got)
		}
	})

	t.Run("empty week", func(t *testing.T) {
		if got := FrequentScore(nil); got != 2 {
			t.Errorf("FrequentScore(nil) = %d, want 2", got)
		}
	})
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want string
	}{
		{name: "wednesday", day: time.Date(2025, 6, 11, 15, 30, 0, 0, time.UTC), want: "2025-06-09"},
		{name: "monday maps to itself", day: time.Date(2025, 6, 9, 1, 0, 0, 0, time.UTC), want: "2025-06-09"},
		{name: "sunday belongs to prior monday", day: time.Date(2025, 6, 15, 23, 0, 0, 0, time.UTC), want: "2025-06-09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.day).Format("2006-01-02"); got != tt.want {
				t.Errorf("WeekStart(%s) = %s, want %s", tt.day, got, tt.want)
			}
		})
	}
}

func TestEngineBuildBudgetScenario(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	month := "2025-06"
	f := &fakeSources{
		budgets: map[string]repository.MonthlyBudget{
			month: {MonthISO: month, Income: 2000, Limit: 1000},
		},
		expenses: map[string][]repository.Expense{
			month: {
				{Category: "Food", Amount: 200, MonthISO: month, ExpenseDate: "2025-06-10"},
				{Category: "Travel", Amount: 100, MonthISO: month, ExpenseDate: "2025-06-12"},
			},
		},
	}
	en := newTestEngine(f)

	d, err := en.Build(context.Background(), 1, month, now)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if d.SpentMonth != 300 {
		t.Errorf("SpentMonth = %v, want 300", d.SpentMonth)
	}
	if d.RemainingBudget != 1700 {
		t.Errorf("RemainingBudget = %v, want 1700", d.RemainingBudget)
	}
	if d.BudgetColor != "green" {
		t.Errorf("BudgetColor = %q, want green (30%% of limit)", d.BudgetColor)
	}
	if d.TopCategory != "Others" || d.TopAmount != 300 {
		t.Errorf("TopCategory = (%q, %v), want (Others, 300)", d.TopCategory, d.TopAmount)
	}
	if len(f.cleaned) != 1 || f.cleaned[0] != "2025-06-15" {
		t.Errorf("stale cleanup ran with %v, want one run for today", f.cleaned)
	}
}

func TestEngineBudgetFallback(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("latest prior month", func(t *testing.T) {
		f := &fakeSources{
			budgets: map[string]repository.MonthlyBudget{
				"2025-03": {MonthISO: "2025-03", Income: 1500, Limit: 900},
				"2025-01": {MonthISO: "2025-01", Income: 1200, Limit: 700},
			},
		}
		d, err := newTestEngine(f).Build(context.Background(), 1, "2025-06", now)
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		if d.Income != 1500 || d.BudgetLimit != 900 {
			t.Errorf("fallback picked (%v, %v), want latest month (1500, 900)", d.Income, d.BudgetLimit)
		}
	})

	t.Run("fixed default when no budget exists", func(t *testing.T) {
		f := &fakeSources{}
		d, err := newTestEngine(f).Build(context.Background(), 1, "2025-06", now)
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		if d.Income != DefaultBudgetAmount || d.BudgetLimit != DefaultBudgetAmount {
			t.Errorf("default budget = (%v, %v), want (%v, %v)",
				d.Income, d.BudgetLimit, DefaultBudgetAmount, DefaultBudgetAmount)
		}
	})

	t.Run("negative remaining is not clamped", func(t *testing.T) {
		f := &fakeSources{
			budgets: map[string]repository.MonthlyBudget{
				"2025-06": {MonthISO: "2025-06", Income: 100, Limit: 100},
			},
			expenses: map[string][]repository.Expense{
				"2025-06": {{Category: "Utilities", Amount: 250, ExpenseDate: "2025-06-01"}},
			},
		}
		d, err := newTestEngine(f).Build(context.Background(), 1, "2025-06", now)
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		if d.RemainingBudget != -150 {
			t.Errorf("RemainingBudget = %v, want -150", d.RemainingBudget)
		}
		if d.BudgetColor != "red" {
			t.Errorf("BudgetColor = %q, want red", d.BudgetColor)
		}
	})
}

func TestEngineSpentToday(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	month := "2025-06"
	f := &fakeSources{
		expenses: map[string][]repository.Expense{
			month: {
				{Category: "Transport", Amount: 40, ExpenseDate: "2025-06-15"},
				{Category: "Transport", Amount: 60, ExpenseDate: "2025-06-14"},
			},
		},
		groceries: map[string][]repository.GroceryItem{
			month: {
				{EstimatedCost: 25, CreatedAt: time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)},
				{EstimatedCost: 99, CreatedAt: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)},
			},
		},
	}
	d, err := newTestEngine(f).Build(context.Background(), 1, month, now)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if d.SpentToday != 65 {
		t.Errorf("SpentToday = %v, want 65 (40 expense + 25 grocery)", d.SpentToday)
	}
	if d.SpentMonth != 224 {
		t.Errorf("SpentMonth = %v, want 224", d.SpentMonth)
	}
}
