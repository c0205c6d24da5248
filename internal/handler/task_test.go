package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/repository"
)

// fakeTaskStore records which repository calls the handler makes.
type fakeTaskStore struct {
	staleCalls int
	staleDate  string
	listCalls  int
	tasks      []repository.Task
}

func (f *fakeTaskStore) Create(ctx context.Context, t *repository.Task) error { return nil }
func (f *fakeTaskStore) Update(ctx context.Context, t *repository.Task) error { return nil }

func (f *fakeTaskStore) ListForPlanner(ctx context.Context, accountID uint64, today string) ([]repository.Task, error) {
	f.listCalls++
	return f.tasks, nil
}

func (f *fakeTaskStore) SetCompleted(ctx context.Context, accountID, id uint64, completed bool) error {
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, accountID, id uint64) error { return nil }

func (f *fakeTaskStore) DeleteStaleCompleted(ctx context.Context, accountID uint64, today string) error {
	f.staleCalls++
	f.staleDate = today
	return nil
}

func TestListPurgesStaleCompleted(t *testing.T) {
	store := &fakeTaskStore{tasks: []repository.Task{{ID: 1, AccountID: 7, Title: "Laundry"}}}
	h := NewTaskHandler(store)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", uint64(7))

	if err := h.List(c); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if store.staleCalls != 1 {
		t.Errorf("DeleteStaleCompleted calls = %d, want 1", store.staleCalls)
	}
	if store.listCalls != 1 {
		t.Errorf("ListForPlanner calls = %d, want 1", store.listCalls)
	}
	want := time.Now().Format("2006-01-02")
	if store.staleDate != want {
		t.Errorf("stale cutoff = %q, want %q", store.staleDate, want)
	}
}

func TestParseTask(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		req       taskReq
		wantErr   bool
		wantDate  string
		scheduled bool
	}{
		{
			name:     "minimal task defaults to today",
			req:      taskReq{Title: "Laundry"},
			wantDate: "2026-09-01",
		},
		{
			name:    "missing title rejected",
			req:     taskReq{Title: "   "},
			wantErr: true,
		},
		{
			name:     "explicit date kept",
			req:      taskReq{Title: "Dentist", TaskDate: "2026-09-03"},
			wantDate: "2026-09-03",
		},
		{
			name:    "malformed date rejected",
			req:     taskReq{Title: "Dentist", TaskDate: "03/09/2026"},
			wantErr: true,
		},
		{
			name:      "start and duration accepted",
			req:       taskReq{Title: "Gym", StartTime: "9.5", Duration: "1.5"},
			wantDate:  "2026-09-01",
			scheduled: true,
		},
		{
			name:     "start without duration leaves task unscheduled",
			req:      taskReq{Title: "Gym", StartTime: "9.5"},
			wantDate: "2026-09-01",
		},
		{
			name:     "non-numeric start leaves task unscheduled",
			req:      taskReq{Title: "Gym", StartTime: "nine", Duration: "1"},
			wantDate: "2026-09-01",
		},
		{
			name:    "start past midnight rejected",
			req:     taskReq{Title: "Gym", StartTime: "25", Duration: "1"},
			wantErr: true,
		},
		{
			name:    "task running past midnight rejected",
			req:     taskReq{Title: "Gym", StartTime: "23", Duration: "2"},
			wantErr: true,
		},
		{
			name:    "zero duration rejected",
			req:     taskReq{Title: "Gym", StartTime: "9", Duration: "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := parseTask(tt.req, 7, now)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseTask(%+v) expected error, got %+v", tt.req, task)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTask(%+v) unexpected error: %v", tt.req, err)
			}
			if task.AccountID != 7 {
				t.Errorf("AccountID = %d, want 7", task.AccountID)
			}
			if task.TaskDate != tt.wantDate {
				t.Errorf("TaskDate = %q, want %q", task.TaskDate, tt.wantDate)
			}
			if got := task.StartTime != nil && task.Duration != nil; got != tt.scheduled {
				t.Errorf("scheduled = %v, want %v", got, tt.scheduled)
			}
		})
	}
}

func TestParseTaskDefaultColor(t *testing.T) {
	task, err := parseTask(taskReq{Title: "Laundry"}, 1, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Color != "blue" {
		t.Errorf("Color = %q, want %q", task.Color, "blue")
	}
}
