package repository

import (
	"sort"
	"testing"
)

func TestPlannerLess(t *testing.T) {
	tests := []struct {
		name string
		a, b Task
		want bool
	}{
		{
			name: "earlier date wins",
			a:    Task{ID: 9, TaskDate: "2026-09-01"},
			b:    Task{ID: 1, TaskDate: "2026-09-02", StartTime: fp(8), Duration: fp(1)},
			want: true,
		},
		{
			name: "scheduled before unscheduled on same date",
			a:    Task{ID: 9, TaskDate: "2026-09-01", StartTime: fp(22), Duration: fp(1)},
			b:    Task{ID: 1, TaskDate: "2026-09-01"},
			want: true,
		},
		{
			name: "unscheduled sinks below scheduled",
			a:    Task{ID: 1, TaskDate: "2026-09-01"},
			b:    Task{ID: 9, TaskDate: "2026-09-01", StartTime: fp(22), Duration: fp(1)},
			want: false,
		},
		{
			name: "earlier start wins on same date",
			a:    Task{ID: 9, TaskDate: "2026-09-01", StartTime: fp(8), Duration: fp(1)},
			b:    Task{ID: 1, TaskDate: "2026-09-01", StartTime: fp(10), Duration: fp(1)},
			want: true,
		},
		{
			name: "equal starts break ties by id",
			a:    Task{ID: 1, TaskDate: "2026-09-01", StartTime: fp(8), Duration: fp(1)},
			b:    Task{ID: 2, TaskDate: "2026-09-01", StartTime: fp(8), Duration: fp(2)},
			want: true,
		},
		{
			name: "both unscheduled break ties by id",
			a:    Task{ID: 2, TaskDate: "2026-09-01"},
			b:    Task{ID: 1, TaskDate: "2026-09-01"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plannerLess(tt.a, tt.b); got != tt.want {
				t.Errorf("plannerLess(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPlannerOrder(t *testing.T) {
	tasks := []Task{
		{ID: 5, TaskDate: "2026-09-02"},
		{ID: 4, TaskDate: "2026-09-01"},
		{ID: 3, TaskDate: "2026-09-01", StartTime: fp(14), Duration: fp(1)},
		{ID: 2, TaskDate: "2026-09-02", StartTime: fp(7), Duration: fp(1)},
		{ID: 1, TaskDate: "2026-09-01", StartTime: fp(9), Duration: fp(2)},
	}
	sort.SliceStable(tasks, func(i, j int) bool { return plannerLess(tasks[i], tasks[j]) })

	want := []uint64{1, 3, 4, 2, 5}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Fatalf("position %d: ID = %d, want %d", i, tasks[i].ID, id)
		}
	}
}
