package repository

import "testing"

func fp(v float64) *float64 { return &v }

func TestHasOverlap(t *testing.T) {
	day := []Task{
		{ID: 1, StartTime: fp(9), Duration: fp(2)},    // 9-11
		{ID: 2, StartTime: fp(14), Duration: fp(1.5)}, // 14-15:30
		{ID: 3},                                       // unscheduled
		{ID: 4, StartTime: fp(20), Duration: fp(0)},   // empty interval
	}

	tests := []struct {
		name      string
		excludeID uint64
		start     float64
		duration  float64
		want      bool
	}{
		{name: "inside existing", start: 9.5, duration: 1, want: true},
		{name: "covers existing", start: 8, duration: 4, want: true},
		{name: "partial tail", start: 10, duration: 1, want: true},
		{name: "back to back after", start: 11, duration: 1, want: false},
		{name: "back to back before", start: 8, duration: 1, want: false},
		{name: "free slot", start: 12, duration: 1.5, want: false},
		{name: "touches second task", start: 15.5, duration: 1, want: false},
		{name: "crosses second task", start: 13, duration: 1.25, want: true},
		{name: "zero duration proposal", start: 9.5, duration: 0, want: false},
		{name: "negative start proposal", start: -1, duration: 3, want: false},
		{name: "over empty interval task", start: 19.5, duration: 1, want: false},
		{name: "excluding self", excludeID: 1, start: 9, duration: 2, want: false},
		{name: "excluding self still hits others", excludeID: 1, start: 13.5, duration: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HasOverlap(day, tt.excludeID, tt.start, tt.duration)
			if got != tt.want {
				t.Errorf("HasOverlap(start=%v, dur=%v, exclude=%d) = %v, want %v",
					tt.start, tt.duration, tt.excludeID, got, tt.want)
			}
		})
	}
}

func TestHasOverlapEmptySet(t *testing.T) {
	if HasOverlap(nil, 0, 9, 2) {
		t.Error("HasOverlap over empty task set should be false")
	}
}
