package handler

import "testing"

func TestParseItem(t *testing.T) {
	tests := []struct {
		name    string
		req     reminderItemReq
		wantErr bool
		dated   bool
	}{
		{
			name:  "undated note",
			req:   reminderItemReq{Title: "Call plumber"},
			dated: false,
		},
		{
			name:    "missing title rejected",
			req:     reminderItemReq{Message: "no title"},
			wantErr: true,
		},
		{
			name:  "RFC3339 due time accepted",
			req:   reminderItemReq{Title: "Bill", RemindAt: "2026-09-02T18:00:00Z"},
			dated: true,
		},
		{
			name:  "space-separated timestamp accepted",
			req:   reminderItemReq{Title: "Bill", RemindAt: "2026-09-02 18:00"},
			dated: true,
		},
		{
			name:    "garbage due time rejected",
			req:     reminderItemReq{Title: "Bill", RemindAt: "tomorrowish"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, err := parseItem(tt.req, 3)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseItem(%+v) expected error", tt.req)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseItem(%+v) unexpected error: %v", tt.req, err)
			}
			if it.AccountID != 3 {
				t.Errorf("AccountID = %d, want 3", it.AccountID)
			}
			if got := it.RemindAt != nil; got != tt.dated {
				t.Errorf("dated = %v, want %v", got, tt.dated)
			}
		})
	}
}
