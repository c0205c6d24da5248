// Package queue defines message payloads exchanged over the message broker.
package queue

// ReminderScheduledEvent is published when a reminder item is created
// or its due time changes. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type ReminderScheduledEvent struct {
	ReminderID  uint64 `json:"reminder_id"`
	AccountID   uint64 `json:"account_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	RemindAt    string `json:"remind_at,omitempty"`
	IsRecurring bool   `json:"is_recurring"`
	ScheduledAt string `json:"scheduled_at"`
}
