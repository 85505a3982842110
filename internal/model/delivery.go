package model

import "time"

// Outcome is the terminal state of a webhook delivery.
type Outcome string

const (
	OutcomeCompleted        Outcome = "completed"
	OutcomeSkippedNoTrigger Outcome = "skipped_no_trigger"
	OutcomeSkippedDuplicate Outcome = "skipped_duplicate"
	OutcomeFailed           Outcome = "failed"
)

// Delivery is the audit record written for every terminal outcome. Best-effort:
// the dispatcher never fails a request because the audit write failed.
type Delivery struct {
	CreatedAt time.Time `json:"created_at"`
	TicketKey *string   `json:"ticket_key,omitempty"`
	Error     *string   `json:"error,omitempty"`
	RecordID  string    `json:"record_id"`
	Outcome   Outcome   `json:"outcome"`
	ID        int64     `json:"id"`
}
