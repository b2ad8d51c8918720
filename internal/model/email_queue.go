package model

import "time"

// Email queue entry statuses. Entries never expire on their own; an admin
// resolves them manually.
const (
	EmailQueueStatusPending  = "pending"
	EmailQueueStatusResolved = "resolved"
)

// EmailQueueEntry is written when every delivery channel failed for a send.
// It carries a snapshot of the outfit attributes and a copy of the artifact
// bytes so the email can be re-sent without the original request.
type EmailQueueEntry struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	RequestID     string    `db:"request_id" json:"request_id"`
	OutfitDetails string    `db:"outfit_details" json:"outfit_details"` // JSON snapshot
	ImageData     []byte    `db:"image_data" json:"-"`
	Status        string    `db:"status" json:"status"`
	Timestamp     time.Time `db:"timestamp" json:"timestamp"`
}
