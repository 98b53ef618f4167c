package models

import "time"

type WorkRequestStatus string

const (
	StatusPending WorkRequestStatus = "pending"
	StatusReplied WorkRequestStatus = "replied"
)

// WorkRequest is an inbound request for work. It moves from pending to
// replied exactly once.
type WorkRequest struct {
	ID             string
	RequesterEmail string
	SubjectTitle   string
	Description    string
	Status         WorkRequestStatus
	CreatedAt      time.Time
	RepliedAt      *time.Time
}
