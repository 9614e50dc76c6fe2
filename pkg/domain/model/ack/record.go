package ack

import (
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

const (
	// Window is how long a sent alert waits for an answer before it is
	// classified as timed out.
	Window = 10 * time.Minute

	// PruneAfter is how long an acknowledged record is kept.
	PruneAfter = time.Hour

	// Version tags the persisted document.
	Version = "1"
)

// Record is the sender-local shadow of an alert that has not been answered yet.
// TimeoutAt is fixed when the record is created.
type Record struct {
	AlertID        types.AlertID   `json:"alert_id"`
	TargetPlate    string          `json:"target_plate"`
	Urgency        types.Urgency   `json:"urgency"`
	Message        string          `json:"message,omitempty"`
	SentAt         time.Time       `json:"sent_at"`
	TimeoutAt      time.Time       `json:"timeout_at"`
	Status         types.AckStatus `json:"status"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`
}

func NewRecord(id types.AlertID, plate string, urgency types.Urgency, message string, sentAt time.Time) Record {
	sentAt = sentAt.UTC()
	return Record{
		AlertID:     id,
		TargetPlate: plate,
		Urgency:     urgency,
		Message:     message,
		SentAt:      sentAt,
		TimeoutAt:   sentAt.Add(Window),
		Status:      types.AckPending,
	}
}

// StatusAt classifies the record at now. An acknowledgment always wins, even a
// late one: the tracker answers "did anyone ever respond".
func (x Record) StatusAt(now time.Time) types.AckStatus {
	if x.AcknowledgedAt != nil && !x.AcknowledgedAt.After(now) {
		return types.AckAcknowledged
	}
	if now.After(x.TimeoutAt) {
		return types.AckTimedOut
	}
	return types.AckPending
}

// Expired reports whether an acknowledged record is old enough to be pruned.
func (x Record) Expired(now time.Time) bool {
	if x.AcknowledgedAt == nil {
		return false
	}
	return now.Sub(*x.AcknowledgedAt) > PruneAfter
}

type Summary struct {
	Pending      int `json:"pending"`
	TimedOut     int `json:"timed_out"`
	Acknowledged int `json:"acknowledged"`
}

func (x Summary) Total() int {
	return x.Pending + x.TimedOut + x.Acknowledged
}

// Summarize counts records by their stored status.
func Summarize(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Status {
		case types.AckPending:
			s.Pending++
		case types.AckTimedOut:
			s.TimedOut++
		case types.AckAcknowledged:
			s.Acknowledged++
		}
	}
	return s
}

// Document is the persisted form of the record list.
type Document struct {
	Version string   `json:"version"`
	Records []Record `json:"records"`
}
