package events

import "time"

const PtoDecidedTopic = "timeoff.pto.decision.v1"

type PtoDecidedEvent struct {
	EventType   string    `json:"event_type"`
	RequestID   string    `json:"request_id,omitempty"`
	PtoID       string    `json:"pto_id"`
	CompanyID   string    `json:"company_id"`
	RequesterID string    `json:"requester_id"`
	Status      string    `json:"status"`
	DecidedBy   string    `json:"decided_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}
