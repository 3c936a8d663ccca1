package events

import "time"

const ReportSubmittedTopic = "timeoff.attendance.report.v1"

type ReportSubmittedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	ReportID   string    `json:"report_id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	ReportType string    `json:"report_type"`
	OccurredAt time.Time `json:"occurred_at"`
}
