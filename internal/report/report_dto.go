package report

import "time"

type SubmitReportRequest struct {
	Type string `json:"type" binding:"required,oneof=call_out late early_leave"`
	Date string `json:"date" binding:"required"`
	Time string `json:"time"`

	Reason           string `json:"reason"`
	LatenessDuration string `json:"lateness_duration"`
	EarlyLeaveReason string `json:"early_leave_reason"`
}

type AllocatePtoRequest struct {
	Qualifies *bool    `json:"qualifies" binding:"required"`
	Hours     *float64 `json:"hours"`
}

type ReportResponse struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"company_id"`
	EmployeeID string  `json:"employee_id"`
	Type       string  `json:"type"`
	Date       string  `json:"date"`
	Time       *string `json:"time,omitempty"`

	Reason           *string `json:"reason,omitempty"`
	LatenessDuration *string `json:"lateness_duration,omitempty"`
	EarlyLeaveReason *string `json:"early_leave_reason,omitempty"`

	EmployeeName string `json:"employee_name"`
	CompanyName  string `json:"company_name,omitempty"`
	Title        string `json:"title,omitempty"`
	ManagerName  string `json:"manager_name,omitempty"`

	PtoAllocated        bool    `json:"pto_allocated"`
	PtoHours            float64 `json:"pto_hours"`
	NotificationHandled bool    `json:"notification_handled"`

	CreatedAt string `json:"created_at"`
}

// SubmitResult carries the persisted report plus an optional warning when
// the derived notification could not be written. The report itself is
// durable either way.
type SubmitResult struct {
	Report  ReportResponse
	Warning string
}

func mapToResponse(r Report) ReportResponse {
	return ReportResponse{
		ID:                  r.ID.String(),
		CompanyID:           r.CompanyID.String(),
		EmployeeID:          r.EmployeeID.String(),
		Type:                r.Type,
		Date:                r.ReportDate.Format("2006-01-02"),
		Time:                r.ReportTime,
		Reason:              r.Reason,
		LatenessDuration:    r.LatenessDuration,
		EarlyLeaveReason:    r.EarlyLeaveReason,
		EmployeeName:        r.EmployeeName,
		CompanyName:         r.CompanyName,
		Title:               r.Title,
		ManagerName:         r.ManagerName,
		PtoAllocated:        r.PtoAllocated,
		PtoHours:            r.PtoHours,
		NotificationHandled: r.NotificationHandled,
		CreatedAt:           r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapToListResponse(rows []Report) []ReportResponse {
	resp := make([]ReportResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapToResponse(r)
	}
	return resp
}
