package notification

import "time"

type NotificationResponse struct {
	ID                 string  `json:"id"`
	CompanyID          string  `json:"company_id"`
	EmployeeID         string  `json:"employee_id"`
	Type               string  `json:"type"`
	Message            string  `json:"message"`
	AttendanceRecordID *string `json:"attendance_record_id,omitempty"`
	Handled            bool    `json:"handled"`
	Seq                int64   `json:"seq"`
	CreatedAt          string  `json:"created_at"`
}

func mapToResponse(n Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:         n.ID.String(),
		CompanyID:  n.CompanyID.String(),
		EmployeeID: n.EmployeeID.String(),
		Type:       n.Type,
		Message:    n.Message,
		Handled:    n.Handled,
		Seq:        n.Seq,
		CreatedAt:  n.CreatedAt.UTC().Format(time.RFC3339),
	}
	if n.AttendanceRecordID != nil {
		v := n.AttendanceRecordID.String()
		resp.AttendanceRecordID = &v
	}
	return resp
}

func mapToListResponse(rows []Notification) []NotificationResponse {
	resp := make([]NotificationResponse, len(rows))
	for i, n := range rows {
		resp[i] = mapToResponse(n)
	}
	return resp
}
