package pto

type SubmitPtoRequest struct {
	LeaveType string `json:"leave_type" binding:"required,oneof=vacation sick personal"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Notes     string `json:"notes"`
}

type DecidePtoRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
}

type PtoResponse struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	EmployeeID    string  `json:"employee_id"`
	RequesterName string  `json:"requester_name"`
	LeaveType     string  `json:"leave_type"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Notes         *string `json:"notes,omitempty"`
	Status        string  `json:"status"`
	DecidedBy     *string `json:"decided_by,omitempty"`
	DecidedAt     *string `json:"decided_at,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// Result carries the outcome of a submit or decide together with the
// warning produced when the derived notification could not be written.
type Result struct {
	Request PtoResponse `json:"request"`
	Warning string      `json:"-"`
}

func mapToResponse(p PtoRequest) PtoResponse {
	resp := PtoResponse{
		ID:            p.ID.String(),
		CompanyID:     p.CompanyID.String(),
		EmployeeID:    p.EmployeeID.String(),
		RequesterName: p.RequesterName,
		LeaveType:     p.LeaveType,
		StartDate:     p.StartDate.Format("2006-01-02"),
		EndDate:       p.EndDate.Format("2006-01-02"),
		Notes:         p.Notes,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.DecidedBy != nil {
		v := p.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if p.DecidedAt != nil {
		v := p.DecidedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(rows []PtoRequest) []PtoResponse {
	out := make([]PtoResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, mapToResponse(p))
	}
	return out
}
