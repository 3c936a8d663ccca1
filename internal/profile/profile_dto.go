package profile

type SaveProfileRequest struct {
	FullName    string   `json:"full_name" binding:"required"`
	Role        string   `json:"role" binding:"required,oneof=employee management"`
	CompanyName string   `json:"company_name" binding:"required"`
	Title       string   `json:"title"`
	ManagerName string   `json:"manager_name"`
	PtoBalance  *float64 `json:"pto_balance_hours" binding:"omitempty,gte=0"`
}

type ProfileResponse struct {
	ID              string  `json:"id"`
	CompanyID       string  `json:"company_id"`
	FullName        string  `json:"full_name"`
	Role            string  `json:"role"`
	CompanyName     string  `json:"company_name"`
	Title           string  `json:"title,omitempty"`
	ManagerName     string  `json:"manager_name,omitempty"`
	PtoBalanceHours float64 `json:"pto_balance_hours"`
}

func mapToResponse(p Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID.String(),
		CompanyID:       p.CompanyID.String(),
		FullName:        p.FullName,
		Role:            p.Role,
		CompanyName:     p.CompanyName,
		Title:           p.Title,
		ManagerName:     p.ManagerName,
		PtoBalanceHours: p.PtoBalanceHours,
	}
}
