package store

import "strings"

// Collection names of the documents the platform persists. Each collection
// is scoped to a company, and optionally narrowed to a single employee.
const (
	CollectionReports       = "reports"
	CollectionPtoRequests   = "pto_requests"
	CollectionNotifications = "notifications"
	CollectionProfiles      = "profiles"
)

// Scope identifies one subscribable query: a collection within a company,
// optionally narrowed to one employee's documents.
type Scope struct {
	Collection string
	CompanyID  string
	EmployeeID string
}

func CompanyScope(collection, companyID string) Scope {
	return Scope{Collection: collection, CompanyID: companyID}
}

func EmployeeScope(collection, companyID, employeeID string) Scope {
	return Scope{Collection: collection, CompanyID: companyID, EmployeeID: employeeID}
}

// Channel is the pub/sub channel name the scope maps to. Employee-narrowed
// scopes get their own channel so organization-wide listeners are not woken
// by every per-employee subscription and vice versa; writers publish to both.
func (s Scope) Channel() string {
	parts := []string{"store", s.CompanyID, s.Collection}
	if s.EmployeeID != "" {
		parts = append(parts, s.EmployeeID)
	}
	return strings.Join(parts, ":")
}

// Broaden returns the company-wide variant of an employee-narrowed scope.
func (s Scope) Broaden() Scope {
	return Scope{Collection: s.Collection, CompanyID: s.CompanyID}
}
