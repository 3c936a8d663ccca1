package pto

import (
	"time"

	"github.com/google/uuid"
)

const (
	LeaveVacation = "vacation"
	LeaveSick     = "sick"
	LeavePersonal = "personal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// PtoRequest is owned by the requesting employee and readable
// organization-wide. Status moves pending->approved or pending->rejected
// exactly once; a decided request is immutable.
type PtoRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_pto_requests_company_created"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Requester name at submission time, frozen so later profile edits
	// do not rewrite the request list.
	RequesterName string `gorm:"type:varchar(255);not null"`

	LeaveType string    `gorm:"type:varchar(20);not null"`
	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`
	Notes     *string   `gorm:"type:text"`

	Status    string     `gorm:"type:varchar(20);not null;default:'pending'"`
	DecidedBy *uuid.UUID `gorm:"type:uuid"`
	DecidedAt *time.Time

	CreatedAt time.Time `gorm:"index:idx_pto_requests_company_created"`
	UpdatedAt time.Time
}

func (PtoRequest) TableName() string {
	return "pto_requests"
}

func validLeaveType(v string) bool {
	switch v {
	case LeaveVacation, LeaveSick, LeavePersonal:
		return true
	}
	return false
}
