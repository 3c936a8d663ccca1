package report

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TypeCallOut    = "call_out"
	TypeLate       = "late"
	TypeEarlyLeave = "early_leave"
)

// Lateness buckets are a fixed set; free-form durations are rejected.
const (
	LatenessShort  = "0-15min"
	LatenessMedium = "20-30min"
	LatenessLong   = "1hour+"
)

// EarlyLeaveReasonMaxWords caps the early-leave reason. Submissions over
// the cap are rejected outright, never truncated.
const EarlyLeaveReasonMaxWords = 20

// DefaultAllocationHours is the suggested PTO grant for a qualifying
// call-out, reflecting a standard shift. Managers may override it with any
// non-negative value.
const DefaultAllocationHours = 8.0

// Report is one attendance exception submitted by an employee. Exactly one
// of the type-specific field sets is populated, matching Type. After
// submission the row is immutable history except for the PTO allocation
// fields and the notification-handled flag.
type Report struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_reports_company_date"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_reports_employee_date"`

	Type       string    `gorm:"type:varchar(20);not null"`
	ReportDate time.Time `gorm:"type:date;not null;index:idx_reports_company_date;index:idx_reports_employee_date"`
	ReportTime *string   `gorm:"type:varchar(5)"`

	Reason           *string `gorm:"type:text"`
	LatenessDuration *string `gorm:"type:varchar(10)"`
	EarlyLeaveReason *string `gorm:"type:text"`

	// Snapshot of the submitter's profile at submission time; later
	// profile edits do not rewrite history.
	EmployeeName string `gorm:"type:varchar(255);not null"`
	CompanyName  string `gorm:"type:varchar(255)"`
	Title        string `gorm:"type:varchar(255)"`
	ManagerName  string `gorm:"type:varchar(255)"`

	PtoAllocated        bool    `gorm:"not null;default:false"`
	PtoHours            float64 `gorm:"not null;default:0"`
	NotificationHandled bool    `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Report) TableName() string {
	return "attendance_reports"
}

func validLatenessDuration(v string) bool {
	switch v {
	case LatenessShort, LatenessMedium, LatenessLong:
		return true
	default:
		return false
	}
}
