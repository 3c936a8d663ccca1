package notification

import (
	"time"

	"github.com/google/uuid"
)

// Types of organization-visible notifications. The report-derived types
// mirror the attendance report types; the two pto_* types are derived from
// PTO request submissions and decisions.
const (
	TypeCallOut         = "call_out"
	TypeLate            = "late"
	TypeEarlyLeave      = "early_leave"
	TypePtoRequest      = "pto_request"
	TypePtoStatusUpdate = "pto_status_update"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_company_seq"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`

	Type    string `gorm:"type:varchar(30);not null"`
	Message string `gorm:"type:text;not null"`

	// Non-owning back-reference to the attendance report that produced a
	// call_out/late/early_leave notification. Lookup only, never a
	// cascade target.
	AttendanceRecordID *uuid.UUID `gorm:"type:uuid;index"`

	Handled bool `gorm:"not null;default:false"`

	// Seq is company-monotonic, assigned at creation from the shared
	// counter. It fixes the ordering even when two notifications land in
	// the same clock tick.
	Seq int64 `gorm:"not null;index:idx_notifications_company_seq"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Notification) TableName() string {
	return "notifications"
}
