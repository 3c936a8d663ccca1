package profile

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultPtoBalanceHours is granted to every employee profile at setup.
const DefaultPtoBalanceHours = 80

// Profile describes one user. The ID is the opaque identity from the
// session provider; the profile is created once at first login and only
// ever mutated by its owner.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	FullName    string `gorm:"type:varchar(255);not null"`
	Role        string `gorm:"type:varchar(20);not null;default:'employee'"`
	CompanyName string `gorm:"type:varchar(255);not null"`
	Title       string `gorm:"type:varchar(255)"`
	ManagerName string `gorm:"type:varchar(255)"`

	// Tracked for employees only; management profiles keep the zero value.
	PtoBalanceHours float64 `gorm:"not null;default:80"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Profile) TableName() string {
	return "profiles"
}
