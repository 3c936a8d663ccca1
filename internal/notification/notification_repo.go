package notification

import (
	"context"

	"go-timeoff/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=notification_repo.go -destination=mock/notification_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	FindAllByCompany(ctx context.Context, companyID string) ([]Notification, error)
	// MarkHandledByRecordID flips handled on the unhandled notification
	// referencing the record. Returns the number of rows updated; zero is
	// a legitimate outcome, not an error.
	MarkHandledByRecordID(ctx context.Context, companyID, recordID string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Notification, error) {
	var rows []Notification
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("seq DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MarkHandledByRecordID(ctx context.Context, companyID, recordID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Scopes(tenant.Scope(companyID)).
		Where("attendance_record_id = ?", recordID).
		Where("handled = ?", false).
		Update("handled", true)
	return res.RowsAffected, res.Error
}
