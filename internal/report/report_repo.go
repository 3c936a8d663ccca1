package report

import (
	"context"
	"database/sql"
	"time"

	"go-timeoff/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=report_repo.go -destination=mock/report_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Report) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Report, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Report, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Report, error)
	// FindWeekByEmployee returns the employee's reports within
	// [weekStart, weekStart+7d), ordered ascending by date then time.
	FindWeekByEmployee(ctx context.Context, companyID, employeeID string, weekStart time.Time) ([]Report, error)
	UpdateAllocation(ctx context.Context, r *Report) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, rec *Report) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Report, error) {
	var rec Report
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&rec, "id = ?", id).Error
	return &rec, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Report, error) {
	var rows []Report
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("report_date DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Report, error) {
	var rows []Report
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("report_date DESC, created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindWeekByEmployee(ctx context.Context, companyID, employeeID string, weekStart time.Time) ([]Report, error) {
	var rows []Report
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("report_date >= ?", weekStart.Format("2006-01-02")).
		Where("report_date < ?", weekStart.AddDate(0, 0, 7).Format("2006-01-02")).
		Order("report_date ASC, report_time ASC NULLS FIRST, created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateAllocation(ctx context.Context, rec *Report) error {
	return r.db.WithContext(ctx).
		Model(rec).
		Select("pto_allocated", "pto_hours", "notification_handled", "updated_at").
		Updates(map[string]any{
			"pto_allocated":        rec.PtoAllocated,
			"pto_hours":            rec.PtoHours,
			"notification_handled": rec.NotificationHandled,
		}).Error
}
