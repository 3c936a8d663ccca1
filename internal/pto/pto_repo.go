package pto

import (
	"context"
	"database/sql"
	"time"

	"go-timeoff/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=pto_repo.go -destination=mock/pto_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *PtoRequest) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*PtoRequest, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]PtoRequest, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]PtoRequest, error)
	// DecideIfPending conditionally moves a pending request to the given
	// terminal status. Returns the requester's employee id and the number
	// of rows updated: zero means the request was missing or already
	// decided, and the caller must tell those two apart itself. The
	// employee id rides back on the conditional write so the caller can
	// target the requester even if the row cannot be re-read afterwards.
	DecideIfPending(ctx context.Context, companyID, id, status, decidedBy string, decidedAt time.Time) (string, int64, error)
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

func (r *repository) Create(ctx context.Context, p *PtoRequest) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*PtoRequest, error) {
	var p PtoRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]PtoRequest, error) {
	var rows []PtoRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]PtoRequest, error) {
	var rows []PtoRequest
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) DecideIfPending(ctx context.Context, companyID, id, status, decidedBy string, decidedAt time.Time) (string, int64, error) {
	var decided PtoRequest
	res := r.db.WithContext(ctx).
		Model(&decided).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "employee_id"}}}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":     status,
			"decided_by": decidedBy,
			"decided_at": decidedAt,
		})
	if res.Error != nil || res.RowsAffected == 0 {
		return "", res.RowsAffected, res.Error
	}
	return decided.EmployeeID.String(), res.RowsAffected, nil
}
