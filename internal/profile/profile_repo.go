package profile

import (
	"context"

	"go-timeoff/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=profile_repo.go -destination=mock/profile_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, companyID, id string) (*Profile, error)
	Save(ctx context.Context, p *Profile) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, companyID, id string) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) Save(ctx context.Context, p *Profile) error {
	// Upsert keyed by identity: first save creates the profile, later
	// saves by the owner update it.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"full_name", "role", "company_name", "title",
				"manager_name", "pto_balance_hours", "updated_at",
			}),
		}).
		Create(p).Error
}
