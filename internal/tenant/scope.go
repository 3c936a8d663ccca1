package tenant

import "gorm.io/gorm"

// Scope narrows any query to one company's documents. Every repository in
// the module goes through this for organization-visible collections.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
