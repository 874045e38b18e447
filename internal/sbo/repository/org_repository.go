package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OZI-SP-Dev/sbo-workflow/internal/sbo/entity"
)

// OrgRepository serves the static Title/ParentOrg reference rows.
type OrgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// FetchAll returns every org ordered by parent then title.
func (r *OrgRepository) FetchAll(ctx context.Context) ([]entity.Org, error) {
	var orgs []entity.Org
	err := r.db.WithContext(ctx).
		Order("parent_org ASC, title ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

// Seed inserts reference rows, skipping any that already exist.
func (r *OrgRepository) Seed(ctx context.Context, orgs []entity.Org) error {
	if len(orgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&orgs).Error
}
