package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

type PackageRepository struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

func (r *PackageRepository) GetPackage(ctx context.Context, tenantID, id uuid.UUID) (*model.Package, error) {
	var pkg model.Package
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, project_id, name, status, award_supplier_id, award_value, created_at
		FROM packages
		WHERE id = ? AND tenant_id = ?
		LIMIT 1
	`, id, tenantID).Scan(&pkg).Error; err != nil {
		return nil, err
	}
	if pkg.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &pkg, nil
}

func (r *PackageRepository) GetProject(ctx context.Context, tenantID, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, name, code
		FROM projects
		WHERE id = ? AND tenant_id = ?
		LIMIT 1
	`, id, tenantID).Scan(&project).Error; err != nil {
		return nil, err
	}
	if project.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (r *PackageRepository) GetSupplier(ctx context.Context, tenantID, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, name, insurance_expires_at, hs_cert_valid, accreditation_valid
		FROM suppliers
		WHERE id = ? AND tenant_id = ?
		LIMIT 1
	`, id, tenantID).Scan(&supplier).Error; err != nil {
		return nil, err
	}
	if supplier.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &supplier, nil
}
