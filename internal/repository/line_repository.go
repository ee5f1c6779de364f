package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

type LineRepository struct {
	db *gorm.DB
}

func NewLineRepository(db *gorm.DB) *LineRepository {
	return &LineRepository{db: db}
}

func (r *LineRepository) ListSnapshotLines(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.PackageLineItem, error) {
	var rows []model.PackageLineItem
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, package_id, description, qty, rate, total, cost_code
		FROM package_line_items
		WHERE tenant_id = ? AND package_id = ?
		ORDER BY id ASC
	`, tenantID, packageID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLegacyLines reads the package_items join onto the shared budget lines.
func (r *LineRepository) ListLegacyLines(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.LegacyLineRow, error) {
	var rows []model.LegacyLineRow
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			bl.id AS budget_line_id,
			bl.description,
			bl.qty,
			bl.rate,
			bl.amount,
			bl.cost_code
		FROM package_items pi
		JOIN budget_lines bl ON bl.id = pi.budget_line_id
		WHERE pi.tenant_id = ? AND pi.package_id = ?
		ORDER BY bl.id ASC
	`, tenantID, packageID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type contractLineRef struct {
	ContractID    uuid.UUID
	SupplierID    uuid.UUID
	SupplierName  string
	PackageLineID *uuid.UUID
	BudgetLineID  *uuid.UUID
}

// FindContractedLines returns every contract line, under any contract, that references one of the
// given package-line or budget-line ids.
func (r *LineRepository) FindContractedLines(
	ctx context.Context,
	tenantID uuid.UUID,
	packageLineIDs []uuid.UUID,
	budgetLineIDs []uuid.UUID,
) ([]model.LineConflict, error) {
	if len(packageLineIDs) == 0 && len(budgetLineIDs) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).
		Table("contract_line_items AS cli").
		Select(`
			cli.contract_id,
			c.supplier_id,
			COALESCE(sp.name, '') AS supplier_name,
			cli.package_line_id,
			cli.budget_line_id
		`).
		Joins("JOIN contracts c ON c.id = cli.contract_id").
		Joins("LEFT JOIN suppliers sp ON sp.id = c.supplier_id").
		Where("cli.tenant_id = ?", tenantID)

	switch {
	case len(packageLineIDs) > 0 && len(budgetLineIDs) > 0:
		query = query.Where("(cli.package_line_id IN ? OR cli.budget_line_id IN ?)", packageLineIDs, budgetLineIDs)
	case len(packageLineIDs) > 0:
		query = query.Where("cli.package_line_id IN ?", packageLineIDs)
	default:
		query = query.Where("cli.budget_line_id IN ?", budgetLineIDs)
	}

	var refs []contractLineRef
	if err := query.Order("cli.contract_id ASC").Scan(&refs).Error; err != nil {
		return nil, err
	}

	conflicts := make([]model.LineConflict, 0, len(refs))
	for _, ref := range refs {
		conflict := model.LineConflict{
			ContractID:    ref.ContractID,
			SupplierID:    ref.SupplierID,
			SupplierName:  ref.SupplierName,
			PackageLineID: ref.PackageLineID,
			BudgetLineID:  ref.BudgetLineID,
		}
		switch {
		case ref.PackageLineID != nil:
			conflict.LineID = *ref.PackageLineID
		case ref.BudgetLineID != nil:
			conflict.LineID = *ref.BudgetLineID
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts, nil
}
