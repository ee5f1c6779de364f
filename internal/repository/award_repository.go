package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

type AwardRepository struct {
	db *gorm.DB
}

func NewAwardRepository(db *gorm.DB) *AwardRepository {
	return &AwardRepository{db: db}
}

// CommitAward applies every write of an award in a single transaction. The package row is claimed
// first with a conditional update on award_supplier_id IS NULL, so a concurrent second award
// fails with ErrPackageAlreadyAwarded and writes nothing.
func (r *AwardRepository) CommitAward(ctx context.Context, commit model.AwardCommit) (*model.AwardCommit, error) {
	now := time.Now().UTC()
	decision := commit.Decision
	contract := commit.Contract

	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = now
	}
	if contract.ID == uuid.Nil {
		contract.ID = uuid.New()
	}
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.AwardDecisionID = decision.ID

	var override *model.ComplianceOverride
	if commit.Override != nil {
		o := *commit.Override
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		override = &o
	}

	lines := make([]model.ContractLineItem, len(commit.Lines))
	for i, line := range commit.Lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.ContractID = contract.ID
		line.TenantID = contract.TenantID
		lines[i] = line
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE packages
			SET status = ?, award_supplier_id = ?, award_value = ?
			WHERE id = ? AND tenant_id = ? AND award_supplier_id IS NULL
		`, model.PackageStatusAwarded, contract.SupplierID, contract.Value, contract.PackageID, contract.TenantID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPackageAlreadyAwarded
		}

		if override != nil {
			if err := tx.Exec(`
				INSERT INTO compliance_overrides (
					id, tenant_id, supplier_id, package_id, reason, missing_conditions, authorized_by, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`,
				override.ID,
				override.TenantID,
				override.SupplierID,
				override.PackageID,
				override.Reason,
				strings.Join(override.Missing, ","),
				override.AuthorizedBy,
				override.CreatedAt,
			).Error; err != nil {
				return err
			}
		}

		if err := tx.Exec(`
			INSERT INTO award_decisions (
				id, tenant_id, project_id, package_id, supplier_id,
				award_type, decision, override_reason, decided_by, decided_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			decision.ID,
			decision.TenantID,
			decision.ProjectID,
			decision.PackageID,
			decision.SupplierID,
			decision.AwardType,
			decision.Decision,
			decision.OverrideReason,
			decision.DecidedBy,
			decision.DecidedAt,
		).Error; err != nil {
			return err
		}

		if err := tx.Exec(`
			INSERT INTO contracts (
				id, tenant_id, project_id, package_id, supplier_id, award_decision_id,
				title, value, currency, status, start_date, end_date, created_by, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			contract.ID,
			contract.TenantID,
			contract.ProjectID,
			contract.PackageID,
			contract.SupplierID,
			contract.AwardDecisionID,
			contract.Title,
			contract.Value,
			contract.Currency,
			contract.Status,
			contract.StartDate,
			contract.EndDate,
			contract.CreatedBy,
			contract.CreatedAt,
		).Error; err != nil {
			return err
		}

		for _, line := range lines {
			if err := tx.Exec(`
				INSERT INTO contract_line_items (
					id, tenant_id, contract_id, package_line_id, budget_line_id,
					description, qty, rate, total, cost_code
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				line.ID,
				line.TenantID,
				line.ContractID,
				line.PackageLineID,
				line.BudgetLineID,
				line.Description,
				line.Qty,
				line.Rate,
				line.Total,
				line.CostCode,
			).Error; err != nil {
				if isUniqueViolation(err, "uq_contract_line_items_package_line") ||
					isUniqueViolation(err, "uq_contract_line_items_budget_line") {
					return ErrLineAlreadyContracted
				}
				return err
			}
		}

		if err := tx.Exec(`
			UPDATE tenders
			SET status = ?
			WHERE tenant_id = ? AND package_id = ? AND status = ?
		`, model.TenderStatusClosed, contract.TenantID, contract.PackageID, model.TenderStatusOpen).Error; err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE submissions
			SET status = ?
			WHERE tenant_id = ? AND package_id = ? AND supplier_id = ?
		`, model.SubmissionStatusAwarded, contract.TenantID, contract.PackageID, contract.SupplierID).Error
	})
	if err != nil {
		return nil, err
	}

	return &model.AwardCommit{
		Override: override,
		Decision: decision,
		Contract: contract,
		Lines:    lines,
	}, nil
}

func (r *AwardRepository) GetContractDocument(ctx context.Context, tenantID, contractID uuid.UUID) (*model.ContractDocument, error) {
	var row struct {
		model.Contract
		SupplierName string
		PackageName  string
		ProjectName  string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.tenant_id,
			c.project_id,
			c.package_id,
			c.supplier_id,
			c.award_decision_id,
			c.title,
			c.value,
			c.currency,
			c.status,
			c.start_date,
			c.end_date,
			c.created_by,
			c.created_at,
			COALESCE(sp.name, '') AS supplier_name,
			COALESCE(p.name, '') AS package_name,
			COALESCE(pr.name, '') AS project_name
		FROM contracts c
		LEFT JOIN suppliers sp ON sp.id = c.supplier_id
		LEFT JOIN packages p ON p.id = c.package_id
		LEFT JOIN projects pr ON pr.id = c.project_id
		WHERE c.id = ? AND c.tenant_id = ?
		LIMIT 1
	`, contractID, tenantID).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var lines []model.ContractLineItem
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, contract_id, package_line_id, budget_line_id, description, qty, rate, total, cost_code
		FROM contract_line_items
		WHERE contract_id = ? AND tenant_id = ?
		ORDER BY cost_code ASC, id ASC
	`, contractID, tenantID).Scan(&lines).Error; err != nil {
		return nil, err
	}

	return &model.ContractDocument{
		Contract:     row.Contract,
		Lines:        lines,
		SupplierName: row.SupplierName,
		PackageName:  row.PackageName,
		ProjectName:  row.ProjectName,
	}, nil
}
