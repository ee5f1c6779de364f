package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

// InactiveSourcingStatuses are the statuses that release a direct award or internal assignment.
var InactiveSourcingStatuses = []string{
	"cancelled",
	"canceled",
	"closed",
	"terminated",
	"withdrawn",
	"void",
	"archived",
}

// ActiveContractStatuses are the contract statuses that hold a package.
var ActiveContractStatuses = []string{"draft", "active", "executed", "live"}

type SourcingRepository struct {
	db *gorm.DB
}

func NewSourcingRepository(db *gorm.DB) *SourcingRepository {
	return &SourcingRepository{db: db}
}

func (r *SourcingRepository) ActiveTenders(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error) {
	var rows []model.SourcingMechanism
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, status
		FROM tenders
		WHERE tenant_id = ? AND package_id = ? AND LOWER(status) <> 'cancelled'
		ORDER BY created_at ASC
	`, tenantID, packageID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return withKind(rows, model.SourcingKindTender), nil
}

func (r *SourcingRepository) ActiveContracts(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error) {
	var rows []model.SourcingMechanism
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, status
		FROM contracts
		WHERE tenant_id = ? AND package_id = ? AND LOWER(status) IN ?
		ORDER BY created_at ASC
	`, tenantID, packageID, ActiveContractStatuses).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return withKind(rows, model.SourcingKindContract), nil
}

// ActiveDirectAwards degrades to an empty result when the table has not been migrated.
func (r *SourcingRepository) ActiveDirectAwards(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error) {
	return r.optionalActive(ctx, "direct_awards", model.SourcingKindDirectAward, tenantID, packageID)
}

// ActiveInternalAssignments degrades to an empty result when the table has not been migrated.
func (r *SourcingRepository) ActiveInternalAssignments(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error) {
	return r.optionalActive(ctx, "internal_resource_assignments", model.SourcingKindInternalAssignment, tenantID, packageID)
}

func (r *SourcingRepository) optionalActive(
	ctx context.Context,
	table string,
	kind model.SourcingKind,
	tenantID, packageID uuid.UUID,
) ([]model.SourcingMechanism, error) {
	var rows []model.SourcingMechanism
	err := r.db.WithContext(ctx).
		Table(table).
		Select("id, status").
		Where("tenant_id = ? AND package_id = ?", tenantID, packageID).
		Where("LOWER(status) NOT IN ?", InactiveSourcingStatuses).
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		if isMissingSchema(err) {
			return nil, nil
		}
		return nil, err
	}
	return withKind(rows, kind), nil
}

func withKind(rows []model.SourcingMechanism, kind model.SourcingKind) []model.SourcingMechanism {
	for i := range rows {
		rows[i].Kind = kind
	}
	return rows
}
