package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

// SourcingStore looks up active commitments per mechanism. Optional mechanisms return an empty
// result when their tables are absent.
type SourcingStore interface {
	ActiveTenders(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error)
	ActiveContracts(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error)
	ActiveDirectAwards(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error)
	ActiveInternalAssignments(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error)
}

type sourcingLookup func(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.SourcingMechanism, error)

type SourcingCheck struct {
	Sourced    bool                      `json:"sourced"`
	Mechanisms []model.SourcingMechanism `json:"mechanisms"`
}

type SourcingService struct {
	store    SourcingStore
	packages PackageReader
}

func NewSourcingService(store SourcingStore, packages PackageReader) *SourcingService {
	return &SourcingService{store: store, packages: packages}
}

// IsPackageSourced reports whether any sourcing mechanism is active for the package.
func (s *SourcingService) IsPackageSourced(ctx context.Context, tenantID, packageID uuid.UUID) (bool, error) {
	check, err := s.CheckSourcing(ctx, tenantID, packageID)
	if err != nil {
		return false, err
	}
	return check.Sourced, nil
}

// CheckSourcing reports every active mechanism for a package of the caller's tenant.
func (s *SourcingService) CheckSourcing(ctx context.Context, tenantID, packageID uuid.UUID) (*SourcingCheck, error) {
	if _, err := s.packages.GetPackage(ctx, tenantID, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodePackageNotFound, "package not found")
		}
		return nil, err
	}
	return s.check(ctx, tenantID, packageID, true)
}

// CheckCommitments ignores tenders: an open tender is the mechanism an award concludes.
func (s *SourcingService) CheckCommitments(ctx context.Context, tenantID, packageID uuid.UUID) (*SourcingCheck, error) {
	return s.check(ctx, tenantID, packageID, false)
}

func (s *SourcingService) check(ctx context.Context, tenantID, packageID uuid.UUID, includeTenders bool) (*SourcingCheck, error) {
	lookups := []sourcingLookup{
		s.store.ActiveContracts,
		s.store.ActiveDirectAwards,
		s.store.ActiveInternalAssignments,
	}
	if includeTenders {
		lookups = append([]sourcingLookup{s.store.ActiveTenders}, lookups...)
	}

	mechanisms := make([]model.SourcingMechanism, 0)
	for _, lookup := range lookups {
		found, err := lookup(ctx, tenantID, packageID)
		if err != nil {
			return nil, err
		}
		mechanisms = append(mechanisms, found...)
	}
	return &SourcingCheck{Sourced: len(mechanisms) > 0, Mechanisms: mechanisms}, nil
}
