package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
	"github.com/nurpe/tender-award/internal/repository"
)

type TenderStore interface {
	CreateTender(ctx context.Context, tender model.Tender) (*model.Tender, error)
	CreateInvite(ctx context.Context, invite model.TenderInvite) (*model.TenderInvite, error)
	GetInvite(ctx context.Context, tenantID, packageID, supplierID uuid.UUID) (*model.TenderInvite, error)
	CreateSubmission(ctx context.Context, sub model.Submission, respondedAt time.Time) (*model.Submission, error)
}

// TenderService covers tender creation, supplier invitation and bid intake.
type TenderService struct {
	tenders   TenderStore
	packages  PackageReader
	suppliers SupplierReader
	sourcing  *SourcingService
	scoring   *ScoringService
	audit     auditor
	log       zerolog.Logger
	now       func() time.Time
}

func NewTenderService(
	tenders TenderStore,
	packages PackageReader,
	suppliers SupplierReader,
	sourcing *SourcingService,
	scoring *ScoringService,
	audit AuditSink,
	log zerolog.Logger,
) *TenderService {
	return &TenderService{
		tenders:   tenders,
		packages:  packages,
		suppliers: suppliers,
		sourcing:  sourcing,
		scoring:   scoring,
		audit:     auditor{sink: audit, log: log},
		log:       log,
		now:       time.Now,
	}
}

// CreateTender opens a tender when no other sourcing mechanism holds the package.
func (s *TenderService) CreateTender(ctx context.Context, principal model.Principal, packageID uuid.UUID, title string) (*model.Tender, error) {
	pkg, err := s.openPackage(ctx, principal.TenantID, packageID)
	if err != nil {
		return nil, err
	}

	check, err := s.sourcing.CheckSourcing(ctx, principal.TenantID, packageID)
	if err != nil {
		return nil, err
	}
	if check.Sourced {
		e := conflict(CodeAlreadySourced, "package already has an active sourcing mechanism")
		e.Mechanisms = check.Mechanisms
		return nil, e
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = pkg.Name
	}

	tender, err := s.tenders.CreateTender(ctx, model.Tender{
		TenantID:  principal.TenantID,
		PackageID: packageID,
		Title:     title,
		Status:    model.TenderStatusOpen,
		CreatedBy: principal.UserID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPackageAlreadySourced):
			return nil, conflict(CodeAlreadySourced, "package already has an active tender")
		case errors.Is(err, repository.ErrPackageAlreadyAwarded):
			return nil, conflict(CodeAlreadyAwarded, "package is already awarded")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, notFound(CodePackageNotFound, "package not found")
		}
		return nil, err
	}

	s.audit.record(ctx, model.AuditEntry{
		TenantID:   principal.TenantID,
		UserID:     principal.UserID,
		EntityType: "tender",
		EntityID:   tender.ID,
		Action:     "created",
		Payload:    map[string]any{"packageId": packageID, "title": tender.Title},
	})
	return tender, nil
}

type InviteSkip struct {
	SupplierID uuid.UUID `json:"supplierId"`
	Reason     string    `json:"reason"`
}

type InviteResult struct {
	Invited []model.TenderInvite `json:"invited"`
	Skipped []InviteSkip         `json:"skipped"`
}

// Invite creates one invite per supplier. Already-invited and unknown suppliers are skipped
// rather than failing the batch.
func (s *TenderService) Invite(ctx context.Context, principal model.Principal, packageID uuid.UUID, supplierIDs []uuid.UUID) (*InviteResult, error) {
	if len(supplierIDs) == 0 {
		return nil, invalidInput(CodeInvalidInput, "supplierIds must not be empty")
	}
	if _, err := s.openPackage(ctx, principal.TenantID, packageID); err != nil {
		return nil, err
	}

	result := &InviteResult{Invited: []model.TenderInvite{}, Skipped: []InviteSkip{}}
	seen := make(map[uuid.UUID]struct{}, len(supplierIDs))
	for _, supplierID := range supplierIDs {
		if _, dup := seen[supplierID]; dup {
			continue
		}
		seen[supplierID] = struct{}{}

		if _, err := s.suppliers.GetSupplier(ctx, principal.TenantID, supplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Skipped = append(result.Skipped, InviteSkip{SupplierID: supplierID, Reason: "supplier_not_found"})
				continue
			}
			return nil, err
		}

		invite, err := s.tenders.CreateInvite(ctx, model.TenderInvite{
			TenantID:   principal.TenantID,
			PackageID:  packageID,
			SupplierID: supplierID,
		})
		if err != nil {
			if errors.Is(err, repository.ErrInviteExists) {
				result.Skipped = append(result.Skipped, InviteSkip{SupplierID: supplierID, Reason: "already_invited"})
				continue
			}
			return nil, err
		}
		result.Invited = append(result.Invited, *invite)
	}
	return result, nil
}

type SubmitBidInput struct {
	PackageID     uuid.UUID
	SupplierID    uuid.UUID
	Price         decimal.NullDecimal
	DurationWeeks *int
	Details       string
}

// SubmitBid accepts a bid from an invited supplier and re-scores the package when it is priced.
func (s *TenderService) SubmitBid(ctx context.Context, principal model.Principal, input SubmitBidInput) (*model.Submission, error) {
	if input.SupplierID == uuid.Nil {
		return nil, invalidInput(CodeInvalidInput, "supplierId is required")
	}
	if input.Price.Valid && !input.Price.Decimal.IsPositive() {
		return nil, invalidInput(CodeInvalidInput, "price must be positive")
	}
	if input.DurationWeeks != nil && *input.DurationWeeks < 0 {
		return nil, invalidInput(CodeInvalidInput, "durationWeeks must not be negative")
	}
	if _, err := s.openPackage(ctx, principal.TenantID, input.PackageID); err != nil {
		return nil, err
	}

	if _, err := s.tenders.GetInvite(ctx, principal.TenantID, input.PackageID, input.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, conflict(CodeNotInvited, "supplier was not invited to this package")
		}
		return nil, err
	}

	sub, err := s.tenders.CreateSubmission(ctx, model.Submission{
		TenantID:      principal.TenantID,
		PackageID:     input.PackageID,
		SupplierID:    input.SupplierID,
		Price:         input.Price,
		DurationWeeks: input.DurationWeeks,
		Details:       strings.TrimSpace(input.Details),
	}, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if sub.Price.Valid {
		ranking, err := s.scoring.RecomputePriceScores(ctx, principal.TenantID, input.PackageID)
		if err != nil {
			// the bid is stored; ranking can be refreshed through rescore
			s.log.Error().
				Err(err).
				Str("tenant_id", principal.TenantID.String()).
				Str("package_id", input.PackageID.String()).
				Msg("price score recompute failed")
		} else if i := indexOfSubmission(ranking, sub.ID); i >= 0 {
			sub = &ranking[i]
		}
	}
	return sub, nil
}

func (s *TenderService) openPackage(ctx context.Context, tenantID, packageID uuid.UUID) (*model.Package, error) {
	pkg, err := s.packages.GetPackage(ctx, tenantID, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodePackageNotFound, "package not found")
		}
		return nil, err
	}
	if pkg.IsAwarded() {
		return nil, conflict(CodeAlreadyAwarded, "package is already awarded")
	}
	return pkg, nil
}
