package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/config"
	"github.com/nurpe/tender-award/internal/model"
	"github.com/nurpe/tender-award/internal/repository"
)

type ProjectReader interface {
	GetProject(ctx context.Context, tenantID, id uuid.UUID) (*model.Project, error)
}

type AwardStore interface {
	CommitAward(ctx context.Context, commit model.AwardCommit) (*model.AwardCommit, error)
}

type AwardService struct {
	packages   PackageReader
	projects   ProjectReader
	suppliers  SupplierReader
	compliance *ComplianceService
	sourcing   *SourcingService
	lines      *LineResolver
	store      AwardStore
	audit      auditor
	log        zerolog.Logger
	cfg        config.AwardConfig
}

func NewAwardService(
	packages PackageReader,
	projects ProjectReader,
	suppliers SupplierReader,
	compliance *ComplianceService,
	sourcing *SourcingService,
	lines *LineResolver,
	store AwardStore,
	audit AuditSink,
	log zerolog.Logger,
	cfg config.AwardConfig,
) *AwardService {
	return &AwardService{
		packages:   packages,
		projects:   projects,
		suppliers:  suppliers,
		compliance: compliance,
		sourcing:   sourcing,
		lines:      lines,
		store:      store,
		audit:      auditor{sink: audit, log: log},
		log:        log,
		cfg:        cfg,
	}
}

type AwardInput struct {
	Principal       model.Principal
	AwardType       model.AwardType
	ProjectID       uuid.UUID
	PackageID       uuid.UUID
	SupplierID      uuid.UUID
	SelectedLineIDs []uuid.UUID
	AwardValue      decimal.NullDecimal
	Override        bool
	OverrideReason  string
	Currency        string
	Title           string
	StartDate       *time.Time
	EndDate         *time.Time
}

type AwardResult struct {
	AwardID         uuid.UUID       `json:"awardId"`
	ContractID      uuid.UUID       `json:"contractId"`
	Committed       bool            `json:"committed"`
	Decision        string          `json:"decision"`
	ContractValue   decimal.Decimal `json:"contractValue"`
	LinesTotal      decimal.Decimal `json:"linesTotal"`
	LinesReconciled bool            `json:"linesReconciled"`
	LineCount       int             `json:"lineCount"`
	OverrideID      *uuid.UUID      `json:"overrideId,omitempty"`
}

// Award validates preconditions outside any transaction, then commits the decision, contract,
// contract lines and package transition atomically. The commit re-checks the package guard, so
// validation races fail cleanly with ALREADY_AWARDED.
func (s *AwardService) Award(ctx context.Context, input AwardInput) (*AwardResult, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	tenantID := input.Principal.TenantID

	pkg, project, supplier, err := s.resolveParties(ctx, input)
	if err != nil {
		return nil, err
	}
	if pkg.IsAwarded() {
		return nil, conflict(CodeAlreadyAwarded, "package is already awarded")
	}

	commitments, err := s.sourcing.CheckCommitments(ctx, tenantID, pkg.ID)
	if err != nil {
		return nil, err
	}
	if commitments.Sourced {
		e := conflict(CodeAlreadySourced, "package is already committed to another sourcing mechanism")
		e.Mechanisms = commitments.Mechanisms
		return nil, e
	}

	compliance, err := s.compliance.CheckSupplierCompliance(ctx, tenantID, supplier.ID)
	if err != nil {
		return nil, err
	}
	overridden := false
	if !compliance.OK {
		if !input.Override {
			e := conflict(CodeComplianceMissing, "supplier is not compliant: "+strings.Join(compliance.Missing, ", "))
			e.Missing = compliance.Missing
			return nil, e
		}
		if !input.Principal.HasAnyRole(s.cfg.OverrideRoles...) {
			return nil, newError(ErrPermissionDenied, CodeOverrideNotPermitted, "not allowed to override compliance")
		}
		overridden = true
	}

	set, err := s.lines.Resolve(ctx, tenantID, pkg.ID)
	if err != nil {
		return nil, err
	}
	if len(set.Lines) == 0 {
		return nil, invalidInput(CodeNoPackageLines, "package has no priced lines")
	}

	selected, missingIDs := SelectLines(set, input.SelectedLineIDs)
	if len(missingIDs) > 0 {
		e := invalidInput(CodeLineIDsInvalid, fmt.Sprintf("%d selected line id(s) do not belong to the package", len(missingIDs)))
		e.MissingIDs = missingIDs
		return nil, e
	}

	conflicts, err := s.lines.FindLineConflicts(ctx, tenantID, selected)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, s.linesConflict(input.AwardType, set.Source, conflicts)
	}

	linesTotal := SumLines(selected)
	value := linesTotal
	if input.AwardValue.Valid {
		value = input.AwardValue.Decimal
	}

	commit := s.buildCommit(input, pkg, project, supplier, selected, value, compliance, overridden)
	saved, err := s.store.CommitAward(ctx, commit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPackageAlreadyAwarded):
			return nil, conflict(CodeAlreadyAwarded, "package is already awarded")
		case errors.Is(err, repository.ErrLineAlreadyContracted):
			latest, lookupErr := s.lines.FindLineConflicts(ctx, tenantID, selected)
			if lookupErr != nil {
				s.log.Warn().Err(lookupErr).Str("package_id", pkg.ID.String()).Msg("conflict lookup after commit failure")
			}
			return nil, s.linesConflict(input.AwardType, set.Source, latest)
		}
		s.log.Error().
			Err(err).
			Str("tenant_id", tenantID.String()).
			Str("package_id", pkg.ID.String()).
			Str("supplier_id", supplier.ID.String()).
			Msg("award commit failed")
		return nil, err
	}

	s.recordAwardAudit(ctx, input.Principal, saved)

	reconciled := value.Sub(linesTotal).Abs().LessThanOrEqual(s.cfg.ValueTolerance)
	if !reconciled {
		s.log.Info().
			Str("contract_id", saved.Contract.ID.String()).
			Str("value", value.StringFixed(2)).
			Str("lines_total", linesTotal.StringFixed(2)).
			Msg("contract value overrides line total")
	}

	result := &AwardResult{
		AwardID:         saved.Decision.ID,
		ContractID:      saved.Contract.ID,
		Committed:       true,
		Decision:        saved.Decision.Decision,
		ContractValue:   saved.Contract.Value,
		LinesTotal:      linesTotal,
		LinesReconciled: reconciled,
		LineCount:       len(saved.Lines),
	}
	if saved.Override != nil {
		id := saved.Override.ID
		result.OverrideID = &id
	}
	return result, nil
}

func (s *AwardService) validateInput(input AwardInput) error {
	if input.PackageID == uuid.Nil {
		return invalidInput(CodeInvalidInput, "packageId is required")
	}
	if input.SupplierID == uuid.Nil {
		return invalidInput(CodeInvalidInput, "supplierId is required")
	}
	if input.AwardType == model.AwardTypeTender && input.ProjectID == uuid.Nil {
		return invalidInput(CodeInvalidInput, "projectId is required")
	}
	reason := strings.TrimSpace(input.OverrideReason)
	if input.Override != (reason != "") {
		return invalidInput(CodeOverrideReasonRequired, "override and overrideReason must be supplied together")
	}
	if input.AwardType == model.AwardTypeDirect && !input.AwardValue.Valid {
		return invalidInput(CodeInvalidInput, "awardValue is required for a direct award")
	}
	if input.AwardValue.Valid && !input.AwardValue.Decimal.IsPositive() {
		return invalidInput(CodeInvalidInput, "awardValue must be positive")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return invalidInput(CodeInvalidInput, "endDate must not be before startDate")
	}
	if input.Currency != "" && len(strings.TrimSpace(input.Currency)) != 3 {
		return invalidInput(CodeInvalidInput, "currency must be a 3-letter code")
	}
	return nil
}

func (s *AwardService) resolveParties(ctx context.Context, input AwardInput) (*model.Package, *model.Project, *model.Supplier, error) {
	tenantID := input.Principal.TenantID

	pkg, err := s.packages.GetPackage(ctx, tenantID, input.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, notFound(CodePackageNotFound, "package not found")
		}
		return nil, nil, nil, err
	}
	if input.ProjectID != uuid.Nil && input.ProjectID != pkg.ProjectID {
		return nil, nil, nil, notFound(CodePackageNotFound, "package not found in project")
	}

	project, err := s.projects.GetProject(ctx, tenantID, pkg.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, notFound(CodeProjectNotFound, "project not found")
		}
		return nil, nil, nil, err
	}

	supplier, err := s.suppliers.GetSupplier(ctx, tenantID, input.SupplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, notFound(CodeSupplierNotFound, "supplier not found")
		}
		return nil, nil, nil, err
	}
	return pkg, project, supplier, nil
}

func (s *AwardService) linesConflict(awardType model.AwardType, source model.LineSource, conflicts []model.LineConflict) *Error {
	code := CodeLinesContracted
	if awardType == model.AwardTypeTender && source == model.LineSourceLegacy {
		code = CodeBudgetLinesContracted
	}
	e := conflict(code, "one or more lines are already committed to a contract")
	e.Conflicts = conflicts
	return e
}

func (s *AwardService) buildCommit(
	input AwardInput,
	pkg *model.Package,
	project *model.Project,
	supplier *model.Supplier,
	selected []model.Line,
	value decimal.Decimal,
	compliance *model.Compliance,
	overridden bool,
) model.AwardCommit {
	principal := input.Principal
	decision := model.AwardDecision{
		TenantID:   principal.TenantID,
		ProjectID:  project.ID,
		PackageID:  pkg.ID,
		SupplierID: supplier.ID,
		AwardType:  input.AwardType,
		Decision:   model.DecisionApproved,
		DecidedBy:  principal.UserID,
	}

	var override *model.ComplianceOverride
	if overridden {
		reason := strings.TrimSpace(input.OverrideReason)
		decision.Decision = model.DecisionApprovedWithOverride
		decision.OverrideReason = &reason
		override = &model.ComplianceOverride{
			TenantID:     principal.TenantID,
			SupplierID:   supplier.ID,
			PackageID:    pkg.ID,
			Reason:       reason,
			Missing:      compliance.Missing,
			AuthorizedBy: principal.UserID,
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = fmt.Sprintf("%s - %s", pkg.Name, supplier.Name)
	}

	lines := make([]model.ContractLineItem, 0, len(selected))
	for _, line := range selected {
		lines = append(lines, model.ContractLineItem{
			PackageLineID: line.PackageLineID,
			BudgetLineID:  line.BudgetLineID,
			Description:   line.Description,
			Qty:           line.Qty,
			Rate:          line.Rate,
			Total:         line.Total,
			CostCode:      line.CostCode,
		})
	}

	return model.AwardCommit{
		Override: override,
		Decision: decision,
		Contract: model.Contract{
			TenantID:   principal.TenantID,
			ProjectID:  project.ID,
			PackageID:  pkg.ID,
			SupplierID: supplier.ID,
			Title:      title,
			Value:      value,
			Currency:   currency,
			Status:     model.ContractStatusDraft,
			StartDate:  input.StartDate,
			EndDate:    input.EndDate,
			CreatedBy:  principal.UserID,
		},
		Lines: lines,
	}
}

func (s *AwardService) recordAwardAudit(ctx context.Context, principal model.Principal, saved *model.AwardCommit) {
	decision := saved.Decision
	contract := saved.Contract

	decisionPayload := map[string]any{
		"packageId":  decision.PackageID,
		"supplierId": decision.SupplierID,
		"awardType":  decision.AwardType,
		"decision":   decision.Decision,
	}
	if saved.Override != nil {
		decisionPayload["overrideId"] = saved.Override.ID
		decisionPayload["overrideReason"] = saved.Override.Reason
		decisionPayload["missing"] = saved.Override.Missing
	}

	s.audit.record(ctx, model.AuditEntry{
		TenantID:   principal.TenantID,
		UserID:     principal.UserID,
		EntityType: "award_decision",
		EntityID:   decision.ID,
		Action:     "created",
		Payload:    decisionPayload,
	})
	s.audit.record(ctx, model.AuditEntry{
		TenantID:   principal.TenantID,
		UserID:     principal.UserID,
		EntityType: "contract",
		EntityID:   contract.ID,
		Action:     "created_from_award",
		Payload: map[string]any{
			"awardId":   decision.ID,
			"value":     contract.Value.StringFixed(2),
			"currency":  contract.Currency,
			"lineCount": len(saved.Lines),
		},
	})
	s.audit.record(ctx, model.AuditEntry{
		TenantID:   principal.TenantID,
		UserID:     principal.UserID,
		EntityType: "package",
		EntityID:   contract.PackageID,
		Action:     "award_created",
		Payload: map[string]any{
			"supplierId": contract.SupplierID,
			"awardValue": contract.Value.StringFixed(2),
			"contractId": contract.ID,
		},
	})
}
