package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AwardType string

const (
	AwardTypeDirect AwardType = "direct"
	AwardTypeTender AwardType = "tender"
)

const (
	DecisionApproved             = "approved"
	DecisionApprovedWithOverride = "approved_with_override"
)

// AwardDecision is append-only.
type AwardDecision struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ProjectID      uuid.UUID
	PackageID      uuid.UUID
	SupplierID     uuid.UUID
	AwardType      AwardType
	Decision       string
	OverrideReason *string
	DecidedBy      uuid.UUID
	DecidedAt      time.Time
}

// ComplianceOverride is append-only.
type ComplianceOverride struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	SupplierID   uuid.UUID
	PackageID    uuid.UUID
	Reason       string
	Missing      []string
	AuthorizedBy uuid.UUID
	CreatedAt    time.Time
}

type ContractStatus string

const (
	ContractStatusDraft  ContractStatus = "draft"
	ContractStatusIssued ContractStatus = "issued"
	ContractStatusSigned ContractStatus = "signed"
)

type Contract struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ProjectID       uuid.UUID
	PackageID       uuid.UUID
	SupplierID      uuid.UUID
	AwardDecisionID uuid.UUID
	Title           string
	Value           decimal.Decimal
	Currency        string
	Status          ContractStatus
	StartDate       *time.Time
	EndDate         *time.Time
	CreatedBy       uuid.UUID
	CreatedAt       time.Time
}

type ContractLineItem struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	ContractID    uuid.UUID
	PackageLineID *uuid.UUID
	BudgetLineID  *uuid.UUID
	Description   string
	Qty           decimal.Decimal
	Rate          decimal.Decimal
	Total         decimal.Decimal
	CostCode      string
}

// ContractDocument is everything the award letter renders.
type ContractDocument struct {
	Contract     Contract
	Lines        []ContractLineItem
	SupplierName string
	PackageName  string
	ProjectName  string
}

// AwardCommit is the complete set of writes for one award, applied atomically.
type AwardCommit struct {
	Override *ComplianceOverride
	Decision AwardDecision
	Contract Contract
	Lines    []ContractLineItem
}

type AuditEntry struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Action     string
	Payload    map[string]any
	CreatedAt  time.Time
}
