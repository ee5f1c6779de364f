package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PackageStatus string

const (
	PackageStatusDraft   PackageStatus = "Draft"
	PackageStatusTender  PackageStatus = "Tender"
	PackageStatusAwarded PackageStatus = "Awarded"
)

type Project struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Name     string
	Code     string
}

// Package is a scope of work under a project. A non-nil AwardSupplierID marks it awarded.
type Package struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	ProjectID       uuid.UUID
	Name            string
	Status          PackageStatus
	AwardSupplierID *uuid.UUID
	AwardValue      decimal.NullDecimal
	CreatedAt       time.Time
}

func (p Package) IsAwarded() bool {
	return p.AwardSupplierID != nil
}

type Supplier struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Name               string
	InsuranceExpiresAt *time.Time
	HSCertValid        bool
	AccreditationValid bool
}
