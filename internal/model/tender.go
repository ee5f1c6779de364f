package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TenderStatus string

const (
	TenderStatusOpen      TenderStatus = "open"
	TenderStatusClosed    TenderStatus = "closed"
	TenderStatusCancelled TenderStatus = "cancelled"
)

type Tender struct {
	ID        uuid.UUID    `json:"id"`
	TenantID  uuid.UUID    `json:"-"`
	PackageID uuid.UUID    `json:"packageId"`
	Title     string       `json:"title"`
	Status    TenderStatus `json:"status"`
	CreatedBy uuid.UUID    `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
}

type InviteStatus string

const (
	InviteStatusInvited   InviteStatus = "Invited"
	InviteStatusSubmitted InviteStatus = "Submitted"
)

type TenderInvite struct {
	ID          uuid.UUID    `json:"id"`
	TenantID    uuid.UUID    `json:"-"`
	PackageID   uuid.UUID    `json:"packageId"`
	SupplierID  uuid.UUID    `json:"supplierId"`
	Status      InviteStatus `json:"status"`
	InvitedAt   time.Time    `json:"invitedAt"`
	RespondedAt *time.Time   `json:"respondedAt"`
}

type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusAwarded   SubmissionStatus = "awarded"
)

type Submission struct {
	ID              uuid.UUID           `json:"id"`
	TenantID        uuid.UUID           `json:"-"`
	PackageID       uuid.UUID           `json:"packageId"`
	SupplierID      uuid.UUID           `json:"supplierId"`
	SupplierName    string              `json:"supplierName"`
	Price           decimal.NullDecimal `json:"price"`
	DurationWeeks   *int                `json:"durationWeeks"`
	Details         string              `json:"details"`
	PriceScore      decimal.NullDecimal `json:"priceScore"`
	TechnicalScore  decimal.NullDecimal `json:"technicalScore"`
	OverallScore    decimal.NullDecimal `json:"overallScore"`
	ScoreOverridden bool                `json:"scoreOverridden"`
	Rank            *int                `json:"rank"`
	Status          SubmissionStatus    `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
}
