package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineSource tags which storage shape a package's priced lines were resolved from.
type LineSource string

const (
	LineSourceNone     LineSource = ""
	LineSourceSnapshot LineSource = "snapshot"
	LineSourceLegacy   LineSource = "legacy"
)

// PackageLineItem is a priced line snapshot owned by the package.
type PackageLineItem struct {
	ID          uuid.UUID
	PackageID   uuid.UUID
	Description string
	Qty         decimal.Decimal
	Rate        decimal.Decimal
	Total       decimal.Decimal
	CostCode    string
}

// LegacyLineRow is a package_items row joined to the shared budget line it points at.
type LegacyLineRow struct {
	BudgetLineID uuid.UUID
	Description  string
	Qty          decimal.NullDecimal
	Rate         decimal.NullDecimal
	Amount       decimal.NullDecimal
	CostCode     string
}

// Line is the canonical priced line. Exactly one of PackageLineID and BudgetLineID is set,
// matching Source.
type Line struct {
	ID            uuid.UUID       `json:"id"`
	Source        LineSource      `json:"source"`
	PackageLineID *uuid.UUID      `json:"packageLineId,omitempty"`
	BudgetLineID  *uuid.UUID      `json:"budgetLineId,omitempty"`
	Description   string          `json:"description"`
	Qty           decimal.Decimal `json:"qty"`
	Rate          decimal.Decimal `json:"rate"`
	Total         decimal.Decimal `json:"total"`
	CostCode      string          `json:"costCode"`
}

// LineSet is the resolved set of lines for one package, all from a single source.
type LineSet struct {
	Source LineSource `json:"source"`
	Lines  []Line     `json:"lines"`
}

func (s LineSet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Total)
	}
	return total
}

// LineConflict is an existing contract line already committing one of the requested lines.
type LineConflict struct {
	ContractID    uuid.UUID  `json:"contractId"`
	SupplierID    uuid.UUID  `json:"supplierId"`
	SupplierName  string     `json:"supplierName"`
	LineID        uuid.UUID  `json:"lineId"`
	PackageLineID *uuid.UUID `json:"packageLineId,omitempty"`
	BudgetLineID  *uuid.UUID `json:"budgetLineId,omitempty"`
}
