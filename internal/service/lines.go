package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

type LineStore interface {
	ListSnapshotLines(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.PackageLineItem, error)
	ListLegacyLines(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.LegacyLineRow, error)
	FindContractedLines(ctx context.Context, tenantID uuid.UUID, packageLineIDs, budgetLineIDs []uuid.UUID) ([]model.LineConflict, error)
}

// LineResolver is the only place that knows about the two line storage shapes.
type LineResolver struct {
	store    LineStore
	packages PackageReader
}

func NewLineResolver(store LineStore, packages PackageReader) *LineResolver {
	return &LineResolver{store: store, packages: packages}
}

// PackageLines resolves the lines of a package that must exist in the caller's tenant.
func (r *LineResolver) PackageLines(ctx context.Context, tenantID, packageID uuid.UUID) (model.LineSet, error) {
	if _, err := r.packages.GetPackage(ctx, tenantID, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.LineSet{}, notFound(CodePackageNotFound, "package not found")
		}
		return model.LineSet{}, err
	}
	return r.Resolve(ctx, tenantID, packageID)
}

// Resolve returns the package's priced lines. Snapshot lines win; the legacy budget-line join is
// read only when the package has no snapshot.
func (r *LineResolver) Resolve(ctx context.Context, tenantID, packageID uuid.UUID) (model.LineSet, error) {
	snapshot, err := r.store.ListSnapshotLines(ctx, tenantID, packageID)
	if err != nil {
		return model.LineSet{}, err
	}
	if len(snapshot) > 0 {
		return linesFromSnapshot(snapshot), nil
	}

	legacy, err := r.store.ListLegacyLines(ctx, tenantID, packageID)
	if err != nil {
		return model.LineSet{}, err
	}
	if len(legacy) > 0 {
		return linesFromLegacy(legacy), nil
	}
	return model.LineSet{Source: model.LineSourceNone, Lines: []model.Line{}}, nil
}

// FindLineConflicts returns contract lines, under any contract, already holding one of lines.
func (r *LineResolver) FindLineConflicts(ctx context.Context, tenantID uuid.UUID, lines []model.Line) ([]model.LineConflict, error) {
	var packageLineIDs, budgetLineIDs []uuid.UUID
	for _, line := range lines {
		if line.PackageLineID != nil {
			packageLineIDs = append(packageLineIDs, *line.PackageLineID)
		}
		if line.BudgetLineID != nil {
			budgetLineIDs = append(budgetLineIDs, *line.BudgetLineID)
		}
	}
	if len(packageLineIDs) == 0 && len(budgetLineIDs) == 0 {
		return nil, nil
	}
	return r.store.FindContractedLines(ctx, tenantID, packageLineIDs, budgetLineIDs)
}

// SelectLines keeps the lines named by ids, in resolved order. An empty ids list selects every
// line. Unknown ids are returned in request order.
func SelectLines(set model.LineSet, ids []uuid.UUID) ([]model.Line, []uuid.UUID) {
	if len(ids) == 0 {
		return set.Lines, nil
	}

	wanted := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	known := make(map[uuid.UUID]struct{}, len(set.Lines))
	selected := make([]model.Line, 0, len(ids))
	for _, line := range set.Lines {
		known[line.ID] = struct{}{}
		if _, ok := wanted[line.ID]; ok {
			selected = append(selected, line)
		}
	}

	var missing []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return selected, missing
}

// SumLines adds line totals exactly.
func SumLines(lines []model.Line) decimal.Decimal {
	return model.LineSet{Lines: lines}.Total()
}

func linesFromSnapshot(rows []model.PackageLineItem) model.LineSet {
	lines := make([]model.Line, 0, len(rows))
	for _, row := range rows {
		id := row.ID
		lines = append(lines, model.Line{
			ID:            id,
			Source:        model.LineSourceSnapshot,
			PackageLineID: &id,
			Description:   row.Description,
			Qty:           row.Qty,
			Rate:          row.Rate,
			Total:         row.Total,
			CostCode:      row.CostCode,
		})
	}
	return model.LineSet{Source: model.LineSourceSnapshot, Lines: lines}
}

func linesFromLegacy(rows []model.LegacyLineRow) model.LineSet {
	lines := make([]model.Line, 0, len(rows))
	for _, row := range rows {
		id := row.BudgetLineID
		lines = append(lines, model.Line{
			ID:           id,
			Source:       model.LineSourceLegacy,
			BudgetLineID: &id,
			Description:  row.Description,
			Qty:          valueOrZero(row.Qty),
			Rate:         valueOrZero(row.Rate),
			Total:        legacyTotal(row),
			CostCode:     row.CostCode,
		})
	}
	return model.LineSet{Source: model.LineSourceLegacy, Lines: lines}
}

// legacyTotal is amount when present, else qty*rate rounded to cents, else zero.
func legacyTotal(row model.LegacyLineRow) decimal.Decimal {
	if row.Amount.Valid {
		return row.Amount.Decimal
	}
	if row.Qty.Valid && row.Rate.Valid {
		return row.Qty.Decimal.Mul(row.Rate.Decimal).Round(2)
	}
	return decimal.Zero
}

func valueOrZero(value decimal.NullDecimal) decimal.Decimal {
	if value.Valid {
		return value.Decimal
	}
	return decimal.Zero
}
