package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/tender-award/internal/model"
)

func TestGenerate(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	doc := model.ContractDocument{
		Contract: model.Contract{
			ID:        uuid.New(),
			Title:     "Groundworks - Acme Civils",
			Value:     decimal.RequireFromString("100.00"),
			Currency:  "GBP",
			Status:    model.ContractStatusDraft,
			StartDate: &start,
			CreatedAt: time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		},
		Lines: []model.ContractLineItem{
			{CostCode: "01-100", Description: "Excavation", Qty: decimal.NewFromInt(1), Rate: decimal.RequireFromString("33.33"), Total: decimal.RequireFromString("33.33")},
			{CostCode: "01-200", Description: "Müll removal and disposal of spoil off site to licensed tip", Qty: decimal.NewFromInt(1), Rate: decimal.RequireFromString("66.67"), Total: decimal.RequireFromString("66.67")},
		},
		SupplierName: "Acme Civils",
		PackageName:  "Groundworks",
		ProjectName:  "Riverside Block A",
	}

	content, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("  short ", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestFormatPeriod(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "", formatPeriod(nil, nil))
	assert.Equal(t, "01.04.2026 to -", formatPeriod(&start, nil))
}
