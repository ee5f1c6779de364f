//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/config"
	"github.com/nurpe/tender-award/internal/db"
	"github.com/nurpe/tender-award/internal/model"
)

var (
	containerOnce sync.Once
	container     *tcpostgres.PostgresContainer
	sharedDB      *gorm.DB
	containerErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if container != nil {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	os.Exit(code)
}

// integrationDB starts one migrated postgres container for the whole package and skips without Docker.
func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	containerOnce.Do(func() {
		ctx := context.Background()
		container, containerErr = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("tender_award"),
			tcpostgres.WithUsername("user"),
			tcpostgres.WithPassword("password"),
			tcpostgres.BasicWaitStrategies(),
		)
		if containerErr != nil {
			return
		}

		var dsn string
		dsn, containerErr = container.ConnectionString(ctx, "sslmode=disable")
		if containerErr != nil {
			return
		}
		sharedDB, containerErr = db.New(&config.Config{
			Environment: "test",
			DB: config.DBConfig{
				DSN:             dsn,
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: time.Minute,
				AutoMigrate:     true,
			},
		}, zerolog.Nop())
	})
	if containerErr != nil {
		t.Skipf("postgres container unavailable: %v", containerErr)
	}
	return sharedDB
}

type seed struct {
	tenantID  uuid.UUID
	userID    uuid.UUID
	projectID uuid.UUID
	supplier  uuid.UUID
}

func newSeed(t *testing.T, database *gorm.DB) seed {
	t.Helper()
	s := seed{tenantID: uuid.New(), userID: uuid.New(), projectID: uuid.New(), supplier: uuid.New()}
	require.NoError(t, database.Exec(
		`INSERT INTO projects (id, tenant_id, name) VALUES (?, ?, ?)`,
		s.projectID, s.tenantID, "Riverside",
	).Error)
	require.NoError(t, database.Exec(
		`INSERT INTO suppliers (id, tenant_id, name, hs_cert_valid, accreditation_valid) VALUES (?, ?, ?, TRUE, TRUE)`,
		s.supplier, s.tenantID, "Acme Civils",
	).Error)
	return s
}

func (s seed) addPackage(t *testing.T, database *gorm.DB, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, database.Exec(
		`INSERT INTO packages (id, tenant_id, project_id, name) VALUES (?, ?, ?, ?)`,
		id, s.tenantID, s.projectID, name,
	).Error)
	return id
}

func (s seed) addPackageLine(t *testing.T, database *gorm.DB, packageID uuid.UUID) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, database.Exec(
		`INSERT INTO package_line_items (id, tenant_id, package_id, description, qty, rate, total, cost_code)
		 VALUES (?, ?, ?, 'Excavation', 10, 12.5, 125, 'C-100')`,
		id, s.tenantID, packageID,
	).Error)
	return id
}

func (s seed) addBudgetLine(t *testing.T, database *gorm.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, database.Exec(
		`INSERT INTO budget_lines (id, tenant_id, project_id, description, qty, rate, amount, cost_code)
		 VALUES (?, ?, ?, 'Drainage', 4, 50, 200, 'C-200')`,
		id, s.tenantID, s.projectID,
	).Error)
	return id
}

func (s seed) commit(packageID uuid.UUID, lines ...model.ContractLineItem) model.AwardCommit {
	value := decimal.Zero
	for _, line := range lines {
		value = value.Add(line.Total)
	}
	return model.AwardCommit{
		Decision: model.AwardDecision{
			TenantID:   s.tenantID,
			ProjectID:  s.projectID,
			PackageID:  packageID,
			SupplierID: s.supplier,
			AwardType:  model.AwardTypeDirect,
			Decision:   model.DecisionApproved,
			DecidedBy:  s.userID,
		},
		Contract: model.Contract{
			TenantID:   s.tenantID,
			ProjectID:  s.projectID,
			PackageID:  packageID,
			SupplierID: s.supplier,
			Title:      "Award",
			Value:      value,
			Currency:   "GBP",
			Status:     model.ContractStatusDraft,
			CreatedBy:  s.userID,
		},
		Lines: lines,
	}
}

func packageLine(id uuid.UUID) model.ContractLineItem {
	return model.ContractLineItem{PackageLineID: &id, Description: "Excavation", Qty: decimal.NewFromInt(10), Rate: decimal.RequireFromString("12.5"), Total: decimal.NewFromInt(125)}
}

func budgetLine(id uuid.UUID) model.ContractLineItem {
	return model.ContractLineItem{BudgetLineID: &id, Description: "Drainage", Qty: decimal.NewFromInt(4), Rate: decimal.NewFromInt(50), Total: decimal.NewFromInt(200)}
}

func countRows(t *testing.T, database *gorm.DB, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.Raw(query, args...).Scan(&n).Error)
	return n
}

func TestCommitAwardGuardRejectsSecondAward(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	pkg := s.addPackage(t, database, "Groundworks")
	line := s.addPackageLine(t, database, pkg)
	repo := NewAwardRepository(database)

	first, err := repo.CommitAward(ctx, s.commit(pkg, packageLine(line)))
	require.NoError(t, err)
	assert.Equal(t, first.Decision.ID, first.Contract.AwardDecisionID)

	_, err = repo.CommitAward(ctx, s.commit(pkg))
	assert.ErrorIs(t, err, ErrPackageAlreadyAwarded)

	assert.EqualValues(t, 1, countRows(t, database, `SELECT COUNT(*) FROM contracts WHERE package_id = ?`, pkg))
	assert.EqualValues(t, 1, countRows(t, database, `SELECT COUNT(*) FROM award_decisions WHERE package_id = ?`, pkg))

	pkgRepo := NewPackageRepository(database)
	got, err := pkgRepo.GetPackage(ctx, s.tenantID, pkg)
	require.NoError(t, err)
	require.NotNil(t, got.AwardSupplierID)
	assert.Equal(t, s.supplier, *got.AwardSupplierID)
	assert.Equal(t, model.PackageStatusAwarded, got.Status)
}

func TestCommitAwardRejectsContractedLines(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	repo := NewAwardRepository(database)

	tests := []struct {
		name string
		line func(t *testing.T, s seed, pkg uuid.UUID) model.ContractLineItem
	}{
		{"package line", func(t *testing.T, s seed, pkg uuid.UUID) model.ContractLineItem {
			return packageLine(s.addPackageLine(t, database, pkg))
		}},
		{"budget line", func(t *testing.T, s seed, _ uuid.UUID) model.ContractLineItem {
			return budgetLine(s.addBudgetLine(t, database))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSeed(t, database)
			first := s.addPackage(t, database, "Groundworks")
			second := s.addPackage(t, database, "Groundworks phase 2")
			line := tt.line(t, s, first)

			_, err := repo.CommitAward(ctx, s.commit(first, line))
			require.NoError(t, err)

			line.ID = uuid.Nil
			_, err = repo.CommitAward(ctx, s.commit(second, line))
			assert.ErrorIs(t, err, ErrLineAlreadyContracted)

			// the package claim and the contract roll back with the rejected line
			got, err := NewPackageRepository(database).GetPackage(ctx, s.tenantID, second)
			require.NoError(t, err)
			assert.Nil(t, got.AwardSupplierID)
			assert.EqualValues(t, 0, countRows(t, database, `SELECT COUNT(*) FROM contracts WHERE package_id = ?`, second))
			assert.EqualValues(t, 0, countRows(t, database, `SELECT COUNT(*) FROM award_decisions WHERE package_id = ?`, second))
		})
	}
}

func TestCreateTenderConstraints(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	repo := NewTenderRepository(database)

	tender := func(packageID uuid.UUID) model.Tender {
		return model.Tender{TenantID: s.tenantID, PackageID: packageID, Title: "Groundworks", Status: model.TenderStatusOpen, CreatedBy: s.userID}
	}

	t.Run("second active tender", func(t *testing.T) {
		pkg := s.addPackage(t, database, "Groundworks")
		_, err := repo.CreateTender(ctx, tender(pkg))
		require.NoError(t, err)

		_, err = repo.CreateTender(ctx, tender(pkg))
		assert.ErrorIs(t, err, ErrPackageAlreadySourced)
		assert.EqualValues(t, 1, countRows(t, database, `SELECT COUNT(*) FROM tenders WHERE package_id = ?`, pkg))
	})

	t.Run("cancelled tender frees the package", func(t *testing.T) {
		pkg := s.addPackage(t, database, "Roofing")
		created, err := repo.CreateTender(ctx, tender(pkg))
		require.NoError(t, err)
		require.NoError(t, database.Exec(`UPDATE tenders SET status = 'cancelled' WHERE id = ?`, created.ID).Error)

		_, err = repo.CreateTender(ctx, tender(pkg))
		assert.NoError(t, err)
	})

	t.Run("awarded package", func(t *testing.T) {
		pkg := s.addPackage(t, database, "Scaffolding")
		_, err := NewAwardRepository(database).CommitAward(ctx, s.commit(pkg))
		require.NoError(t, err)

		_, err = repo.CreateTender(ctx, tender(pkg))
		assert.ErrorIs(t, err, ErrPackageAlreadyAwarded)
		assert.EqualValues(t, 0, countRows(t, database, `SELECT COUNT(*) FROM tenders WHERE package_id = ?`, pkg))
	})

	t.Run("unknown package", func(t *testing.T) {
		_, err := repo.CreateTender(ctx, tender(uuid.New()))
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestOptionalSourcingTables(t *testing.T) {
	database := integrationDB(t)
	ctx := context.Background()
	s := newSeed(t, database)
	pkg := s.addPackage(t, database, "Groundworks")
	repo := NewSourcingRepository(database)

	require.NoError(t, database.Exec(
		`INSERT INTO direct_awards (tenant_id, package_id, supplier_id, status) VALUES (?, ?, ?, 'draft'), (?, ?, ?, 'Cancelled')`,
		s.tenantID, pkg, s.supplier, s.tenantID, pkg, s.supplier,
	).Error)
	require.NoError(t, database.Exec(
		`INSERT INTO internal_resource_assignments (tenant_id, package_id, team_name) VALUES (?, ?, 'In-house civils')`,
		s.tenantID, pkg,
	).Error)

	awards, err := repo.ActiveDirectAwards(ctx, s.tenantID, pkg)
	require.NoError(t, err)
	require.Len(t, awards, 1)
	assert.Equal(t, model.SourcingKindDirectAward, awards[0].Kind)

	assignments, err := repo.ActiveInternalAssignments(ctx, s.tenantID, pkg)
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	t.Run("missing table", func(t *testing.T) {
		require.NoError(t, database.Exec(`ALTER TABLE direct_awards RENAME TO direct_awards_parked`).Error)
		t.Cleanup(func() {
			require.NoError(t, database.Exec(`ALTER TABLE direct_awards_parked RENAME TO direct_awards`).Error)
		})

		awards, err := repo.ActiveDirectAwards(ctx, s.tenantID, pkg)
		assert.NoError(t, err)
		assert.Empty(t, awards)
	})

	t.Run("missing column", func(t *testing.T) {
		require.NoError(t, database.Exec(`ALTER TABLE internal_resource_assignments RENAME COLUMN status TO state`).Error)
		t.Cleanup(func() {
			require.NoError(t, database.Exec(`ALTER TABLE internal_resource_assignments RENAME COLUMN state TO status`).Error)
		})

		assignments, err := repo.ActiveInternalAssignments(ctx, s.tenantID, pkg)
		assert.NoError(t, err)
		assert.Empty(t, assignments)
	})

	t.Run("other errors still surface", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.ActiveDirectAwards(cancelled, s.tenantID, pkg)
		assert.Error(t, err)
	})
}
