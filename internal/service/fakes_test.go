package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/config"
	"github.com/nurpe/tender-award/internal/model"
	"github.com/nurpe/tender-award/internal/repository"
)

type inviteKey struct {
	packageID  uuid.UUID
	supplierID uuid.UUID
}

// memStore is an in-memory stand-in for every repository the services depend on.
type memStore struct {
	packages    map[uuid.UUID]model.Package
	projects    map[uuid.UUID]model.Project
	suppliers   map[uuid.UUID]model.Supplier
	tenders     []model.Tender
	invites     map[inviteKey]model.TenderInvite
	submissions []model.Submission
	snapshot    map[uuid.UUID][]model.PackageLineItem
	legacy      map[uuid.UUID][]model.LegacyLineRow
	contracted  []model.LineConflict
	mechanisms  map[model.SourcingKind][]model.SourcingMechanism
	commits     []model.AwardCommit
	audits      []model.AuditEntry
	documents   map[uuid.UUID]model.ContractDocument

	saveCalls  int
	listErr    error
	saveErr    error
	commitErr  error
	auditErr   error
	sourceErr  error
	commitHook func()
}

func newMemStore() *memStore {
	return &memStore{
		packages:   map[uuid.UUID]model.Package{},
		projects:   map[uuid.UUID]model.Project{},
		suppliers:  map[uuid.UUID]model.Supplier{},
		invites:    map[inviteKey]model.TenderInvite{},
		snapshot:   map[uuid.UUID][]model.PackageLineItem{},
		legacy:     map[uuid.UUID][]model.LegacyLineRow{},
		mechanisms: map[model.SourcingKind][]model.SourcingMechanism{},
		documents:  map[uuid.UUID]model.ContractDocument{},
	}
}

func (m *memStore) GetPackage(_ context.Context, _, id uuid.UUID) (*model.Package, error) {
	pkg, ok := m.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &pkg, nil
}

func (m *memStore) GetProject(_ context.Context, _, id uuid.UUID) (*model.Project, error) {
	project, ok := m.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &project, nil
}

func (m *memStore) GetSupplier(_ context.Context, _, id uuid.UUID) (*model.Supplier, error) {
	supplier, ok := m.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &supplier, nil
}

func (m *memStore) CreateTender(_ context.Context, tender model.Tender) (*model.Tender, error) {
	tender.ID = uuid.New()
	tender.CreatedAt = time.Now().UTC()
	m.tenders = append(m.tenders, tender)
	return &tender, nil
}

func (m *memStore) CreateInvite(_ context.Context, invite model.TenderInvite) (*model.TenderInvite, error) {
	key := inviteKey{packageID: invite.PackageID, supplierID: invite.SupplierID}
	if _, ok := m.invites[key]; ok {
		return nil, repository.ErrInviteExists
	}
	invite.ID = uuid.New()
	invite.Status = model.InviteStatusInvited
	invite.InvitedAt = time.Now().UTC()
	m.invites[key] = invite
	return &invite, nil
}

func (m *memStore) GetInvite(_ context.Context, _, packageID, supplierID uuid.UUID) (*model.TenderInvite, error) {
	invite, ok := m.invites[inviteKey{packageID: packageID, supplierID: supplierID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &invite, nil
}

func (m *memStore) CreateSubmission(_ context.Context, sub model.Submission, respondedAt time.Time) (*model.Submission, error) {
	sub.ID = uuid.New()
	sub.Status = model.SubmissionStatusSubmitted
	sub.CreatedAt = respondedAt
	m.submissions = append(m.submissions, sub)

	key := inviteKey{packageID: sub.PackageID, supplierID: sub.SupplierID}
	invite := m.invites[key]
	invite.Status = model.InviteStatusSubmitted
	invite.RespondedAt = &respondedAt
	m.invites[key] = invite
	return &sub, nil
}

func (m *memStore) GetSubmission(_ context.Context, _, id uuid.UUID) (*model.Submission, error) {
	for _, sub := range m.submissions {
		if sub.ID == id {
			return &sub, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) ListSubmissions(_ context.Context, _, packageID uuid.UUID) ([]model.Submission, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.Submission, 0)
	for _, sub := range m.submissions {
		if sub.PackageID == packageID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *memStore) SaveScores(_ context.Context, _ uuid.UUID, subs []model.Submission) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, sub := range subs {
		for i := range m.submissions {
			if m.submissions[i].ID == sub.ID {
				m.submissions[i] = sub
			}
		}
	}
	return nil
}

func (m *memStore) ListSnapshotLines(_ context.Context, _, packageID uuid.UUID) ([]model.PackageLineItem, error) {
	return m.snapshot[packageID], nil
}

func (m *memStore) ListLegacyLines(_ context.Context, _, packageID uuid.UUID) ([]model.LegacyLineRow, error) {
	return m.legacy[packageID], nil
}

func (m *memStore) FindContractedLines(_ context.Context, _ uuid.UUID, packageLineIDs, budgetLineIDs []uuid.UUID) ([]model.LineConflict, error) {
	var out []model.LineConflict
	for _, c := range m.contracted {
		if c.PackageLineID != nil && containsID(packageLineIDs, *c.PackageLineID) {
			out = append(out, c)
			continue
		}
		if c.BudgetLineID != nil && containsID(budgetLineIDs, *c.BudgetLineID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) lookup(kind model.SourcingKind) ([]model.SourcingMechanism, error) {
	if m.sourceErr != nil {
		return nil, m.sourceErr
	}
	return m.mechanisms[kind], nil
}

func (m *memStore) ActiveTenders(_ context.Context, _, _ uuid.UUID) ([]model.SourcingMechanism, error) {
	return m.lookup(model.SourcingKindTender)
}

func (m *memStore) ActiveContracts(_ context.Context, _, _ uuid.UUID) ([]model.SourcingMechanism, error) {
	return m.lookup(model.SourcingKindContract)
}

func (m *memStore) ActiveDirectAwards(_ context.Context, _, _ uuid.UUID) ([]model.SourcingMechanism, error) {
	return m.lookup(model.SourcingKindDirectAward)
}

func (m *memStore) ActiveInternalAssignments(_ context.Context, _, _ uuid.UUID) ([]model.SourcingMechanism, error) {
	return m.lookup(model.SourcingKindInternalAssignment)
}

func (m *memStore) CommitAward(_ context.Context, commit model.AwardCommit) (*model.AwardCommit, error) {
	if m.commitHook != nil {
		m.commitHook()
	}
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	pkg := m.packages[commit.Decision.PackageID]
	if pkg.IsAwarded() {
		return nil, repository.ErrPackageAlreadyAwarded
	}

	if commit.Override != nil {
		commit.Override.ID = uuid.New()
	}
	commit.Decision.ID = uuid.New()
	commit.Contract.ID = uuid.New()
	commit.Contract.AwardDecisionID = commit.Decision.ID
	for i := range commit.Lines {
		commit.Lines[i].ID = uuid.New()
		commit.Lines[i].ContractID = commit.Contract.ID
	}

	supplierID := commit.Contract.SupplierID
	pkg.AwardSupplierID = &supplierID
	pkg.AwardValue = decimal.NewNullDecimal(commit.Contract.Value)
	pkg.Status = model.PackageStatusAwarded
	m.packages[pkg.ID] = pkg

	m.commits = append(m.commits, commit)
	return &commit, nil
}

func (m *memStore) Record(_ context.Context, entry model.AuditEntry) error {
	if m.auditErr != nil {
		return m.auditErr
	}
	m.audits = append(m.audits, entry)
	return nil
}

func (m *memStore) GetContractDocument(_ context.Context, _, contractID uuid.UUID) (*model.ContractDocument, error) {
	doc, ok := m.documents[contractID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &doc, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")

// fixture seeds one tenant with a project, an open package and a compliant supplier.
type fixture struct {
	store     *memStore
	principal model.Principal
	project   model.Project
	pkg       model.Package
	supplier  model.Supplier
}

func newFixture() *fixture {
	store := newMemStore()
	tenantID := uuid.New()
	expires := time.Now().Add(90 * 24 * time.Hour)

	project := model.Project{ID: uuid.New(), TenantID: tenantID, Name: "Riverside Block A", Code: "RBA"}
	pkg := model.Package{ID: uuid.New(), TenantID: tenantID, ProjectID: project.ID, Name: "Groundworks", Status: model.PackageStatusTender}
	supplier := model.Supplier{
		ID:                 uuid.New(),
		TenantID:           tenantID,
		Name:               "Acme Civils",
		InsuranceExpiresAt: &expires,
		HSCertValid:        true,
		AccreditationValid: true,
	}
	store.projects[project.ID] = project
	store.packages[pkg.ID] = pkg
	store.suppliers[supplier.ID] = supplier

	return &fixture{
		store:     store,
		principal: model.Principal{UserID: uuid.New(), TenantID: tenantID, Roles: []string{"estimator"}},
		project:   project,
		pkg:       pkg,
		supplier:  supplier,
	}
}

func (f *fixture) addSupplier(name string, compliant bool) model.Supplier {
	expires := time.Now().Add(90 * 24 * time.Hour)
	supplier := model.Supplier{ID: uuid.New(), TenantID: f.principal.TenantID, Name: name}
	if compliant {
		supplier.InsuranceExpiresAt = &expires
		supplier.HSCertValid = true
		supplier.AccreditationValid = true
	}
	f.store.suppliers[supplier.ID] = supplier
	return supplier
}

func (f *fixture) addSnapshotLine(description, total string) model.PackageLineItem {
	line := model.PackageLineItem{
		ID:          uuid.New(),
		PackageID:   f.pkg.ID,
		Description: description,
		Qty:         decimal.NewFromInt(1),
		Rate:        decimal.RequireFromString(total),
		Total:       decimal.RequireFromString(total),
	}
	f.store.snapshot[f.pkg.ID] = append(f.store.snapshot[f.pkg.ID], line)
	return line
}

func (f *fixture) addLegacyLine(qty, rate, amount string) model.LegacyLineRow {
	row := model.LegacyLineRow{BudgetLineID: uuid.New(), Description: "budget line"}
	if qty != "" {
		row.Qty = decimal.NewNullDecimal(decimal.RequireFromString(qty))
	}
	if rate != "" {
		row.Rate = decimal.NewNullDecimal(decimal.RequireFromString(rate))
	}
	if amount != "" {
		row.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	f.store.legacy[f.pkg.ID] = append(f.store.legacy[f.pkg.ID], row)
	return row
}

func (f *fixture) addSubmission(price string) model.Submission {
	sub := model.Submission{
		ID:         uuid.New(),
		TenantID:   f.principal.TenantID,
		PackageID:  f.pkg.ID,
		SupplierID: uuid.New(),
		Status:     model.SubmissionStatusSubmitted,
	}
	if price != "" {
		sub.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	f.store.submissions = append(f.store.submissions, sub)
	return sub
}

func (f *fixture) submission(id uuid.UUID) model.Submission {
	for _, sub := range f.store.submissions {
		if sub.ID == id {
			return sub
		}
	}
	return model.Submission{}
}

func (f *fixture) markAwarded() {
	pkg := f.store.packages[f.pkg.ID]
	supplierID := uuid.New()
	pkg.AwardSupplierID = &supplierID
	pkg.Status = model.PackageStatusAwarded
	f.store.packages[f.pkg.ID] = pkg
}

func (f *fixture) scoring() *ScoringService {
	return NewScoringService(f.store, f.store, zerolog.Nop())
}

func (f *fixture) tenders() *TenderService {
	return NewTenderService(f.store, f.store, f.store, NewSourcingService(f.store, f.store), f.scoring(), f.store, zerolog.Nop())
}

func (f *fixture) awards() *AwardService {
	return NewAwardService(
		f.store,
		f.store,
		f.store,
		NewComplianceService(f.store),
		NewSourcingService(f.store, f.store),
		NewLineResolver(f.store, f.store),
		f.store,
		f.store,
		zerolog.Nop(),
		config.AwardConfig{
			DefaultCurrency: "GBP",
			OverrideRoles:   []string{"admin", "procurement_manager"},
			ValueTolerance:  decimal.RequireFromString("0.01"),
		},
	)
}

func dec(value string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(value))
}
