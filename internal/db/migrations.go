package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		name TEXT NOT NULL,
		code VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		name TEXT NOT NULL,
		insurance_expires_at TIMESTAMPTZ,
		hs_cert_valid BOOLEAN NOT NULL DEFAULT FALSE,
		accreditation_valid BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS packages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		name TEXT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Draft',
		award_supplier_id UUID REFERENCES suppliers(id),
		award_value NUMERIC(18,2),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_packages_tenant_project ON packages (tenant_id, project_id);`,
	`CREATE TABLE IF NOT EXISTS budget_lines (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		description TEXT NOT NULL DEFAULT '',
		qty NUMERIC(18,4),
		rate NUMERIC(18,4),
		amount NUMERIC(18,2),
		cost_code VARCHAR(64) NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS package_items (
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		budget_line_id UUID NOT NULL REFERENCES budget_lines(id),
		tenant_id UUID NOT NULL,
		PRIMARY KEY (package_id, budget_line_id)
	);`,
	`CREATE TABLE IF NOT EXISTS package_line_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		description TEXT NOT NULL DEFAULT '',
		qty NUMERIC(18,4) NOT NULL DEFAULT 0,
		rate NUMERIC(18,4) NOT NULL DEFAULT 0,
		total NUMERIC(18,2) NOT NULL DEFAULT 0,
		cost_code VARCHAR(64) NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_package_line_items_package ON package_line_items (package_id);`,
	`CREATE TABLE IF NOT EXISTS tenders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		title TEXT NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'open',
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_tenders_package_active ON tenders (package_id) WHERE status <> 'cancelled';`,
	`CREATE TABLE IF NOT EXISTS tender_invites (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		status VARCHAR(16) NOT NULL DEFAULT 'Invited',
		invited_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		responded_at TIMESTAMPTZ
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_tender_invites_pair ON tender_invites (package_id, supplier_id);`,
	`CREATE TABLE IF NOT EXISTS submissions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		price NUMERIC(18,2),
		duration_weeks INTEGER,
		details TEXT NOT NULL DEFAULT '',
		price_score NUMERIC,
		technical_score NUMERIC,
		overall_score NUMERIC,
		score_overridden BOOLEAN NOT NULL DEFAULT FALSE,
		rank INTEGER,
		status VARCHAR(16) NOT NULL DEFAULT 'submitted',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_submissions_package ON submissions (package_id, created_at);`,
	`CREATE TABLE IF NOT EXISTS award_decisions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		package_id UUID NOT NULL REFERENCES packages(id),
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		award_type VARCHAR(16) NOT NULL,
		decision VARCHAR(32) NOT NULL,
		override_reason TEXT,
		decided_by UUID NOT NULL,
		decided_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS compliance_overrides (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		package_id UUID NOT NULL REFERENCES packages(id),
		reason TEXT NOT NULL,
		missing_conditions TEXT NOT NULL DEFAULT '',
		authorized_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		project_id UUID NOT NULL REFERENCES projects(id),
		package_id UUID NOT NULL REFERENCES packages(id),
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		award_decision_id UUID REFERENCES award_decisions(id),
		title TEXT NOT NULL DEFAULT '',
		value NUMERIC(18,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'draft',
		start_date DATE,
		end_date DATE,
		created_by UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_package ON contracts (package_id);`,
	`CREATE TABLE IF NOT EXISTS contract_line_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		contract_id UUID NOT NULL REFERENCES contracts(id) ON DELETE CASCADE,
		package_line_id UUID REFERENCES package_line_items(id),
		budget_line_id UUID REFERENCES budget_lines(id),
		description TEXT NOT NULL DEFAULT '',
		qty NUMERIC(18,4) NOT NULL DEFAULT 0,
		rate NUMERIC(18,4) NOT NULL DEFAULT 0,
		total NUMERIC(18,2) NOT NULL,
		cost_code VARCHAR(64) NOT NULL DEFAULT '',
		CHECK (package_line_id IS NOT NULL OR budget_line_id IS NOT NULL)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_line_items_package_line ON contract_line_items (package_line_id) WHERE package_line_id IS NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contract_line_items_budget_line ON contract_line_items (budget_line_id) WHERE budget_line_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS direct_awards (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		supplier_id UUID REFERENCES suppliers(id),
		status VARCHAR(32) NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS internal_resource_assignments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		package_id UUID NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
		team_name TEXT NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		tenant_id UUID NOT NULL,
		user_id UUID,
		entity_type VARCHAR(64) NOT NULL,
		entity_id UUID NOT NULL,
		action VARCHAR(64) NOT NULL,
		payload JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (tenant_id, entity_type, entity_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
