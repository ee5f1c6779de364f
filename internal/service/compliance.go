package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

// Names of the compliance conditions reported in Compliance.Missing.
const (
	ConditionInsurance     = "insurance"
	ConditionHealthSafety  = "health_and_safety"
	ConditionAccreditation = "accreditation"
)

type SupplierReader interface {
	GetSupplier(ctx context.Context, tenantID, id uuid.UUID) (*model.Supplier, error)
}

type ComplianceService struct {
	suppliers SupplierReader
	now       func() time.Time
}

func NewComplianceService(suppliers SupplierReader) *ComplianceService {
	return &ComplianceService{suppliers: suppliers, now: time.Now}
}

// CheckSupplierCompliance reports whether the supplier is eligible for award right now.
func (s *ComplianceService) CheckSupplierCompliance(ctx context.Context, tenantID, supplierID uuid.UUID) (*model.Compliance, error) {
	supplier, err := s.suppliers.GetSupplier(ctx, tenantID, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodeSupplierNotFound, "supplier not found")
		}
		return nil, err
	}
	result := EvaluateCompliance(*supplier, s.now())
	return &result, nil
}

// EvaluateCompliance checks the three independent conditions. Insurance must exist and expire
// strictly after now.
func EvaluateCompliance(supplier model.Supplier, now time.Time) model.Compliance {
	missing := make([]string, 0, 3)
	if supplier.InsuranceExpiresAt == nil || !supplier.InsuranceExpiresAt.After(now) {
		missing = append(missing, ConditionInsurance)
	}
	if !supplier.HSCertValid {
		missing = append(missing, ConditionHealthSafety)
	}
	if !supplier.AccreditationValid {
		missing = append(missing, ConditionAccreditation)
	}
	return model.Compliance{OK: len(missing) == 0, Missing: missing}
}
