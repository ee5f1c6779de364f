package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

// ErrInviteExists is returned when the (package, supplier) pair is already invited.
var ErrInviteExists = errors.New("invite already exists")

type TenderRepository struct {
	db *gorm.DB
}

func NewTenderRepository(db *gorm.DB) *TenderRepository {
	return &TenderRepository{db: db}
}

// CreateTender opens a tender and moves the package into Tender status in one transaction.
func (r *TenderRepository) CreateTender(ctx context.Context, tender model.Tender) (*model.Tender, error) {
	if tender.ID == uuid.Nil {
		tender.ID = uuid.New()
	}

	var saved model.Tender
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO tenders (id, tenant_id, package_id, title, status, created_by)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id, tenant_id, package_id, title, status, created_by, created_at
		`, tender.ID, tender.TenantID, tender.PackageID, tender.Title, tender.Status, tender.CreatedBy).Scan(&saved).Error
		if err != nil {
			if isUniqueViolation(err, "uq_tenders_package_active") {
				return ErrPackageAlreadySourced
			}
			if isForeignKeyViolation(err) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		res := tx.Exec(`
			UPDATE packages
			SET status = ?
			WHERE id = ? AND tenant_id = ? AND award_supplier_id IS NULL
		`, model.PackageStatusTender, tender.PackageID, tender.TenantID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPackageAlreadyAwarded
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// CreateInvite inserts one invite. A duplicate pair yields ErrInviteExists.
func (r *TenderRepository) CreateInvite(ctx context.Context, invite model.TenderInvite) (*model.TenderInvite, error) {
	if invite.ID == uuid.Nil {
		invite.ID = uuid.New()
	}

	var saved model.TenderInvite
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO tender_invites (id, tenant_id, package_id, supplier_id, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (package_id, supplier_id) DO NOTHING
		RETURNING id, tenant_id, package_id, supplier_id, status, invited_at, responded_at
	`, invite.ID, invite.TenantID, invite.PackageID, invite.SupplierID, model.InviteStatusInvited).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	if saved.ID == uuid.Nil {
		return nil, ErrInviteExists
	}
	return &saved, nil
}

func (r *TenderRepository) GetInvite(ctx context.Context, tenantID, packageID, supplierID uuid.UUID) (*model.TenderInvite, error) {
	var invite model.TenderInvite
	if err := r.db.WithContext(ctx).Raw(`
		SELECT id, tenant_id, package_id, supplier_id, status, invited_at, responded_at
		FROM tender_invites
		WHERE tenant_id = ? AND package_id = ? AND supplier_id = ?
		LIMIT 1
	`, tenantID, packageID, supplierID).Scan(&invite).Error; err != nil {
		return nil, err
	}
	if invite.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &invite, nil
}

// CreateSubmission stores a bid and flips the matching invite to Submitted.
func (r *TenderRepository) CreateSubmission(ctx context.Context, sub model.Submission, respondedAt time.Time) (*model.Submission, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	var saved model.Submission
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO submissions (id, tenant_id, package_id, supplier_id, price, duration_weeks, details, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING
				id,
				tenant_id,
				package_id,
				supplier_id,
				price,
				duration_weeks,
				details,
				price_score,
				technical_score,
				overall_score,
				score_overridden,
				rank,
				status,
				created_at
		`,
			sub.ID,
			sub.TenantID,
			sub.PackageID,
			sub.SupplierID,
			sub.Price,
			sub.DurationWeeks,
			sub.Details,
			model.SubmissionStatusSubmitted,
		).Scan(&saved).Error
		if err != nil {
			return err
		}

		return tx.Exec(`
			UPDATE tender_invites
			SET status = ?, responded_at = ?
			WHERE tenant_id = ? AND package_id = ? AND supplier_id = ?
		`, model.InviteStatusSubmitted, respondedAt, sub.TenantID, sub.PackageID, sub.SupplierID).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

const submissionColumns = `
	s.id,
	s.tenant_id,
	s.package_id,
	s.supplier_id,
	COALESCE(sp.name, '') AS supplier_name,
	s.price,
	s.duration_weeks,
	s.details,
	s.price_score,
	s.technical_score,
	s.overall_score,
	s.score_overridden,
	s.rank,
	s.status,
	s.created_at
`

func (r *TenderRepository) GetSubmission(ctx context.Context, tenantID, id uuid.UUID) (*model.Submission, error) {
	var sub model.Submission
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+submissionColumns+`
		FROM submissions s
		LEFT JOIN suppliers sp ON sp.id = s.supplier_id
		WHERE s.id = ? AND s.tenant_id = ?
		LIMIT 1
	`, id, tenantID).Scan(&sub).Error; err != nil {
		return nil, err
	}
	if sub.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &sub, nil
}

// ListSubmissions returns a package's submissions in arrival order.
func (r *TenderRepository) ListSubmissions(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.Submission, error) {
	var subs []model.Submission
	if err := r.db.WithContext(ctx).Raw(`
		SELECT `+submissionColumns+`
		FROM submissions s
		LEFT JOIN suppliers sp ON sp.id = s.supplier_id
		WHERE s.tenant_id = ? AND s.package_id = ?
		ORDER BY s.created_at ASC, s.id ASC
	`, tenantID, packageID).Scan(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// SaveScores rewrites the score and rank columns of every given submission in one transaction.
func (r *TenderRepository) SaveScores(ctx context.Context, tenantID uuid.UUID, subs []model.Submission) error {
	if len(subs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sub := range subs {
			if err := tx.Exec(`
				UPDATE submissions
				SET
					price_score = ?,
					technical_score = ?,
					overall_score = ?,
					score_overridden = ?,
					rank = ?
				WHERE id = ? AND tenant_id = ?
			`,
				sub.PriceScore,
				sub.TechnicalScore,
				sub.OverallScore,
				sub.ScoreOverridden,
				sub.Rank,
				sub.ID,
				tenantID,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
