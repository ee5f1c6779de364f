package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

type WorkbookGenerator interface {
	Generate(report model.BidEvaluation) ([]byte, error)
}

type LetterGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

type ContractReader interface {
	GetContractDocument(ctx context.Context, tenantID, contractID uuid.UUID) (*model.ContractDocument, error)
}

type ExportService struct {
	packages  PackageReader
	projects  ProjectReader
	scoring   *ScoringService
	contracts ContractReader
	excel     WorkbookGenerator
	pdf       LetterGenerator
	now       func() time.Time
}

type FileResult struct {
	FileName string
	Content  []byte
}

func NewExportService(
	packages PackageReader,
	projects ProjectReader,
	scoring *ScoringService,
	contracts ContractReader,
	excel WorkbookGenerator,
	pdf LetterGenerator,
) *ExportService {
	return &ExportService{
		packages:  packages,
		projects:  projects,
		scoring:   scoring,
		contracts: contracts,
		excel:     excel,
		pdf:       pdf,
		now:       time.Now,
	}
}

// BidEvaluation renders the package's ranked submissions as a workbook.
func (s *ExportService) BidEvaluation(ctx context.Context, tenantID, packageID uuid.UUID) (*FileResult, error) {
	pkg, err := s.packages.GetPackage(ctx, tenantID, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodePackageNotFound, "package not found")
		}
		return nil, err
	}

	projectName := ""
	project, err := s.projects.GetProject(ctx, tenantID, pkg.ProjectID)
	switch {
	case err == nil:
		projectName = project.Name
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	ranking, err := s.scoring.Ranking(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}

	report := model.BidEvaluation{
		Package:     *pkg,
		ProjectName: projectName,
		Submissions: ranking,
		LowestPrice: lowestPrice(ranking),
		GeneratedAt: s.now().UTC(),
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: buildFileName("bid-evaluation", pkg.Name, pkg.ID, report.GeneratedAt, "xlsx"),
		Content:  content,
	}, nil
}

// AwardLetter renders a contract's letter of award.
func (s *ExportService) AwardLetter(ctx context.Context, tenantID, contractID uuid.UUID) (*FileResult, error) {
	doc, err := s.contracts.GetContractDocument(ctx, tenantID, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodeContractNotFound, "contract not found")
		}
		return nil, err
	}
	content, err := s.pdf.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: buildFileName("award-letter", doc.SupplierName, doc.Contract.ID, doc.Contract.CreatedAt, "pdf"),
		Content:  content,
	}, nil
}

func lowestPrice(subs []model.Submission) decimal.NullDecimal {
	var lowest decimal.NullDecimal
	for _, sub := range subs {
		if !sub.Price.Valid {
			continue
		}
		if !lowest.Valid || sub.Price.Decimal.LessThan(lowest.Decimal) {
			lowest = sub.Price
		}
	}
	return lowest
}

func buildFileName(prefix, name string, id uuid.UUID, at time.Time, ext string) string {
	target := sanitizeFileName(name)
	if target == "" {
		target = id.String()
	}
	return fmt.Sprintf("%s-%s-%s.%s", prefix, target, at.Format("20060102"), ext)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
