package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

var (
	technicalWeight = decimal.RequireFromString("0.6")
	priceWeight     = decimal.RequireFromString("0.4")
	hundred         = decimal.NewFromInt(100)
)

type SubmissionStore interface {
	GetSubmission(ctx context.Context, tenantID, id uuid.UUID) (*model.Submission, error)
	ListSubmissions(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.Submission, error)
	SaveScores(ctx context.Context, tenantID uuid.UUID, subs []model.Submission) error
}

type PackageReader interface {
	GetPackage(ctx context.Context, tenantID, id uuid.UUID) (*model.Package, error)
}

type ScoringService struct {
	submissions SubmissionStore
	packages    PackageReader
	log         zerolog.Logger
}

func NewScoringService(submissions SubmissionStore, packages PackageReader, log zerolog.Logger) *ScoringService {
	return &ScoringService{submissions: submissions, packages: packages, log: log}
}

type ScoreInput struct {
	SubmissionID   uuid.UUID
	TechnicalScore decimal.NullDecimal
	OverrideScore  decimal.NullDecimal
}

type ScoreResult struct {
	Submission model.Submission   `json:"submission"`
	Ranking    []model.Submission `json:"ranking"`
}

// ScoreSubmission records a technical and/or override score and re-ranks the whole package.
func (s *ScoringService) ScoreSubmission(ctx context.Context, tenantID uuid.UUID, input ScoreInput) (*ScoreResult, error) {
	if err := validateScore("technicalScore", input.TechnicalScore); err != nil {
		return nil, err
	}
	if err := validateScore("overrideScore", input.OverrideScore); err != nil {
		return nil, err
	}

	target, err := s.submissions.GetSubmission(ctx, tenantID, input.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodeSubmissionNotFound, "submission not found")
		}
		return nil, err
	}
	if err := s.ensureOpen(ctx, tenantID, target.PackageID); err != nil {
		return nil, err
	}

	subs, err := s.submissions.ListSubmissions(ctx, tenantID, target.PackageID)
	if err != nil {
		return nil, err
	}
	idx := indexOfSubmission(subs, target.ID)
	if idx < 0 {
		subs = append(subs, *target)
		idx = len(subs) - 1
	}

	sub := &subs[idx]
	if input.TechnicalScore.Valid {
		sub.TechnicalScore = input.TechnicalScore
	}
	switch {
	case input.OverrideScore.Valid:
		sub.OverallScore = input.OverrideScore
		sub.ScoreOverridden = true
	case sub.TechnicalScore.Valid && sub.PriceScore.Valid:
		sub.OverallScore = OverallScore(sub.TechnicalScore, sub.PriceScore)
		sub.ScoreOverridden = false
	}

	AssignRanks(subs)
	if err := s.submissions.SaveScores(ctx, tenantID, subs); err != nil {
		return nil, err
	}

	return &ScoreResult{Submission: subs[idx], Ranking: sortedByRank(subs)}, nil
}

// RecomputePriceScores refreshes price scores, derived overall scores and ranks for a package.
// Without any priced submission nothing is written.
func (s *ScoringService) RecomputePriceScores(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.Submission, error) {
	subs, err := s.submissions.ListSubmissions(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	if !ApplyPriceScores(subs) {
		return sortedByRank(subs), nil
	}
	for i := range subs {
		if subs[i].ScoreOverridden || !subs[i].TechnicalScore.Valid {
			continue
		}
		subs[i].OverallScore = OverallScore(subs[i].TechnicalScore, subs[i].PriceScore)
	}
	AssignRanks(subs)

	if err := s.submissions.SaveScores(ctx, tenantID, subs); err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("tenant_id", tenantID.String()).
		Str("package_id", packageID.String()).
		Int("submissions", len(subs)).
		Msg("price scores recomputed")
	return sortedByRank(subs), nil
}

// Rescore is the explicit refresh entry point. It rejects awarded packages.
func (s *ScoringService) Rescore(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.Submission, error) {
	if err := s.ensureOpen(ctx, tenantID, packageID); err != nil {
		return nil, err
	}
	return s.RecomputePriceScores(ctx, tenantID, packageID)
}

// Ranking lists a package's submissions by rank, unranked last.
func (s *ScoringService) Ranking(ctx context.Context, tenantID, packageID uuid.UUID) ([]model.Submission, error) {
	if _, err := s.packages.GetPackage(ctx, tenantID, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(CodePackageNotFound, "package not found")
		}
		return nil, err
	}
	subs, err := s.submissions.ListSubmissions(ctx, tenantID, packageID)
	if err != nil {
		return nil, err
	}
	return sortedByRank(subs), nil
}

func (s *ScoringService) ensureOpen(ctx context.Context, tenantID, packageID uuid.UUID) error {
	pkg, err := s.packages.GetPackage(ctx, tenantID, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(CodePackageNotFound, "package not found")
		}
		return err
	}
	if pkg.IsAwarded() {
		return conflict(CodeAlreadyAwarded, "package is already awarded")
	}
	return nil
}

// ApplyPriceScores sets priceScore = minPrice / price * 100 on every priced submission and clears
// it on unpriced ones. It reports false, touching nothing, when there is no positive minimum.
func ApplyPriceScores(subs []model.Submission) bool {
	var minPrice decimal.Decimal
	found := false
	for _, sub := range subs {
		if !sub.Price.Valid {
			continue
		}
		if !found || sub.Price.Decimal.LessThan(minPrice) {
			minPrice = sub.Price.Decimal
			found = true
		}
	}
	if !found || !minPrice.IsPositive() {
		return false
	}

	scaled := minPrice.Mul(hundred)
	for i := range subs {
		if !subs[i].Price.Valid {
			subs[i].PriceScore = decimal.NullDecimal{}
			continue
		}
		subs[i].PriceScore = decimal.NewNullDecimal(scaled.Div(subs[i].Price.Decimal))
	}
	return true
}

// OverallScore blends 60% technical with 40% price. It is null unless both are present.
func OverallScore(technical, price decimal.NullDecimal) decimal.NullDecimal {
	if !technical.Valid || !price.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(technicalWeight.Mul(technical.Decimal).Add(priceWeight.Mul(price.Decimal)))
}

// AssignRanks rewrites every rank as 1..N by overall score descending, null counted as zero.
// Ties keep slice order. The slice itself is not reordered.
func AssignRanks(subs []model.Submission) {
	order := make([]int, len(subs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scoreOrZero(subs[order[a]].OverallScore).GreaterThan(scoreOrZero(subs[order[b]].OverallScore))
	})
	for position, i := range order {
		rank := position + 1
		subs[i].Rank = &rank
	}
}

func scoreOrZero(score decimal.NullDecimal) decimal.Decimal {
	if score.Valid {
		return score.Decimal
	}
	return decimal.Zero
}

func sortedByRank(subs []model.Submission) []model.Submission {
	out := make([]model.Submission, len(subs))
	copy(out, subs)
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a].Rank, out[b].Rank
		switch {
		case ra == nil:
			return false
		case rb == nil:
			return true
		default:
			return *ra < *rb
		}
	})
	return out
}

func indexOfSubmission(subs []model.Submission, id uuid.UUID) int {
	for i := range subs {
		if subs[i].ID == id {
			return i
		}
	}
	return -1
}

func validateScore(field string, score decimal.NullDecimal) error {
	if !score.Valid {
		return nil
	}
	if score.Decimal.IsNegative() || score.Decimal.GreaterThan(hundred) {
		return invalidInput(CodeInvalidInput, fmt.Sprintf("%s must be between 0 and 100", field))
	}
	return nil
}
