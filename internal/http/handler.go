package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tender-award/internal/http/middleware"
	"github.com/nurpe/tender-award/internal/model"
	"github.com/nurpe/tender-award/internal/service"
)

type Services struct {
	Tenders    *service.TenderService
	Scoring    *service.ScoringService
	Awards     *service.AwardService
	Sourcing   *service.SourcingService
	Compliance *service.ComplianceService
	Lines      *service.LineResolver
	Exports    *service.ExportService
}

type Handler struct {
	svc Services
	log zerolog.Logger
}

func NewHandler(svc Services, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/packages/:id/tenders", h.createTender)
	protected.POST("/packages/:id/invite", h.invite)
	protected.POST("/packages/:id/submit", h.submitBid)
	protected.GET("/packages/:id/submissions", h.listSubmissions)
	protected.GET("/packages/:id/submissions/export", h.exportSubmissions)
	protected.POST("/packages/:id/rescore", h.rescore)
	protected.POST("/submissions/:id/score", h.scoreSubmission)

	protected.GET("/packages/:id/lines", h.listLines)
	protected.GET("/packages/:id/check-sourcing", h.checkSourcing)
	protected.GET("/suppliers/:id/compliance", h.supplierCompliance)

	protected.POST("/packages/:id/award", h.awardPackage)
	protected.POST("/awards", h.createAward)
	protected.GET("/contracts/:id/letter", h.awardLetter)
}

type createTenderRequest struct {
	Title string `json:"title"`
}

func (h *Handler) createTender(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req createTenderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	tender, err := h.svc.Tenders.CreateTender(c.Request.Context(), principal, packageID, req.Title)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusCreated, tender)
}

type inviteRequest struct {
	SupplierIDs []uuid.UUID `json:"supplierIds" binding:"required"`
}

func (h *Handler) invite(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Tenders.Invite(c.Request.Context(), principal, packageID, req.SupplierIDs)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusOK, result)
}

type submitBidRequest struct {
	SupplierID    uuid.UUID           `json:"supplierId" binding:"required"`
	Price         decimal.NullDecimal `json:"price"`
	DurationWeeks *int                `json:"durationWeeks"`
	Details       string              `json:"details"`
}

func (h *Handler) submitBid(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req submitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.svc.Tenders.SubmitBid(c.Request.Context(), principal, service.SubmitBidInput{
		PackageID:     packageID,
		SupplierID:    req.SupplierID,
		Price:         req.Price,
		DurationWeeks: req.DurationWeeks,
		Details:       req.Details,
	})
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

type scoreRequest struct {
	TechnicalScore decimal.NullDecimal `json:"technicalScore"`
	Override       decimal.NullDecimal `json:"override"`
}

func (h *Handler) scoreSubmission(c *gin.Context) {
	principal, submissionID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Scoring.ScoreSubmission(c.Request.Context(), principal.TenantID, service.ScoreInput{
		SubmissionID:   submissionID,
		TechnicalScore: req.TechnicalScore,
		OverrideScore:  req.Override,
	})
	if err != nil {
		h.handleError(c, err, principal, submissionID)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) rescore(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	ranking, err := h.svc.Scoring.Rescore(c.Request.Context(), principal.TenantID, packageID)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": ranking})
}

func (h *Handler) listSubmissions(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	ranking, err := h.svc.Scoring.Ranking(c.Request.Context(), principal.TenantID, packageID)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": ranking})
}

func (h *Handler) exportSubmissions(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	result, err := h.svc.Exports.BidEvaluation(c.Request.Context(), principal.TenantID, packageID)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Content)
}

func (h *Handler) listLines(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	set, err := h.svc.Lines.PackageLines(c.Request.Context(), principal.TenantID, packageID)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source": set.Source,
		"lines":  set.Lines,
		"total":  set.Total(),
	})
}

func (h *Handler) checkSourcing(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	check, err := h.svc.Sourcing.CheckSourcing(c.Request.Context(), principal.TenantID, packageID)
	if err != nil {
		h.handleError(c, err, principal, packageID)
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h *Handler) supplierCompliance(c *gin.Context) {
	principal, supplierID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	result, err := h.svc.Compliance.CheckSupplierCompliance(c.Request.Context(), principal.TenantID, supplierID)
	if err != nil {
		h.handleError(c, err, principal, supplierID)
		return
	}
	c.JSON(http.StatusOK, result)
}

type awardRequest struct {
	ProjectID       uuid.UUID           `json:"projectId"`
	PackageID       uuid.UUID           `json:"packageId"`
	SupplierID      uuid.UUID           `json:"supplierId" binding:"required"`
	SelectedLineIDs []uuid.UUID         `json:"selectedLineIds"`
	AwardValue      decimal.NullDecimal `json:"awardValue"`
	Override        bool                `json:"override"`
	OverrideReason  string              `json:"overrideReason"`
	Currency        string              `json:"currency"`
	Title           string              `json:"title"`
	StartDate       string              `json:"startDate"`
	EndDate         string              `json:"endDate"`
}

func (h *Handler) awardPackage(c *gin.Context) {
	principal, packageID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.PackageID = packageID

	h.award(c, principal, model.AwardTypeDirect, req)
}

func (h *Handler) createAward(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req awardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.award(c, principal, model.AwardTypeTender, req)
}

func (h *Handler) award(c *gin.Context, principal model.Principal, awardType model.AwardType, req awardRequest) {
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate", "code": service.CodeInvalidInput})
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate", "code": service.CodeInvalidInput})
		return
	}

	result, err := h.svc.Awards.Award(c.Request.Context(), service.AwardInput{
		Principal:       principal,
		AwardType:       awardType,
		ProjectID:       req.ProjectID,
		PackageID:       req.PackageID,
		SupplierID:      req.SupplierID,
		SelectedLineIDs: req.SelectedLineIDs,
		AwardValue:      req.AwardValue,
		Override:        req.Override,
		OverrideReason:  req.OverrideReason,
		Currency:        req.Currency,
		Title:           req.Title,
		StartDate:       start,
		EndDate:         end,
	})
	if err != nil {
		h.handleError(c, err, principal, req.PackageID)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) awardLetter(c *gin.Context) {
	principal, contractID, ok := h.principalAndID(c)
	if !ok {
		return
	}

	result, err := h.svc.Exports.AwardLetter(c.Request.Context(), principal.TenantID, contractID)
	if err != nil {
		h.handleError(c, err, principal, contractID)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) principalAndID(c *gin.Context) (model.Principal, uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, uuid.Nil, false
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "code": service.CodeInvalidInput})
		return model.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}

func (h *Handler) handleError(c *gin.Context, err error, principal model.Principal, entityID uuid.UUID) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("tenant_id", principal.TenantID.String()).
			Str("entity_id", entityID.String()).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, gin.H) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPermissionDenied):
		status = http.StatusForbidden
	}
	if status == http.StatusInternalServerError {
		return status, gin.H{"error": "internal error"}
	}

	body := gin.H{"error": err.Error()}
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		body["code"] = domainErr.Code
		if len(domainErr.Missing) > 0 {
			body["missing"] = domainErr.Missing
		}
		if len(domainErr.MissingIDs) > 0 {
			body["missingIds"] = domainErr.MissingIDs
		}
		if domainErr.Conflicts != nil {
			body["conflicts"] = domainErr.Conflicts
		}
		if len(domainErr.Mechanisms) > 0 {
			body["mechanisms"] = domainErr.Mechanisms
		}
	}
	return status, body
}

func parseOptionalDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, service.ErrInvalidInput
}
