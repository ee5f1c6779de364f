package main

import (
	"fmt"
	"os"

	"github.com/nurpe/tender-award/internal/auth"
	"github.com/nurpe/tender-award/internal/config"
	"github.com/nurpe/tender-award/internal/db"
	"github.com/nurpe/tender-award/internal/excel"
	httphandler "github.com/nurpe/tender-award/internal/http"
	"github.com/nurpe/tender-award/internal/http/middleware"
	"github.com/nurpe/tender-award/internal/logger"
	"github.com/nurpe/tender-award/internal/pdf"
	"github.com/nurpe/tender-award/internal/repository"
	"github.com/nurpe/tender-award/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	packageRepo := repository.NewPackageRepository(database)
	tenderRepo := repository.NewTenderRepository(database)
	lineRepo := repository.NewLineRepository(database)
	sourcingRepo := repository.NewSourcingRepository(database)
	awardRepo := repository.NewAwardRepository(database)
	auditRepo := repository.NewAuditRepository(database)

	complianceService := service.NewComplianceService(packageRepo)
	sourcingService := service.NewSourcingService(sourcingRepo, packageRepo)
	lineResolver := service.NewLineResolver(lineRepo, packageRepo)
	scoringService := service.NewScoringService(tenderRepo, packageRepo, log)
	tenderService := service.NewTenderService(tenderRepo, packageRepo, packageRepo, sourcingService, scoringService, auditRepo, log)
	awardService := service.NewAwardService(
		packageRepo,
		packageRepo,
		packageRepo,
		complianceService,
		sourcingService,
		lineResolver,
		awardRepo,
		auditRepo,
		log,
		cfg.Award,
	)
	exportService := service.NewExportService(
		packageRepo,
		packageRepo,
		scoringService,
		awardRepo,
		excel.NewGenerator(),
		pdf.NewGenerator(),
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(httphandler.Services{
		Tenders:    tenderService,
		Scoring:    scoringService,
		Awards:     awardService,
		Sourcing:   sourcingService,
		Compliance: complianceService,
		Lines:      lineResolver,
		Exports:    exportService,
	}, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.CORSOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting tender award service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
