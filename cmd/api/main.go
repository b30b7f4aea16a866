package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/straye-as/renewal-api/docs"
	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/database"
	"github.com/straye-as/renewal-api/internal/http/handler"
	"github.com/straye-as/renewal-api/internal/http/middleware"
	"github.com/straye-as/renewal-api/internal/http/router"
	"github.com/straye-as/renewal-api/internal/importer"
	"github.com/straye-as/renewal-api/internal/jobs"
	"github.com/straye-as/renewal-api/internal/logger"
	"github.com/straye-as/renewal-api/internal/repository"
	"github.com/straye-as/renewal-api/internal/service"
	"github.com/straye-as/renewal-api/internal/storage"
	"go.uber.org/zap"
)

// @title Renewal CRM API
// @version 1.0
// @description CRM backend for urban-renewal projects: residents, lawyer signing, scheduling and reports

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API key for the messaging bot

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Secrets come from Key Vault in staging/production, from the environment otherwise
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT secret is not configured")
	}

	stores, err := database.Open(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()

	// postgres schemas are managed by cmd/migrate
	if cfg.Database.Driver != database.DriverPostgres {
		if err := database.AutoMigrate(stores); err != nil {
			return err
		}
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories, by store
	userRepo := repository.NewUserRepository(stores.Users)
	activityRepo := repository.NewActivityLogRepository(stores.Users)
	projectRepo := repository.NewProjectRepository(stores.Projects)
	complexRepo := repository.NewComplexRepository(stores.Projects)
	residentRepo := repository.NewResidentRepository(stores.Projects)
	ownerRepo := repository.NewSecondaryOwnerRepository(stores.Projects)
	documentRepo := repository.NewDocumentRepository(stores.Projects)
	chatRepo := repository.NewChatRepository(stores.Projects)
	staffRepo := repository.NewStaffMessageRepository(stores.Projects)
	leadRepo := repository.NewLeadRepository(stores.Projects)
	ticketRepo := repository.NewSupportTicketRepository(stores.Projects)
	meetingRepo := repository.NewMeetingRepository(stores.Meetings)

	// Services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	authService := service.NewAuthService(userRepo, tokens, &cfg.Auth, log)
	resolver := service.NewUserResolver(userRepo)
	documentService := service.NewDocumentService(documentRepo, staffRepo, complexRepo, fileStorage, log)
	residentService := service.NewResidentService(residentRepo, ownerRepo, documentRepo, documentService, log)
	scheduleService := service.NewScheduleService(meetingRepo, complexRepo, residentRepo, log)
	reportService := service.NewReportService(projectRepo, complexRepo, residentRepo, resolver, log)
	complexService := service.NewComplexService(projectRepo, complexRepo, documentService, resolver, log)
	messagingService := service.NewMessagingService(staffRepo, chatRepo, userRepo, residentRepo, documentService, log)
	importService := service.NewImportService(importer.New(stores.Projects, importer.Mode(cfg.Import.Mode), log), log)
	exportService := service.NewExportService(residentRepo, log)
	botService := service.NewBotService(leadRepo, ticketRepo, residentRepo, log)
	activityService := service.NewActivityService(activityRepo, log)

	if cfg.Auth.BootstrapAdminPassword != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminPassword); err != nil {
			return fmt.Errorf("failed to create bootstrap admin: %w", err)
		}
	}

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, cfg.ApiKey.Value, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(activityService, nil)

	maxUpload := cfg.Storage.MaxUploadBytes()
	rt := router.NewRouter(
		cfg,
		log,
		authMiddleware,
		rateLimiter,
		auditMiddleware,
		handler.NewHealthHandler(stores, log),
		handler.NewAuthHandler(authService, log),
		handler.NewResidentHandler(residentService, documentService, maxUpload, log),
		handler.NewScheduleHandler(scheduleService, log),
		handler.NewReportHandler(reportService, log),
		handler.NewComplexHandler(complexService, documentService, maxUpload, log),
		handler.NewTransferHandler(importService, exportService, maxUpload, log),
		handler.NewMessagingHandler(messagingService, documentService, maxUpload, log),
		handler.NewBotHandler(botService, log),
		handler.NewActivityHandler(activityService, log),
	)

	scheduler := jobs.NewScheduler(log)
	if cfg.Backup.Enabled {
		if err := jobs.RegisterBackupJob(scheduler, jobs.NewBackupJobFromConfig(cfg, log), cfg.Backup.Cron); err != nil {
			return fmt.Errorf("failed to register backup job: %w", err)
		}
	}
	if cfg.Reconcile.Enabled {
		if err := jobs.RegisterReconcileJob(scheduler, documentService, cfg.Reconcile.PendingMaxAge(), cfg.Reconcile.Cron, log); err != nil {
			return fmt.Errorf("failed to register reconcile job: %w", err)
		}
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		<-scheduler.Stop().Done()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// let a running backup finish before the stores are closed
		<-scheduler.Stop().Done()
		log.Info("Server stopped gracefully")
	}

	return nil
}
