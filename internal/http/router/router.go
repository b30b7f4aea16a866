package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/renewal-api/internal/auth"
	"github.com/straye-as/renewal-api/internal/config"
	"github.com/straye-as/renewal-api/internal/domain"
	"github.com/straye-as/renewal-api/internal/http/handler"
	"github.com/straye-as/renewal-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/straye-as/renewal-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg              *config.Config
	logger           *zap.Logger
	authMiddleware   *auth.Middleware
	rateLimiter      *middleware.RateLimiter
	auditMiddleware  *middleware.AuditMiddleware
	healthHandler    *handler.HealthHandler
	authHandler      *handler.AuthHandler
	residentHandler  *handler.ResidentHandler
	scheduleHandler  *handler.ScheduleHandler
	reportHandler    *handler.ReportHandler
	complexHandler   *handler.ComplexHandler
	transferHandler  *handler.TransferHandler
	messagingHandler *handler.MessagingHandler
	botHandler       *handler.BotHandler
	activityHandler  *handler.ActivityHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	residentHandler *handler.ResidentHandler,
	scheduleHandler *handler.ScheduleHandler,
	reportHandler *handler.ReportHandler,
	complexHandler *handler.ComplexHandler,
	transferHandler *handler.TransferHandler,
	messagingHandler *handler.MessagingHandler,
	botHandler *handler.BotHandler,
	activityHandler *handler.ActivityHandler,
) *Router {
	return &Router{
		cfg:              cfg,
		logger:           logger,
		authMiddleware:   authMiddleware,
		rateLimiter:      rateLimiter,
		auditMiddleware:  auditMiddleware,
		healthHandler:    healthHandler,
		authHandler:      authHandler,
		residentHandler:  residentHandler,
		scheduleHandler:  scheduleHandler,
		reportHandler:    reportHandler,
		complexHandler:   complexHandler,
		transferHandler:  transferHandler,
		messagingHandler: messagingHandler,
		botHandler:       botHandler,
		activityHandler:  activityHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	// Health checks
	r.Get("/health", rt.healthHandler.Live)
	r.Get("/health/ready", rt.healthHandler.Ready)
	r.Get("/health/db", rt.healthHandler.Database)

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Public auth routes
	r.With(rt.rateLimiter.LimitLogin).Post("/login", rt.authHandler.Login)
	r.Post("/register", rt.authHandler.Register)
	r.Post("/forgot-password", rt.authHandler.ForgotPassword)

	// Bot integration, authenticated by API key
	r.Route("/api/bot", func(r chi.Router) {
		r.Use(rt.authMiddleware.RequireAPIKey)
		r.Post("/new-lead", rt.botHandler.NewLead)
		r.Post("/report-issue", rt.botHandler.ReportIssue)
		r.Post("/check-status", rt.botHandler.CheckStatus)
	})

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(middleware.CaptureUser)
		r.Use(rt.auditMiddleware.Audit)

		// lawyer status and blocked slots are written by lawyers only
		lawyerOnly := rt.authMiddleware.RequireRole(domain.RoleLawyer, domain.RoleAdmin)

		r.Post("/change-password", rt.authHandler.ChangePassword)

		// Residents and documents
		r.Post("/update-resident-data", rt.residentHandler.UpdateResidentData)
		r.Get("/residents-by-address", rt.residentHandler.ResidentsByAddress)
		r.Get("/api/secondary-owners/{id}", rt.residentHandler.SecondaryOwners)
		r.Get("/api/residents/{id}/documents", rt.residentHandler.Documents)
		r.With(rt.rateLimiter.LimitUpload).Post("/upload-resident-doc", rt.residentHandler.UploadResidentDoc)
		r.With(lawyerOnly).Post("/lawyer/update-resident", rt.residentHandler.LawyerUpdate)
		r.Get("/download-doc/{filename}", rt.residentHandler.DownloadDoc)

		// Scheduling
		r.With(lawyerOnly).Post("/api/lawyer/block-time", rt.scheduleHandler.BlockTime)
		r.Post("/api/add-task", rt.scheduleHandler.AddTask)
		r.Get("/api/meetings", rt.scheduleHandler.Meetings)
		r.Get("/api/tasks", rt.scheduleHandler.Tasks)

		// Reports
		r.Get("/project-stats", rt.reportHandler.ProjectStats)
		r.Get("/manager/stats", rt.reportHandler.ManagerStats)
		r.Get("/lawyer/projects", rt.reportHandler.LawyerProjects)
		r.Get("/my-buildings", rt.reportHandler.MyBuildings)
		r.Get("/api/complex-details", rt.reportHandler.ComplexDetails)

		// Projects and complexes
		r.Get("/api/projects", rt.complexHandler.ListProjects)
		r.Get("/api/complexes-data", rt.complexHandler.ComplexesData)
		r.Post("/api/update-complex", rt.complexHandler.UpdateComplex)
		r.Get("/download-complex-file/{kind}/{filename}", rt.complexHandler.DownloadComplexFile)

		// Messaging
		r.Get("/api/staff/users", rt.messagingHandler.StaffUsers)
		r.Post("/api/staff/send", rt.messagingHandler.SendStaff)
		r.Get("/api/staff/history", rt.messagingHandler.StaffHistory)
		r.Get("/staff-files/{filename}", rt.messagingHandler.StaffFile)
		r.Get("/api/chat/history/{residentId}", rt.messagingHandler.ChatHistory)
		r.Post("/api/chat/send", rt.messagingHandler.SendChat)

		r.Get("/export-project/{projectName}", rt.transferHandler.ExportProject)
		r.Get("/api/activity", rt.activityHandler.List)

		// Administration
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.RequireAdmin)

			r.Post("/add-user", rt.authHandler.AddUser)
			r.Get("/users", rt.authHandler.ListUsers)
			r.Post("/approve-user", rt.authHandler.ApproveUser)
			r.Post("/delete-user", rt.authHandler.DeleteUser)

			r.With(rt.rateLimiter.LimitUpload).Post("/upload", rt.transferHandler.Upload)

			r.Post("/delete-project", rt.complexHandler.DeleteProject)
			r.Post("/delete-complex", rt.complexHandler.DeleteComplex)
			r.Post("/api/update-project", rt.complexHandler.UpdateProject)
		})
	})

	return r
}
