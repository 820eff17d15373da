package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MrPhilosopher04/P3m-polimdo-sub000/api/swagger"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/handler"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/middleware"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/cache"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/config"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/database"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/jobs"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/logger"
	corsmiddleware "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/middleware/requestid"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/storage"
)

// @title P3M Polimdo API
// @version 1.0.0
// @description Research and community-service proposal workflow
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const statusMetricsInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.queue.Stop()

	go refreshStatusMetrics(ctx, app.proposals, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type application struct {
	router    *gin.Engine
	queue     *jobs.Queue
	proposals *service.ProposalService
}

func build(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	schemeRepo := repository.NewSchemeRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		redisRepo := repository.NewCacheRepository(redisClient, logr)
		cacheRepo = redisRepo
		checks["redis"] = redisRepo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	notifications := service.NewNotificationService(notificationRepo, metrics, logr)
	queue := jobs.NewQueue("notifications", notifications.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.Retries,
		Logger:     logr,
	})
	queue.Start(ctx)
	notifications.AttachQueue(queue)

	blobs, err := storage.NewLocalStorage(cfg.Documents.StorageDir, cfg.Documents.MaxFileSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("init document storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Documents.SignedURLSecret, cfg.Documents.SignedURLTTL)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "p3m-polimdo",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	schemeSvc := service.NewSchemeService(schemeRepo, userRepo, cacheSvc, validate, logr)
	proposalSvc := service.NewProposalService(proposalRepo, userRepo, schemeSvc, reviewRepo, notifications, metrics, service.ProposalConfig{
		MinAbstractLength: cfg.Workflow.MinAbstractLength,
		AuditOverrides:    cfg.Workflow.AuditOverrides,
	}, validate, logr)
	reviewSvc := service.NewReviewService(reviewRepo, proposalRepo, userRepo, notifications, metrics, cfg.Workflow.MaxReviewNoteLength, logr)
	documentSvc := service.NewDocumentService(documentRepo, proposalRepo, blobs, signer, userRepo, service.DocumentConfig{
		APIPrefix:        cfg.APIPrefix,
		MaxFileSize:      cfg.Documents.MaxFileSizeBytes,
		AllowedMimeTypes: cfg.Documents.AllowedMIMEs,
	}, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, userRepo, validate, logr)
	referenceSvc := service.NewReferenceService(referenceRepo, cacheSvc)
	exportSvc := service.NewExportService(proposalRepo, schemeSvc, userRepo, nil, nil, logr)
	dashboardSvc := service.NewDashboardService(proposalSvc, proposalRepo, announcementSvc, cacheSvc, service.DashboardConfig{}, logr)

	h := handlers{
		auth:          handler.NewAuthHandler(authSvc),
		users:         handler.NewUserHandler(userSvc),
		schemes:       handler.NewSchemeHandler(schemeSvc),
		proposals:     handler.NewProposalHandler(proposalSvc),
		reviews:       handler.NewReviewHandler(reviewSvc),
		documents:     handler.NewDocumentHandler(documentSvc),
		announcements: handler.NewAnnouncementHandler(announcementSvc),
		reference:     handler.NewReferenceHandler(referenceSvc),
		notifications: handler.NewNotificationHandler(notifications),
		exports:       handler.NewExportHandler(exportSvc),
		dashboard:     handler.NewDashboardHandler(dashboardSvc),
		metrics:       handler.NewMetricsHandler(metrics, checks),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metrics))
		r.GET("/metrics", h.metrics.Prometheus)
	}
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Swagger.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), h, authSvc, userRepo, logr)

	return &application{router: r, queue: queue, proposals: proposalSvc}, nil
}

type handlers struct {
	auth          *handler.AuthHandler
	users         *handler.UserHandler
	schemes       *handler.SchemeHandler
	proposals     *handler.ProposalHandler
	reviews       *handler.ReviewHandler
	documents     *handler.DocumentHandler
	announcements *handler.AnnouncementHandler
	reference     *handler.ReferenceHandler
	notifications *handler.NotificationHandler
	exports       *handler.ExportHandler
	dashboard     *handler.DashboardHandler
	metrics       *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h handlers, authSvc *service.AuthService, auditRepo *repository.UserRepository, logr *zap.Logger) {
	admin := middleware.RequireAdmin()
	proposers := middleware.RequireRoles(models.RoleDosen, models.RoleMahasiswa, models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/login", h.auth.Login)
	auth.POST("/refresh", h.auth.Refresh)

	api.GET("/documents/download/:token",
		middleware.OptionalJWT(authSvc),
		middleware.Audit(auditRepo, models.AuditActionDocumentDownload, "documents", logr),
		h.documents.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(authSvc))

	secured.POST("/auth/logout", h.auth.Logout)
	secured.POST("/auth/change-password", h.auth.ChangePassword)
	secured.GET("/auth/me", h.auth.Me)
	secured.GET("/dashboard", h.dashboard.Summary)

	users := secured.Group("/users")
	users.GET("/reviewers", admin, h.users.Reviewers)
	users.GET("", admin, h.users.List)
	users.POST("", admin, h.users.Create)
	users.GET("/:id", admin, h.users.Get)
	users.PUT("/:id", admin, h.users.Update)
	users.DELETE("/:id", admin, h.users.Deactivate)

	schemes := secured.Group("/schemes")
	schemes.GET("", h.schemes.List)
	schemes.GET("/:id", h.schemes.Get)
	schemes.POST("", admin, h.schemes.Create)
	schemes.PUT("/:id", admin, h.schemes.Update)
	schemes.DELETE("/:id", admin, h.schemes.Delete)

	reference := secured.Group("/reference")
	reference.GET("/departments", h.reference.Departments)
	reference.GET("/programs", h.reference.Programs)

	proposals := secured.Group("/proposals")
	proposals.GET("", h.proposals.List)
	proposals.POST("", proposers, h.proposals.Create)
	proposals.GET("/:id", h.proposals.Get)
	proposals.PUT("/:id", h.proposals.Update)
	proposals.DELETE("/:id", h.proposals.Delete)
	proposals.POST("/:id/submit", h.proposals.Submit)
	proposals.PUT("/:id/members", h.proposals.UpdateMembers)
	proposals.POST("/:id/reviewer", admin, h.proposals.AssignReviewer)
	proposals.POST("/:id/status", admin, h.proposals.Override)
	proposals.GET("/:id/history", h.proposals.History)
	proposals.GET("/:id/reviews", h.reviews.List)
	proposals.PUT("/:id/reviews", h.reviews.Record)
	proposals.GET("/:id/reviews/me", h.reviews.Mine)
	proposals.GET("/:id/documents", h.documents.List)
	proposals.POST("/:id/documents", h.documents.Upload)

	documents := secured.Group("/documents")
	documents.GET("/:id/link", h.documents.Link)
	documents.DELETE("/:id", h.documents.Delete)

	announcements := secured.Group("/announcements")
	announcements.GET("", h.announcements.List)
	announcements.GET("/:id", h.announcements.Get)
	announcements.POST("", admin, h.announcements.Create)
	announcements.PUT("/:id", admin, h.announcements.Update)
	announcements.DELETE("/:id", admin, h.announcements.Delete)

	notifications := secured.Group("/notifications")
	notifications.GET("", h.notifications.List)
	notifications.POST("/:id/read", h.notifications.MarkRead)

	secured.GET("/exports/proposals", admin, h.exports.Recap)
}

func refreshStatusMetrics(ctx context.Context, proposals *service.ProposalService, logr *zap.Logger) {
	ticker := time.NewTicker(statusMetricsInterval)
	defer ticker.Stop()
	for {
		if err := proposals.RefreshStatusMetrics(ctx); err != nil {
			logr.Warn("failed to refresh proposal status metrics", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
