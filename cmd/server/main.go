package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/wefixit/wefixit-backend/internal/auth"
	"github.com/wefixit/wefixit-backend/internal/config"
	"github.com/wefixit/wefixit-backend/internal/database"
	"github.com/wefixit/wefixit-backend/internal/handlers"
	"github.com/wefixit/wefixit-backend/internal/logging"
	"github.com/wefixit/wefixit-backend/internal/metrics"
	"github.com/wefixit/wefixit-backend/internal/middleware"
	"github.com/wefixit/wefixit-backend/internal/routes"
	"github.com/wefixit/wefixit-backend/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := logging.New(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.WithField("uri", logging.MaskURI(cfg.MongoURI)).Info("Connecting to MongoDB...")
	client, err := database.Connect(ctx, cfg.MongoURI, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := database.Disconnect(client); err != nil {
			logger.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	db := client.Database(cfg.MongoDB)

	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := services.EnsureIndexes(indexCtx, db); err != nil {
		logger.WithError(err).Warn("Failed to ensure MongoDB indexes")
	} else {
		logger.Info("MongoDB indexes ensured")
	}
	cancel()

	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURI)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, using in-process login limiter and event hub")
			redisClient = nil
		} else {
			logger.Info("Connected to Redis")
			defer redisClient.Close()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	var limiter middleware.LoginLimiter
	if redisClient != nil {
		limiter = middleware.NewRedisLoginLimiter(redisClient)
	} else {
		limiter = middleware.NewMemoryLoginLimiter()
	}

	storage, uploadDir := newStorage(cfg, logger)

	hub := services.NewEventHub(redisClient, logger, m)
	go hub.Run(ctx)

	notifier := services.NewNotifier(cfg.Mail, logger, m)

	admins := services.NewAdminStore(db)
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	gate := middleware.NewAuthGate(tokens, admins, logger)

	deps := routes.Deps{
		Auth:      handlers.NewAuthHandler(auth.NewAuthenticator(admins, tokens, logger), limiter, m, logger),
		Contacts:  handlers.NewContactHandler(services.NewContactStore(db), notifier, hub, logger),
		Quotes:    handlers.NewQuoteHandler(services.NewQuoteStore(db), notifier, hub, logger),
		Portfolio: handlers.NewPortfolioHandler(services.NewPortfolioStore(db), storage, logger),
		Reviews:   handlers.NewReviewHandler(services.NewReviewStore(db), hub, logger),
		Projects:  handlers.NewProjectHandler(services.NewProjectStore(db), logger),
		Events:    handlers.NewEventsHandler(hub, cfg.AllowedOrigins, logger),
		System: handlers.NewSystemHandler(cfg.ProjectName, func(ctx context.Context) ([]string, error) {
			return services.ListCollections(ctx, db)
		}, logger),
		Gate:         gate,
		LoginLimiter: limiter,
		Submissions:  middleware.SubmissionRateLimit(ctx),
		Metrics:      m,
		UploadDir:    uploadDir,
		Logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(ctx) {
			r.Use(mw)
		}
		logger.Info("Production security enabled (security headers, per-IP rate limiting)")
	}
	routes.SetupRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Environment}).Infof("%s running", cfg.ProjectName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

// newStorage picks Cloudinary when configured and the local upload
// directory otherwise. The directory is returned when it must be served.
func newStorage(cfg *config.Config, logger *logrus.Logger) (services.Storage, string) {
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryStorage(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if err == nil {
			logger.Info("Cloudinary image storage enabled")
			return cld, ""
		}
		logger.WithError(err).Warn("Failed to initialise Cloudinary, storing images locally")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create upload directory")
	}
	return services.NewLocalStorage(cfg.UploadDir, "/uploads"), cfg.UploadDir
}
