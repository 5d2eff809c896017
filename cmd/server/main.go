package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	documentapp "github.com/erp/rental/internal/application/document"
	duesapp "github.com/erp/rental/internal/application/dues"
	"github.com/erp/rental/internal/bootstrap"
	"github.com/erp/rental/internal/infrastructure/cache"
	"github.com/erp/rental/internal/infrastructure/config"
	"github.com/erp/rental/internal/infrastructure/event"
	"github.com/erp/rental/internal/infrastructure/logger"
	"github.com/erp/rental/internal/infrastructure/persistence"
	"github.com/erp/rental/internal/infrastructure/scheduler"
	"github.com/erp/rental/internal/infrastructure/storage"
	"github.com/erp/rental/internal/infrastructure/telemetry"
	"github.com/erp/rental/internal/interfaces/http/handler"
	"github.com/erp/rental/internal/interfaces/http/middleware"
	"github.com/erp/rental/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

//	@title			Rental Ledger API
//	@version		1.0
//	@description	Tenant ledger for rented rooms: agreements, collections, dues and statements.

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/rental

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry providers. Signals that are off stay on the no-op globals.
	providers, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Metrics:           cfg.Telemetry.MetricsEnabled,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		Logs:              cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	var level zapcore.Level
	if err := level.Set(cfg.Log.Level); err != nil {
		level = zapcore.InfoLevel
	}
	log = providers.Bridge(log, level, cfg.Telemetry.ServiceName)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:          cfg.Telemetry.ProfilingEnabled,
		ServerAddress:    cfg.Telemetry.PyroscopeAddress,
		ApplicationName:  cfg.Telemetry.ServiceName,
		AuthToken:        cfg.Telemetry.ProfilingAuthToken,
		ProfileTypes:     cfg.Telemetry.ProfileTypes,
		Environment:      cfg.App.Env,
		MutexProfileRate: cfg.Telemetry.MutexProfileRate,
		BlockProfileRate: cfg.Telemetry.BlockProfileRate,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		providers.LinkProfiles()
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting rental ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.GormConfig{
		Level:         logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})

	db, err := persistence.Open(ctx, &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	// PostgreSQL schemas come from cmd/migrate; a SQLite file is created in place
	if db.Driver == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if db.Driver == persistence.DriverSQLite {
		dbTracing.DBSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	ledgerMetrics, err := telemetry.NewLedgerMetricsFromProvider(providers)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Shared dues snapshot. Without Redis each instance keeps its own.
	duesStore, err := cache.NewDuesStoreFactory(cfg.Redis,
		cache.WithLogger(log.Named("cache")),
		cache.WithInMemoryFallback(true),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create dues store", zap.Error(err))
	}
	defer func() {
		if err := duesStore.Close(); err != nil {
			log.Error("Error closing dues store", zap.Error(err))
		}
	}()
	var redisClient *redis.Client
	if rs, ok := duesStore.(*cache.RedisDuesStore); ok {
		redisClient = rs.Client()
	}

	// Document files go to S3 when configured, otherwise to a stub that
	// hands out unserved URLs
	var objects documentapp.ObjectStorage = storage.NewStubObjectStorage("")
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			log.Fatal("Failed to configure object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err))
		}
		objects = s3Store
		log.Info("Object storage connected", zap.String("bucket", s3Store.Bucket()))
	} else {
		log.Warn("Object storage disabled, document uploads go nowhere")
	}

	eventBus := event.NewInMemoryEventBus(log.Named("events"))

	opts := []bootstrap.Option{
		bootstrap.WithLogger(log),
		bootstrap.WithMetrics(ledgerMetrics),
		bootstrap.WithEventPublisher(eventBus),
		bootstrap.WithDuesStore(duesStore),
		bootstrap.WithLedgerConfig(cfg.Ledger),
		bootstrap.WithImportConfig(cfg.Import),
		bootstrap.WithObjectStorage(objects),
		bootstrap.WithStorageConfig(cfg.Storage),
	}
	// Import sessions follow the dues snapshot into Redis, so any instance
	// can run a file another one validated
	if redisClient != nil {
		opts = append(opts, bootstrap.WithImportSessions(
			cache.NewRedisImportSessions(redisClient, "", cfg.Import.SessionTTL)))
	}
	svc := bootstrap.NewServices(bootstrap.NewRepositories(db.DB), opts...)
	defer svc.Close()

	// Money and agreement changes rebuild the dues snapshot
	refresh := duesapp.NewRefreshHandler(svc.Dues, log.Named("dues"))
	eventBus.Subscribe(refresh, refresh.EventTypes()...)
	log.Info("Event handlers registered", zap.Strings("dues_refresh_events", refresh.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	if err := svc.Dues.Warm(ctx); err != nil {
		log.Warn("Failed to load cached dues snapshot", zap.Error(err))
	}

	// Batch jobs are always registered so they can be run through the API;
	// the scheduler and its daily trigger only start when enabled
	jobs := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Enabled:           cfg.Scheduler.Enabled,
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		JobTimeout:        cfg.Scheduler.JobTimeout,
		RetryAttempts:     cfg.Scheduler.RetryAttempts,
		RetryDelay:        cfg.Scheduler.RetryDelay,
		DisabledJobs:      cfg.Scheduler.DisabledJobs,
	}, log.Named("scheduler"))
	svc.RegisterJobs(jobs, cfg.Ledger.InvoicingEnabled)
	svc.RegisterMaintenanceJobs(jobs)

	if cfg.Scheduler.Enabled {
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start job scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobs.Stop(context.Background()); err != nil {
				log.Error("Error stopping job scheduler", zap.Error(err))
			}
		}()

		daily, err := scheduler.ParseDailySchedule(cfg.Scheduler.DailyCronSchedule, cfg.Scheduler.Timezone)
		if err != nil {
			log.Warn("Invalid daily schedule, using default",
				zap.String("schedule", cfg.Scheduler.DailyCronSchedule),
				zap.Error(err),
			)
		}
		trigger := scheduler.NewCronTrigger(daily, jobs, log.Named("cron"))
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start daily trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping daily trigger", zap.Error(err))
			}
		}()
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Server span per request
	// 4. Logger - Log requests
	// 5. Metrics - Request counters and latency, profiling labels
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health"},
	}))
	engine.Use(middleware.SpanAnnotator())
	engine.Use(logger.GinMiddleware(log, "/health"))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Telemetry: providers,
		Enabled:   cfg.Telemetry.MetricsEnabled,
		Logger:    log,
	}))
	engine.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled, "/health"))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDKey, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(middleware.BodyLimits{
		JSON:      cfg.HTTP.MaxBodySize,
		Multipart: cfg.Import.MaxFileSize + 1<<20,
	}))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, db)

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Swagger documentation endpoint
	handler.MountSwagger(engine, middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	}, cfg.Swagger.SpecPath)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Rate limiting is shared across instances when Redis is up
	if cfg.HTTP.RateLimitEnabled {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: cfg.HTTP.RateLimitRequests,
			Window:   cfg.HTTP.RateLimitWindow,
			Prefix:   cfg.App.Name,
		}, redisClient)
		if err != nil {
			log.Fatal("Failed to create rate limiter", zap.Error(err))
		}
		r.Use(middleware.RateLimit(limiter, log))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Bool("shared", redisClient != nil),
		)
	}

	// Requests stop waiting on handlers a little before the server write deadline
	if cfg.HTTP.WriteTimeout > time.Second {
		r.Use(middleware.Timeout(cfg.HTTP.WriteTimeout - time.Second))
	}

	for _, g := range handler.NewHandlers(svc, jobs, systemHandler, cfg.Import.MaxFileSize).Areas() {
		r.Mount(g)
	}
	r.Setup()
	log.Info("Routes registered", zap.Int("routes", len(r.Routes())))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Flush telemetry after the last request
	_ = providers.Shutdown(shutdownCtx)

	log.Info("Server exited gracefully")
}
