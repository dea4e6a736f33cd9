package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/idseva-booking/cmd/mainconfig"
	"github.com/wolfman30/idseva-booking/internal/accounts"
	"github.com/wolfman30/idseva-booking/internal/api/router"
	"github.com/wolfman30/idseva-booking/internal/app/bootstrap"
	"github.com/wolfman30/idseva-booking/internal/assistant"
	"github.com/wolfman30/idseva-booking/internal/audit"
	"github.com/wolfman30/idseva-booking/internal/biometric"
	"github.com/wolfman30/idseva-booking/internal/bookings"
	appconfig "github.com/wolfman30/idseva-booking/internal/config"
	"github.com/wolfman30/idseva-booking/internal/database"
	httpmiddleware "github.com/wolfman30/idseva-booking/internal/http/middleware"
	"github.com/wolfman30/idseva-booking/internal/notify"
	"github.com/wolfman30/idseva-booking/internal/observability/metrics"
	"github.com/wolfman30/idseva-booking/internal/session"
	"github.com/wolfman30/idseva-booking/internal/slots"
	"github.com/wolfman30/idseva-booking/internal/updates"
	"github.com/wolfman30/idseva-booking/internal/verification"
	"github.com/wolfman30/idseva-booking/pkg/logging"
)

func main() {
	loadedEnv := appconfig.LoadDotEnv()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting idseva booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"dotenv", loadedEnv,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
		if cfg.AutoMigrate {
			if err := migrateDatabase(cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("database migrations applied")
		}
	} else if cfg.IsProduction() {
		return errors.New("DATABASE_URL is required in production")
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &loaded
	}

	metricsHandler, bookingMetrics := setupMetrics()

	sessions, err := setupSessions(cfg, redisClient, logger)
	if err != nil {
		return err
	}

	var stores bootstrap.Stores
	if pool != nil {
		stores = bootstrap.BuildStores(pool, redisClient, cfg.CenterCacheTTL, logger)
	} else {
		stores = bootstrap.BuildStores(nil, redisClient, cfg.CenterCacheTTL, logger)
	}

	auditSvc := audit.NewService(auditDB(pool))
	notifier := notify.NewService(bootstrap.BuildEmailSender(awsCfg, cfg, logger), logger)
	verifier := biometric.NewVerifier(biometric.Thresholds{
		Booking:       cfg.FaceMatchThresholdBooking,
		ProfileUpdate: cfg.FaceMatchThresholdProfile,
	})
	gate := verification.NewGate(verifier, bookingMetrics, auditSvc, logger)

	accountSvc := accounts.NewService(stores.Users, bootstrap.BuildFaceStore(awsCfg, cfg, logger), sessions, logger)
	bookingSvc := bookings.NewService(stores.Bookings, stores.Slots, accountSvc, gate, notifier, auditSvc, bookingMetrics, logger).
		WithWindow(cfg.BookingWindowDays)
	updateSvc := updates.NewService(stores.Updates, accountSvc, gate, notifier, auditSvc, bookingMetrics, logger)

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	provisioner := slots.NewProvisioner(stores.Slots, cfg.BookingWindowDays, logger).
		WithInterval(cfg.SlotProvisionInterval).
		WithCapacity(cfg.SlotCapacity).
		WithTimes(cfg.SlotDayTimes)

	handler := router.New(&router.Config{
		Logger:             logger,
		Sessions:           sessions,
		Accounts:           accounts.NewHandler(accountSvc, logger),
		Slots:              slots.NewHandler(stores.Slots, cfg.BookingWindowDays, bookingMetrics, logger),
		Bookings:           bookings.NewHandler(bookingSvc, logger),
		Updates:            updates.NewHandler(updateSvc, logger),
		Assistant:          assistant.NewHandler(cfg.CORSAllowedOrigins, logger),
		Activity:           audit.NewHandler(auditSvc, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		Ready:              bootstrap.Ready(pool, redisClient),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	bootstrap.StartWorkers(gctx, g, logger,
		bootstrap.Worker{Name: "slot-provisioner", Run: provisioner.Run},
		bootstrap.Worker{Name: "rate-limit-eviction", Run: func(ctx context.Context) {
			limiter.RunEviction(ctx, time.Minute, 10*time.Minute)
		}},
	)

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr, "persistent", stores.Persistent)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// connectPostgresPool returns nil when no URL is configured or the database
// is unreachable, so the server can fall back to in-memory stores.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := database.Connect(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		return nil
	}
	logger.Info("connected to postgres")
	return pool
}

func migrateDatabase(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration db: %w", err)
	}
	m, err := database.NewMigrator(db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _, _ = m.Close() }()
	return database.MigrateUp(m)
}

func auditDB(pool *pgxpool.Pool) *sql.DB {
	if pool == nil {
		return nil
	}
	return stdlib.OpenDBFromPool(pool)
}

// setupMetrics registers the booking metrics and runtime collectors on a
// dedicated registry.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewBookingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// setupSessions builds the session manager. Outside production a missing
// secret is replaced by a random one, which invalidates tokens on restart.
func setupSessions(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (*session.Manager, error) {
	secret := cfg.SessionJWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SESSION_JWT_SECRET is required in production")
		}
		generated, err := gonanoid.New(48)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		secret = generated
		logger.Warn("SESSION_JWT_SECRET not set; using an ephemeral secret")
	}
	var revoker session.Revoker = session.NewMemoryRevoker()
	if redisClient != nil {
		revoker = session.NewRedisRevoker(redisClient)
	}
	return session.NewManager(secret, cfg.SessionTTL, revoker)
}
