package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	httpapi "github.com/GoSim-25-26J-441/erp-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/erp-backend/internal/api/http/routes"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	authhttp "github.com/GoSim-25-26J-441/erp-backend/internal/auth/http"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/service"
	"github.com/GoSim-25-26J-441/erp-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/email"
	"github.com/GoSim-25-26J-441/erp-backend/internal/files"
	"github.com/GoSim-25-26J-441/erp-backend/internal/invoices"
	invoicerepo "github.com/GoSim-25-26J-441/erp-backend/internal/invoices/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/jobs"
	"github.com/GoSim-25-26J-441/erp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/erp-backend/internal/pipeline"
	"github.com/GoSim-25-26J-441/erp-backend/internal/projects"
	projecthttp "github.com/GoSim-25-26J-441/erp-backend/internal/projects/http"
	projectrepo "github.com/GoSim-25-26J-441/erp-backend/internal/projects/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/realtime"
	"github.com/GoSim-25-26J-441/erp-backend/internal/seed"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/erp-backend/internal/users"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	clk := clock.System{}

	pool, err := postgres.OpenPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.IsDevelopment() {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			return err
		}
	}

	identityDB, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		return err
	}
	defer identityDB.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var cacheStore cache.Store = cache.NewMemoryStore(clk)
	if rdb != nil {
		defer rdb.Close()
		cacheStore = cache.NewRedisStore(rdb, "", clk)
	}
	stats := &cache.Stats{}

	// Identity
	accounts := repository.NewUserRepository(identityDB)
	userRepo := users.NewRepo(pool)
	resolver := auth.NewResolver(accounts, userRepo, logger)
	defer resolver.Wait()

	issuer := auth.NewJWTIssuer(cfg.JWT, clk)
	verifier := auth.ChainVerifier{issuer}
	if cfg.Firebase.CredentialsFile != "" {
		fb, err := auth.InitializeFirebase(ctx, cfg.Firebase)
		if err != nil {
			return err
		}
		verifier = append(verifier, auth.NewFirebaseVerifier(fb))
	}
	identity := service.NewIdentityService(accounts, cfg.JWT.SecretKey, clk)

	// Realtime
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, logger)
	notifier := realtime.NewNotifier(hub, rdb, clk, logger)
	go func() {
		if err := notifier.Subscribe(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification subscription ended", zap.Error(err))
		}
	}()

	mailer := email.NewSender(cfg.SMTP, logger)

	storage, err := files.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	// Request pipeline
	auditor := postgres.NewAuditor(clk, logger)
	mediator := pipeline.New(pipeline.Defaults(logger, cacheStore, stats)...)
	projects.Register(mediator, projects.Deps{
		Store:   projectrepo.NewProjectRepository(pool),
		Auditor: auditor,
		Cache:   cacheStore,
		Clock:   clk,
		Logger:  logger,
	})

	userService := users.NewBusinessUserService(userRepo, accounts, auditor, logger)
	seedService := seed.NewService(seed.NewRepo(pool), clk, cfg.App.Environment, logger)

	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(logger)
		overdue := invoices.NewMarkOverdueJob(invoicerepo.NewInvoiceRepository(pool), mailer, notifier, clk, logger)
		if err := jobs.RegisterDefaults(scheduler, overdue, stats, logger); err != nil {
			return err
		}
		scheduler.Start()
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:   cfg,
		Logger:   logger,
		Clock:    clk,
		DB:       pool,
		Redis:    rdb,
		Verifier: verifier,
		Resolver: resolver,
		API: routes.APIDeps{
			Diagnostics: httpapi.NewDiagnosticsHandler(cfg.App.Environment, clk),
			Auth:        authhttp.New(issuer, clk),
			Accounts:    authhttp.NewAccountHandler(identity, mailer, logger),
			Projects:    projecthttp.New(mediator, notifier, logger),
			Users:       users.NewHandler(userService),
			Files:       files.NewHandler(storage, logger),
			Seed:        seed.NewHandler(seedService),
			Hub:         hub,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", srv.Addr), zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler stop", zap.Error(err))
		}
	}
	return srv.Shutdown(shutdownCtx)
}
