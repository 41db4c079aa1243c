package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	"github.com/GoSim-25-26J-441/erp-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/email"
	"github.com/GoSim-25-26J-441/erp-backend/internal/invoices"
	invoicerepo "github.com/GoSim-25-26J-441/erp-backend/internal/invoices/repository"
	"github.com/GoSim-25-26J-441/erp-backend/internal/jobs"
	"github.com/GoSim-25-26J-441/erp-backend/internal/logging"
	"github.com/GoSim-25-26J-441/erp-backend/internal/realtime"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

// The worker runs the recurring jobs outside the API process. Pass
// "run <job>" to execute one job immediately and exit.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.System{}
	pool, err := postgres.OpenPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Without Redis there is no hub to reach from this process, so the
	// summary only lands in the log.
	notifier := realtime.NewNotifier(realtime.NewHub(cfg.CORS.AllowedOrigins, logger), rdb, clk, logger)
	overdue := invoices.NewMarkOverdueJob(invoicerepo.NewInvoiceRepository(pool), email.NewSender(cfg.SMTP, logger), notifier, clk, logger)

	if len(os.Args) > 1 {
		if len(os.Args) < 3 || os.Args[1] != "run" {
			log.Fatal("usage: worker [run <job>]")
		}
		if os.Args[2] != invoices.JobName {
			log.Fatalf("unknown job: %s", os.Args[2])
		}
		n, err := overdue.Run(ctx)
		if err != nil {
			logger.Fatal("job failed", zap.String("job", invoices.JobName), zap.Error(err))
		}
		logger.Info("job completed", zap.String("job", invoices.JobName), zap.Int("invoices", n))
		return
	}

	scheduler := jobs.NewScheduler(logger)
	if err := jobs.RegisterDefaults(scheduler, overdue, nil, logger); err != nil {
		logger.Fatal("register jobs", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("worker started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", zap.Error(err))
	}
	logger.Info("worker stopped")
}
