package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/helios-erp/helios-erp/internal/app"
	"github.com/helios-erp/helios-erp/internal/invoicing"
	"github.com/helios-erp/helios-erp/internal/ledger"
	"github.com/helios-erp/helios-erp/internal/payments"
	"github.com/helios-erp/helios-erp/internal/payroll"
	"github.com/helios-erp/helios-erp/internal/platform/cache"
	"github.com/helios-erp/helios-erp/internal/platform/db"
	"github.com/helios-erp/helios-erp/internal/purchasing"
	"github.com/helios-erp/helios-erp/internal/reporting"
	"github.com/helios-erp/helios-erp/internal/store/memstore"
	"github.com/helios-erp/helios-erp/internal/store/pgstore"
	"github.com/helios-erp/helios-erp/internal/tax"
)

// dataStore is what both persistence backends provide.
type dataStore interface {
	Ledger() ledger.Store
	Invoicing() invoicing.Store
	Payments() payments.Store
	Payroll() payroll.Store
	Purchasing() purchasing.Store
	reporting.Repository
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	tables, err := tax.Load(cfg.TaxTablePath)
	if err != nil {
		logger.Error("load tax tables", slog.Any("error", err))
		os.Exit(1)
	}

	var store dataStore
	switch cfg.StoreDriver {
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store = pgstore.New(pool)
	default:
		store = memstore.New()
	}
	logger.Info("store ready", slog.String("driver", cfg.StoreDriver))

	var reportCache *reporting.Cache
	if cfg.RedisAddr != "" {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		reportCache = reporting.NewCache(redisClient, cfg.CacheTTL)
		go func() {
			if err := reportCache.ListenForInvalidation(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("cache invalidation listener", slog.Any("error", err))
			}
		}()
	}

	codes := ledger.DefaultCodes()

	ledgerService := ledger.NewService(store.Ledger(), reportCache)
	if cfg.SeedChart {
		if err := ledgerService.SeedChart(ctx, ledger.DefaultChart()); err != nil {
			logger.Error("seed chart", slog.Any("error", err))
			os.Exit(1)
		}
	}

	invoicingService := invoicing.NewService(store.Invoicing(), codes)
	invoicingService.WithInvalidator(reportCache)
	paymentsService := payments.NewService(store.Payments(), codes)
	paymentsService.WithInvalidator(reportCache)
	payrollService := payroll.NewService(store.Payroll(), codes, tables)
	payrollService.WithInvalidator(reportCache)
	purchasingService := purchasing.NewService(store.Purchasing(), codes)
	purchasingService.WithInvalidator(reportCache)
	reportingService := reporting.NewService(store, reportCache, codes)

	validate := validator.New()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		LedgerHandler:     ledger.NewHandler(logger, ledgerService, validate),
		InvoicingHandler:  invoicing.NewHandler(logger, invoicingService, validate),
		PaymentsHandler:   payments.NewHandler(logger, paymentsService, validate),
		PayrollHandler:    payroll.NewHandler(logger, payrollService, validate),
		PurchasingHandler: purchasing.NewHandler(logger, purchasingService, validate),
		ReportingHandler:  reporting.NewHandler(logger, reportingService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
