// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/HOLYLABS972/esim-main-sub001/internal/config"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/adapter"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/adapters/airalo"
	payAdapters "github.com/HOLYLABS972/esim-main-sub001/internal/infra/adapters/payment"
	mdb "github.com/HOLYLABS972/esim-main-sub001/internal/infra/db/mongo"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/metrics"
	red "github.com/HOLYLABS972/esim-main-sub001/internal/infra/redis"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/sched"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/web"
	"github.com/HOLYLABS972/esim-main-sub001/internal/infra/worker"
	"github.com/HOLYLABS972/esim-main-sub001/internal/usecase"
)

func newLogger(cfg *config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(&cfg.Log)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Mongo ----
	db, closeDB, err := mdb.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("mongo")
	}
	defer closeDB()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	pendingCache := red.NewPendingOrderCache(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	orderRepo := mdb.NewOrderRepo(db)
	statusRepo := mdb.NewStatusRepo(db)
	topupRepo := mdb.NewTopupRepo(db)
	planRepo := mdb.NewPlanRepo(db)
	countryRepo := mdb.NewCountryRepo(db)
	regionRepo := mdb.NewRegionRepo(db)
	referralRepo := mdb.NewReferralRepo(db)
	userRepo := mdb.NewUserRepo(db)

	// ---- eSIM provider ----
	esim, err := airalo.NewClient(&cfg.Airalo, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("airalo client")
	}

	// ---- Payment providers ----
	payments := map[string]adapter.PaymentProvider{}
	if cfg.Payment.Stripe.APIKey != "" {
		gw, err := payAdapters.NewStripeGateway(cfg.Payment.Stripe.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("stripe gateway")
		}
		payments[gw.Name()] = gw
	}
	if cfg.Payment.Coinbase.APIKey != "" {
		gw, err := payAdapters.NewCoinbaseGateway(cfg.Payment.Coinbase.APIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("coinbase gateway")
		}
		payments[gw.Name()] = gw
	}
	if ls := cfg.Payment.LemonSqueezy; ls.APIKey != "" {
		gw, err := payAdapters.NewLemonSqueezyGateway(ls.APIKey, ls.StoreID, ls.VariantID)
		if err != nil {
			logger.Fatal().Err(err).Msg("lemonsqueezy gateway")
		}
		payments[gw.Name()] = gw
	}
	if len(payments) == 0 {
		logger.Fatal().Msg("no payment provider configured: set payment.stripe.api_key, payment.coinbase.api_key or payment.lemonsqueezy.*")
	}

	// ---- Worker pool ----
	pool := worker.NewPool(cfg.Sync.Workers, &logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- Use cases ----
	reconcileUC := usecase.NewReconcileUseCase(
		orderRepo, statusRepo, topupRepo, pendingCache, locker, esim, payments,
		cfg.Sync.PollInterval, cfg.Sync.PollMaxAttempts, &logger,
	)
	checkoutUC := usecase.NewCheckoutUseCase(planRepo, pendingCache, payments, cfg.Server.SuccessURL, cfg.Server.CancelURL, &logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, topupRepo, esim, &logger)
	planUC := usecase.NewPlanUseCase(planRepo, countryRepo, &logger)
	catalogUC := usecase.NewCatalogUseCase(countryRepo, regionRepo, &logger)
	referralUC := usecase.NewReferralUseCase(referralRepo, &logger)
	syncUC := usecase.NewSyncUseCase(esim, planRepo, countryRepo, regionRepo, pool, &logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, userRepo)
	srv := web.NewServer(reconcileUC, checkoutUC, orderUC, planUC, catalogUC, referralUC, syncUC, userRepo, auth, &logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Background workers ----
	go sched.NewCatalogSyncWorker(syncUC, cfg.Sync.Interval, &logger).Start(ctx)
	go sched.NewOrderReconciler(orderRepo, statusRepo, esim, cfg.Sync.ReconcileEvery, cfg.Sync.StaleAfter, &logger).Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	_ = server.Shutdown(shutCtx)
}
