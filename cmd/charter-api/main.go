// README: Entry point; loads config, wires services, starts HTTP server, outbox relay and scheduler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"charter/internal/config"
	httptransport "charter/internal/http"
	"charter/internal/http/handlers"
	"charter/internal/infra"
	"charter/internal/maps"
	"charter/internal/modules/estimate"
	"charter/internal/modules/notice"
	"charter/internal/modules/notification"
	"charter/internal/modules/outbox"
	"charter/internal/modules/pricing"
	"charter/internal/modules/review"
	"charter/internal/modules/verification"
	"charter/internal/scheduler"
	"charter/migrations"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("charter-api exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	if err := infra.Migrate(ctx, dbPool, migrations.FS, logger); err != nil {
		return err
	}

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.Bucket)
	if err != nil {
		return err
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		return err
	}
	fcm, err := notification.NewFCMSender(ctx, app)
	if err != nil {
		return err
	}

	// Left as a nil interface when no bucket is configured; reviews then
	// reject image uploads.
	var images review.ImageStore
	if cfg.Firebase.Bucket != "" {
		storageClient, err := app.Storage(ctx)
		if err != nil {
			return err
		}
		images = review.NewFirebaseImageStore(storageClient, cfg.Firebase.Bucket)
	}

	notificationSvc := notification.NewService(notification.NewStore(dbPool), fcm, cfg.Firebase.AdminTopic, logger)

	estimateSvc := estimate.NewService(estimate.NewStore(dbPool), notificationSvc, logger, cfg.Schedule.Location)
	if cfg.SheetFont != "" {
		estimateSvc.UseSheetFont(cfg.SheetFont)
	}

	pricingSvc := pricing.NewService(logger)
	reviewSvc := review.NewService(review.NewStore(dbPool), estimateSvc, images, logger)
	noticeSvc := notice.NewService(notice.NewStore(dbPool))
	verificationSvc := verification.NewService(verification.NewStore(redisClient), verification.NewLogSender(logger))

	var routes handlers.RouteService
	if cfg.Maps.APIKey != "" {
		rs, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		routes = rs
	}

	if cfg.AMQP.URL != "" {
		mq, err := infra.NewRabbitMQ(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return err
		}
		defer mq.Close()
		relay := outbox.NewRelay(outbox.NewStore(dbPool), outbox.NewAMQPPublisher(mq.Chan, cfg.AMQP.Exchange), logger)
		go relay.Run(ctx, cfg.Outbox.Tick)
	} else {
		logger.Warn("CHARTER_AMQP_URL not set; partner messages stay queued in the outbox")
	}

	sched := scheduler.New(cfg.Schedule.Location, logger)
	if err := sched.Register("finish-sweep", cfg.Schedule.FinishCron, func(ctx context.Context) error {
		_, err := estimateSvc.RunFinishSweep(ctx, estimateSvc.Today())
		return err
	}); err != nil {
		return err
	}
	if err := sched.Register("deposit-reminder-sweep", cfg.Schedule.ReminderCron, func(ctx context.Context) error {
		_, err := estimateSvc.RunDepositReminderSweep(ctx)
		return err
	}); err != nil {
		return err
	}
	sched.Start()

	gin.SetMode(gin.ReleaseMode)
	handler, err := httptransport.NewServer(httptransport.ServerDeps{
		Pricing:        pricingSvc,
		Estimates:      estimateSvc,
		Admin:          estimateSvc,
		Reviews:        reviewSvc,
		Notices:        noticeSvc,
		Notifications:  notificationSvc,
		Verification:   verificationSvc,
		Routes:         routes,
		Verifier:       verifier,
		CallbackAllow:  cfg.HTTP.CallbackAllow,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Logger:         logger,
	}).Routes()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			_ = sched.Stop(context.Background())
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", slog.Any("error", err))
	}
	return nil
}
