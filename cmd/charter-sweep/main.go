// README: One-shot sweep runner for external schedulers; prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"charter/internal/config"
	"charter/internal/infra"
	"charter/internal/modules/estimate"
	"charter/internal/modules/notification"
	"charter/internal/modules/pricing"
)

const (
	jobFinish          = "finish"
	jobDepositReminder = "deposit-reminder"
)

type options struct {
	Job     string
	Date    string
	Timeout time.Duration
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.Job, "job", jobFinish, "sweep to run: finish or deposit-reminder")
	flag.StringVar(&opts.Date, "date", "", "finish sweep only: treat this YYYY-MM-DD as today")
	flag.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	res, err := run(cfg, opts, logger)
	if err != nil {
		logger.Error("sweep failed", slog.String("job", opts.Job), slog.Any("error", err))
		os.Exit(1)
	}
	_ = json.NewEncoder(os.Stdout).Encode(res)
}

func run(cfg config.Config, opts options, logger *slog.Logger) (estimate.SweepResult, error) {
	if opts.Job != jobFinish && opts.Job != jobDepositReminder {
		return estimate.SweepResult{}, fmt.Errorf("unknown job %q", opts.Job)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return estimate.SweepResult{}, err
	}
	defer pool.Close()

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.Bucket)
	if err != nil {
		return estimate.SweepResult{}, err
	}
	fcm, err := notification.NewFCMSender(ctx, app)
	if err != nil {
		return estimate.SweepResult{}, err
	}
	notifier := notification.NewService(notification.NewStore(pool), fcm, cfg.Firebase.AdminTopic, logger)
	svc := estimate.NewService(estimate.NewStore(pool), notifier, logger, cfg.Schedule.Location)

	if opts.Job == jobDepositReminder {
		return svc.RunDepositReminderSweep(ctx)
	}
	today := svc.Today()
	if opts.Date != "" {
		d, err := time.Parse(pricing.DateLayout, opts.Date)
		if err != nil {
			return estimate.SweepResult{}, fmt.Errorf("-date: %w", err)
		}
		today = d
	}
	return svc.RunFinishSweep(ctx, today)
}
