// README: Config loader with env defaults for HTTP, DB, Redis, AMQP, Firebase and schedules.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTP struct {
		Addr        string
		CORSOrigins []string
		// CallbackAllow lists the networks partner callbacks may come from.
		CallbackAllow  []netip.Prefix
		TrustedProxies []string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	AMQP struct {
		URL      string
		Exchange string
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
		Bucket          string
		AdminTopic      string
	}
	Schedule struct {
		Location     *time.Location
		FinishCron   string
		ReminderCron string
	}
	Outbox struct {
		Tick time.Duration
	}
	Maps struct {
		// APIKey enables the driving distance lookup when set.
		APIKey string
	}
	SheetFont string
	LogLevel  slog.Level
}

// Load reads the environment. Every problem is reported at once.
func Load() (Config, error) {
	var (
		cfg  Config
		errs []error
	)

	cfg.HTTP.Addr = envOrDefault("CHARTER_HTTP_ADDR", ":8080")
	cfg.HTTP.CORSOrigins = envList("CHARTER_CORS_ORIGINS")
	allow, err := ParseAllowList(envList("CHARTER_CALLBACK_ALLOW"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.HTTP.CallbackAllow = allow
	cfg.HTTP.TrustedProxies = envList("CHARTER_TRUSTED_PROXIES")

	cfg.DB.DSN = os.Getenv("CHARTER_DB_DSN")
	if cfg.DB.DSN == "" {
		errs = append(errs, errors.New("CHARTER_DB_DSN is required"))
	}
	cfg.Redis.Addr = envOrDefault("CHARTER_REDIS_ADDR", "localhost:6379")

	cfg.AMQP.URL = os.Getenv("CHARTER_AMQP_URL")
	cfg.AMQP.Exchange = envOrDefault("CHARTER_PARTNER_EXCHANGE", "charter.partner")

	cfg.Firebase.ProjectID = os.Getenv("CHARTER_FIREBASE_PROJECT_ID")
	if cfg.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("CHARTER_FIREBASE_PROJECT_ID is required"))
	}
	cfg.Firebase.CredentialsFile = os.Getenv("CHARTER_FIREBASE_CREDENTIALS")
	cfg.Firebase.Bucket = os.Getenv("CHARTER_FIREBASE_BUCKET")
	cfg.Firebase.AdminTopic = envOrDefault("CHARTER_ADMIN_TOPIC", "admin")

	tz := envOrDefault("CHARTER_TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("CHARTER_TIMEZONE %q: %w", tz, err))
		loc = time.UTC
	}
	cfg.Schedule.Location = loc
	cfg.Schedule.FinishCron = envOrDefault("CHARTER_FINISH_SWEEP_CRON", "0 0 * * *")
	cfg.Schedule.ReminderCron = envOrDefault("CHARTER_REMINDER_SWEEP_CRON", "0 10,14 * * *")

	cfg.Outbox.Tick = envOrDefaultDuration("CHARTER_OUTBOX_TICK", 5*time.Second)
	cfg.Maps.APIKey = os.Getenv("CHARTER_MAPS_API_KEY")
	cfg.SheetFont = os.Getenv("CHARTER_SHEET_FONT")

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "INFO"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// ParseAllowList accepts CIDR prefixes and bare addresses.
func ParseAllowList(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("CHARTER_CALLBACK_ALLOW entry %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("CHARTER_CALLBACK_ALLOW entry %q: %w", e, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

// envList splits a comma separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
