package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"storefront/internal/api"
	"storefront/internal/availability"
	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/metrics"
	"storefront/internal/realtime"
	"storefront/internal/repository"
	"storefront/internal/schedule"
	"storefront/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load(os.Getenv("STOREFRONT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	clock, err := availability.NewSystemClock(cfg.Schedule.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid schedule timezone")
	}

	database, err := repository.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		rdb        *redis.Client
		subscriber store.Subscriber
	)
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		database.UsePublisher(realtime.NewRedisPublisher(rdb, cfg.Redis.Channel))
		subscriber = realtime.NewRedisSync(rdb, cfg.Redis.Channel, &logger)
	} else {
		bus := events.NewEventBus()
		database.UsePublisher(realtime.NewLocalPublisher(bus))
		subscriber = realtime.NewLocalSync(bus, &logger)
		logger.Info().Msg("redis not configured, schedule changes are shared in-process only")
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}
	recorder := metrics.Recorder{}

	var seed *store.ConfigRecord
	if cfg.Schedule.SeedPath != "" {
		rec, issues, err := config.LoadSchedules(cfg.Schedule.SeedPath)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load schedule seed, using built-in defaults")
		} else {
			seed = rec
			logIssues(&logger, issues)
		}
	}

	st := store.New(database, &logger, store.WithSeed(seed), store.WithMetrics(recorder))
	_ = st.Init(ctx)
	if err := st.Listen(ctx, subscriber); err != nil {
		logger.Warn().Err(err).Msg("realtime schedule updates unavailable, use /api/admin/refresh")
	}
	defer st.Close()

	if cfg.Schedule.SeedPath != "" {
		initial := true
		if err := config.WatchSchedules(ctx, cfg.Schedule.SeedPath, cfg.WatchInterval(), func(rec *store.ConfigRecord) {
			if initial {
				initial = false
				return
			}
			if err := st.Replace(ctx, *rec); err != nil {
				logger.Error().Err(err).Msg("failed to apply schedule seed")
				return
			}
			logger.Info().Time("reloaded_at", time.Now()).Msg("schedule seed reloaded")
		}); err != nil {
			logger.Error().Err(err).Msg("schedule seed watch failed")
		}
	}

	aggregator := schedule.NewAggregator(cfg.Schedule.AlwaysAvailable)
	service := availability.NewService(st, clock, aggregator, &logger).WithSlotStep(cfg.SlotStep())

	monitor := availability.NewMonitor(service, st, recorder, cfg.TickInterval(), &logger)
	go monitor.Start(ctx)
	defer monitor.Stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, database, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		go startBackupLoop(ctx, database, cfg, &logger)
	}
	go startHistoryPruner(ctx, database, cfg.HistoryRetention(), &logger)

	if cfg.Admin.APIKey == "" {
		logger.Warn().Msg("admin.api_key not set, admin endpoints disabled")
	}
	server := api.NewHTTPServer(api.Options{
		Port:                 cfg.HTTP.Port,
		APIKey:               cfg.Admin.APIKey,
		AdminWritesPerMinute: cfg.AdminWritesPerMinute(),
		Revisions:            database,
	}, service, st, &logger)
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Str("revision", st.Revision()).Msg("storefront availability service started")
	if err := server.Start(); err != nil {
		logger.Error().Err(err).Msg("API server error")
	}
}

func logIssues(logger *zerolog.Logger, issues []schedule.Issue) {
	for _, issue := range issues {
		logger.Warn().
			Str("category", issue.Category).
			Str("field", issue.Field).
			Msg(issue.Message)
	}
}

func startBackupLoop(ctx context.Context, database *repository.DB, cfg *config.Config, logger *zerolog.Logger) {
	if cfg.Backup.Path == "" {
		cfg.Backup.Path = "backups"
	}

	if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create backup directory")
		return
	}

	// Run first backup after a short delay
	select {
	case <-time.After(1 * time.Minute):
		runBackupTask(ctx, database, cfg, logger)
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(cfg.BackupInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runBackupTask(ctx, database, cfg, logger)
		case <-ctx.Done():
			return
		}
	}
}

func runBackupTask(ctx context.Context, database *repository.DB, cfg *config.Config, logger *zerolog.Logger) {
	timestamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(cfg.Backup.Path, fmt.Sprintf("storefront_%s.db", timestamp))

	logger.Info().Str("path", dest).Msg("starting database backup")
	if err := database.Backup(ctx, dest); err != nil {
		logger.Error().Err(err).Msg("backup failed")
	} else {
		logger.Info().Msg("backup completed successfully")
	}

	deleted, err := database.CleanupBackups(cfg.Backup.Path, cfg.BackupRetention())
	if err != nil {
		logger.Error().Err(err).Msg("backup cleanup failed")
	} else if deleted > 0 {
		logger.Info().Int("deleted", deleted).Msg("cleaned up old backups")
	}
}

func startHistoryPruner(ctx context.Context, database *repository.DB, retention time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		pruned, err := database.PruneHistory(ctx, retention)
		if err != nil {
			logger.Error().Err(err).Msg("config history prune failed")
		} else if pruned > 0 {
			logger.Info().Int64("deleted", pruned).Msg("pruned config history")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func startHealthServer(ctx context.Context, port int, database *repository.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := database.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
