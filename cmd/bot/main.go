package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"binome_rotation_bot/internal/app"
	"binome_rotation_bot/internal/infra/config"
	idb "binome_rotation_bot/internal/infra/database"
	"binome_rotation_bot/internal/infra/logger"
	"binome_rotation_bot/internal/infra/metrics"
	"binome_rotation_bot/internal/infra/scheduler"
	"binome_rotation_bot/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"environment":     cfg.Environment,
		"admin_id":        cfg.AdminTelegramID,
		"sweep_cron_spec": cfg.CronSpecRotationSweep,
		"rotation_months": cfg.RotationIntervalMonths,
		"window_days":     cfg.AttendanceWindowDays,
		"lookback_months": cfg.ForbiddenLookbackMonths,
		"metrics_addr":    cfg.MetricsAddr,
		"db_max_open":     cfg.DBMaxOpenConns,
		"run_migrations":  cfg.RunMigrations,
		"sweep_on_start":  cfg.SweepOnStart,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.OpenPostgres(cfg.DatabaseURL, idb.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	if cfg.RunMigrations {
		if err := idb.RunMigrations(db, logger.Component("migrations")); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database migrations")
		}
	}

	// Initialize Repositories
	sectionRepo := idb.NewPostgresSectionRepository(db)
	memberRepo := idb.NewPostgresMemberRepository(db)
	attendanceRepo := idb.NewPostgresAttendanceRepository(db)
	pairingRepo := idb.NewPostgresPairingRepository(db)

	// Metrics
	var rotationMetrics app.RotationMetrics = metrics.NewNop()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rotationMetrics = metrics.NewPrometheus(registry)
		metricsServer = metrics.Serve(cfg.MetricsAddr, registry, logger.Component("metrics"))
	}

	// Initialize Services
	var clock app.Clock // wall clock
	roster := app.NewRosterLoader(memberRepo, clock)
	stats := app.NewAttendanceStatsProvider(attendanceRepo, cfg.AttendanceWindowDays, clock)
	forbidden := app.NewForbiddenPairIndex(pairingRepo, cfg.ForbiddenLookbackMonths, clock)

	rotationService := app.NewRotationService(
		sectionRepo,
		pairingRepo,
		roster,
		stats,
		forbidden,
		rotationMetrics,
		logger.Component("rotation"),
		cfg.RotationIntervalMonths,
		clock,
		nil,
	)
	reportService := app.NewReportService(rotationService, roster, stats, clock)
	adminService := app.NewAdminService(sectionRepo, cfg.AdminTelegramID)
	mainLogger.Info("Services initialized.")

	// Initialize RotationScheduler
	rotationScheduler := scheduler.NewRotationScheduler(
		rotationService,
		logger.Component("scheduler"),
		cfg.CronSpecRotationSweep,
		cfg.SweepOnStart,
	)
	if err := rotationScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start rotation scheduler")
	}

	// Initialize Telegram Bot
	botLogger := logger.Component("telegram")
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	// Register Handlers
	telegram.RegisterBotCommands(ctx, bot, adminService, botLogger)
	telegram.RegisterRotationHandlers(ctx, bot, adminService, rotationService, reportService, botLogger)
	telegram.RegisterCallbackHandlers(ctx, bot, adminService, reportService, botLogger)
	mainLogger.Info("Command handlers registered.")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.Info("Application setup complete. Bot and scheduler are running.")

	<-ctx.Done() // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	rotationScheduler.Stop()
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			mainLogger.WithError(err).Warn("Metrics listener did not shut down cleanly")
		}
	}
	mainLogger.Info("Application shut down gracefully.")
}
