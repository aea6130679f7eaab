package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/app"
	"github.com/Freeeeeet/advisor_scheduler/internal/config"
	"github.com/Freeeeeet/advisor_scheduler/internal/controller"
	"github.com/Freeeeeet/advisor_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/advisor_scheduler/internal/integration/calendar"
	"github.com/Freeeeeet/advisor_scheduler/internal/integration/enrichment"
	"github.com/Freeeeeet/advisor_scheduler/internal/integration/notify"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/migrations"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting advisor scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("busy_source", cfg.BusySource),
		zap.Bool("telegram", cfg.TelegramEnabled()),
		zap.Bool("email", cfg.EmailEnabled()),
		zap.Bool("enrichment", cfg.EnrichmentEnabled()))

	// База данных
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("✅ Connected to database")

	migrator, err := app.NewMigrator(pool, migrations.FS, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	// Репозитории
	advisorRepo := repository.NewAdvisorRepository(pool)
	windowRepo := repository.NewWindowRepository(pool)
	linkRepo := repository.NewLinkRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)
	calendarRepo := repository.NewCalendarRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)
	bookingStore := repository.NewBookingStore(pool, logger)

	// Интеграции
	googleCalendar := calendar.NewClient(cfg.GoogleCalendarBaseURL, calendarRepo, calendarRepo, logger)

	var busy service.BusyIntervalProvider = calendarRepo
	if cfg.BusySource == config.BusySourceGoogle {
		busy = googleCalendar
	}

	var enricher service.Enricher
	if cfg.EnrichmentEnabled() {
		enricher = enrichment.NewClient(cfg.EnrichmentBaseURL, cfg.EnrichmentAPIKey, cfg.EnrichmentModel, logger)
	}

	var tgBot *bot.Bot
	if cfg.TelegramEnabled() {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return err
		}
	}

	var notifiers notify.Fanout
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(cfg.SendGridAPIKey, "", cfg.EmailFrom, cfg.EmailFromName, logger))
	}
	if tgBot != nil {
		notifiers = append(notifiers, notify.NewTelegramNotifier(tgBot, advisorRepo, logger))
	}
	var notifier service.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	// Сервисы
	clock := service.Clock(time.Now)

	availabilityService := service.NewAvailabilityService(advisorRepo, windowRepo, busy, meetingRepo, cfg.DefaultTimezone, clock, logger)
	linkValidator := service.NewLinkValidator(linkRepo, clock)
	sideEffects := service.NewSideEffects(advisorRepo, enricher, meetingRepo, googleCalendar, notifier, cfg.DefaultTimezone, cfg.SideEffectTimeout, logger)
	bookingService := service.NewBookingService(linkValidator, availabilityService, bookingStore, sideEffects, clock, cfg.SideEffectWait, logger)
	scheduleService := service.NewScheduleService(linkValidator, availabilityService, bookingService, clock)

	advisorService := service.NewAdvisorService(advisorRepo, logger)
	windowService := service.NewWindowService(windowRepo, logger)
	linkService := service.NewLinkService(linkRepo, windowRepo, logger)
	meetingService := service.NewMeetingService(meetingRepo, clock, logger)
	dashboardService := service.NewDashboardService(statsRepo, calendarRepo)

	// Фоновые задачи
	scheduler, err := app.NewScheduler(cfg.CompletionSchedule, meetingService, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Telegram бот консультанта
	if tgBot != nil {
		botController := controller.NewBotController(tgBot, advisorService, meetingService, linkService, cfg.DefaultTimezone, cfg.PublicBaseURL, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go botController.Start(ctx)
	}

	// HTTP API
	handler := rest.NewHandler(scheduleService, windowService, linkService, meetingService, advisorService, dashboardService, logger)
	httpApp := rest.NewApp(handler, cfg.JWTSecret, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		errCh <- httpApp.Listen(cfg.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpApp.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("✅ Server stopped")
	return nil
}
