package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/agentbook/backend/api/handler"
	"github.com/agentbook/backend/internal/config"
	"github.com/agentbook/backend/internal/infrastructure/eventbus"
	"github.com/agentbook/backend/internal/infrastructure/monitor"
	"github.com/agentbook/backend/internal/infrastructure/outbox"
	pgInfra "github.com/agentbook/backend/internal/infrastructure/postgres"
	redisInfra "github.com/agentbook/backend/internal/infrastructure/redis"
	"github.com/agentbook/backend/internal/middleware"
	"github.com/agentbook/backend/internal/router"
	"github.com/agentbook/backend/internal/services/lifecycle"
	"github.com/agentbook/backend/internal/services/notifier"
	"github.com/agentbook/backend/internal/services/refresh"
	"github.com/agentbook/backend/pkg/httpcontext"
	"github.com/agentbook/backend/pkg/logger"
	"github.com/agentbook/backend/repository/postgres"
	redisRepo "github.com/agentbook/backend/repository/redis"
	appointmentUC "github.com/agentbook/backend/usecase/appointment"
	contactUC "github.com/agentbook/backend/usecase/contact"
	timelineUC "github.com/agentbook/backend/usecase/timeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Notifier.OutboxPath, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open notification outbox", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	contactRepo := postgres.NewContactRepository(pool)
	appointmentRepo := postgres.NewAppointmentRepository(pool)
	interactionRepo := postgres.NewInteractionRepository(pool)
	noteRepo := postgres.NewNoteRepository(pool)
	conversationRepo := postgres.NewConversationRepository(pool)
	timelineCache := redisRepo.NewTimelineCache(redisClient, cfg.Cache.TimelineTTL)

	var sender notifier.Sender
	if cfg.Notifier.WebhookURL != "" {
		sender = notifier.NewWebhookSender(cfg.Notifier.WebhookURL, cfg.Notifier.WebhookTimeout)
	} else {
		sender = notifier.NewLogSender(zapLogger)
	}

	dispatcher := notifier.New(sender, outboxStore, zapLogger, notifier.Config{
		DrainInterval: cfg.Notifier.DrainInterval,
		MaxRetries:    cfg.Notifier.MaxRetry,
		Retention:     time.Duration(cfg.Notifier.RetentionHours) * time.Hour,
	})
	dispatcher.Start()
	manager.Register("notifier", func(ctx context.Context) error {
		dispatcher.Stop(ctx)
		return nil
	})

	changeBus := eventbus.NewRedisBus(redisClient, cfg.Redis.Channel, zapLogger)
	manager.Register("eventbus", func(ctx context.Context) error {
		return changeBus.Close()
	})

	coordinator := refresh.New(changeBus, cfg.Refresh.Debounce, zapLogger)

	invalidator, err := refresh.NewInvalidator(changeBus, timelineCache, zapLogger)
	if err != nil {
		zapLogger.Fatal("cache invalidator subscription failed", zap.Error(err))
	}
	manager.Register("cache_invalidator", func(ctx context.Context) error {
		invalidator.Close()
		return nil
	})

	contactUseCase := contactUC.New(contactRepo, interactionRepo, noteRepo, changeBus, zapLogger)
	appointmentUseCase := appointmentUC.New(appointmentRepo, dispatcher, changeBus, zapLogger)
	timelineUseCase := timelineUC.New(contactRepo, appointmentRepo, interactionRepo, noteRepo, conversationRepo, timelineCache, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Contact:     apiHandler.NewContactHandler(contactUseCase, ctxAdapter, zapLogger),
		Appointment: apiHandler.NewAppointmentHandler(appointmentUseCase, contactUseCase, ctxAdapter, zapLogger),
		Timeline:    apiHandler.NewTimelineHandler(timelineUseCase, coordinator, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
