package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Magpiefelt/Hockey-app-sub001/internal/config"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/db"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/goroutine"
	httpHandlers "github.com/Magpiefelt/Hockey-app-sub001/internal/http/handlers"
	httpRouter "github.com/Magpiefelt/Hockey-app-sub001/internal/http/router"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/logger"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/repository"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/service"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/storage"
	"github.com/Magpiefelt/Hockey-app-sub001/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(
		cfg.JWTSecret, cfg.RefreshSecret, cfg.QuoteTokenSecret,
		cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.QuoteTokenTTL,
	)

	fileStorage, err := storage.NewAttachmentStorage(cfg.AttachmentsPath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	quoteRepo := repository.NewQuoteRepository(dbConn)
	outboxRepo := repository.NewOutboxRepository(dbConn)
	attachmentRepo := repository.NewAttachmentRepository(dbConn)

	// Вебсокеты админки.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo(hub.Run)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	notificationService := service.NewNotificationService(outboxRepo, service.LogEmailSender{}, hub, cfg.AdminEmail, cfg.OutboxPollInterval)
	quoteService := service.NewQuoteService(quoteRepo, tokenManager, notificationService)
	sweeper := service.NewSweeper(quoteRepo, notificationService, cfg.SweepInterval, cfg.ReminderLeadTime)

	// Фоновые воркеры: рассылка outbox и обход истекающих предложений.
	goroutine.SafeGoWithContext(ctx, notificationService.Run)
	goroutine.SafeGoWithContext(ctx, sweeper.Run)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	bookingHandler := httpHandlers.NewBookingHandler(quoteService, attachmentRepo, fileStorage)
	quoteHandler := httpHandlers.NewQuoteHandler(quoteService)
	adminHandler := httpHandlers.NewAdminHandler(quoteService, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, bookingHandler, quoteHandler, adminHandler, healthHandler, wsHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.Log.WithField("port", cfg.HTTPPort).Info("server started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: ошибка http сервера: %v", err)
	}
}

func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		log.Printf("main: ошибка закрытия соединения с базой: %v", err)
	}
}
