package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"task-manager/configs"
	v1 "task-manager/internal/api/v1"
	"task-manager/internal/config"
	"task-manager/internal/repository"
	"task-manager/pkg/database"
	"task-manager/pkg/logger"

	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	// Muat config
	cfg, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Inisialisasi logger
	if err := logger.InitLoggers(cfg.LogDir, cfg.LogLevel); err != nil {
		log.Fatalf("Could not initialise loggers: %v", err)
	}
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application",
		zap.String("app", cfg.AppName),
		zap.String("version", cfg.AppVersion),
		zap.String("time", time.Now().Format(time.RFC3339)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Inisialisasi database
	db, dialect, err := database.ConnectDB(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	logger.SystemLogger.Info("Database Connected", zap.String("driver", cfg.DBDriver))

	// Buat tabel jika belum ada
	if err := repository.CreateTableIfNotExists(ctx, db, dialect); err != nil {
		logger.ErrorLogger.Fatal("Could not create tables", zap.Error(err))
	}

	// Redis opsional; tanpa REDIS_HOST cache task dimatikan
	redisClient, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.ErrorLogger.Fatal("Redis connection failed", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.SystemLogger.Info("Redis Connected", zap.String("addr", cfg.RedisAddr()))
	}

	deps, err := config.NewDependencies(cfg, db, dialect, redisClient)
	if err != nil {
		logger.ErrorLogger.Fatal("Could not build dependencies", zap.Error(err))
	}

	app := v1.NewApp(deps,
		cors.New(cors.Config{
			AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		}),
		limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
		}),
	)

	go func() {
		<-ctx.Done()
		logger.SystemLogger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.ErrorLogger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	logger.SystemLogger.Info("Application ready", zap.String("addr", cfg.ListenAddr()))
	if err := app.Listen(cfg.ListenAddr()); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
