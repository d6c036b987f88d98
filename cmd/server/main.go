package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"musa-backend-go/internal/api"
	"musa-backend-go/internal/config"
	"musa-backend-go/internal/core"
	"musa-backend-go/internal/db"
	"musa-backend-go/internal/events"
	"musa-backend-go/internal/geocode"
	"musa-backend-go/internal/mailer"
	"musa-backend-go/internal/middleware"
	"musa-backend-go/internal/ratelimit"
)

func main() {
	// A missing .env is fine; production sets real environment variables.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.GinMode == gin.ReleaseMode {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	clients, err := db.NewClients(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize Firebase clients", zap.Error(err))
	}

	userRepo := db.NewUserRepository(clients.DB)
	estateRepo := db.NewEstateRepository(clients.DB)
	householdRepo := db.NewHouseholdRepository(clients.DB)
	accessCodeRepo := db.NewAccessCodeRepository(clients.DB)
	inviteRepo := db.NewInviteRepository(clients.DB)
	deviceRepo := db.NewDeviceRepository(clients.DB)
	deviceTokenRepo := db.NewDeviceTokenRepository(clients.DB)
	securityLogRepo := db.NewSecurityLogRepository(clients.DB)
	guardActivityRepo := db.NewGuardActivityRepository(clients.DB)

	rateWindow := time.Duration(cfg.DeviceRateWindowHours) * time.Hour
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		limiter, err = ratelimit.NewRedisLimiter(ctx, redisClient, cfg.DeviceRateLimit, rateWindow)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("rate limiter backed by Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.DeviceRateLimit, rateWindow)
		logger.Info("rate limiter running in-process")
	}

	var publisher events.Publisher
	if cfg.AMQPUrl != "" {
		publisher, err = events.NewRabbitPublisher(cfg.AMQPUrl)
		if err != nil {
			logger.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		logger.Info("security events published to RabbitMQ")
	} else {
		publisher = events.NewNopPublisher(logger)
	}
	defer publisher.Close()

	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, logger)
	notifier := mailer.NewNotifier(mail, logger)

	securityService := core.NewSecurityService(securityLogRepo, publisher, logger)
	userService := core.NewUserService(userRepo, estateRepo, securityService, notifier, logger)
	estateService := core.NewEstateService(estateRepo, userRepo, logger)
	householdService := core.NewHouseholdService(householdRepo, userRepo, logger)
	inviteService := core.NewInviteService(inviteRepo, householdRepo, userRepo, notifier, logger,
		time.Duration(cfg.InviteTTLDays)*24*time.Hour, cfg.ClientURL)
	accessCodeService := core.NewAccessCodeService(accessCodeRepo, householdRepo, userRepo, guardActivityRepo,
		logger, cfg.AccessCodeLength)
	deviceService := core.NewDeviceService(deviceRepo, deviceTokenRepo, userRepo, securityService,
		limiter, notifier, logger,
		time.Duration(cfg.DeviceTokenTTLMinutes)*time.Minute, cfg.ClientURL)

	authMW := middleware.NewAuthMiddleware(clients.Auth, userRepo, logger)

	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg))

	api.SetupRoutes(router, cfg, authMW,
		userService, estateService, householdService, inviteService,
		accessCodeService, deviceService, securityService,
		geocode.NewClient(""))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
