package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shareloop/service-booking/internal/application"
	"github.com/shareloop/service-booking/internal/config"
	bookingDomain "github.com/shareloop/service-booking/internal/domain/booking"
	itemDomain "github.com/shareloop/service-booking/internal/domain/item"
	userDomain "github.com/shareloop/service-booking/internal/domain/user"
	bookingEvents "github.com/shareloop/service-booking/internal/events"
	"github.com/shareloop/service-booking/internal/handler"
	"github.com/shareloop/service-booking/internal/jobs"
	"github.com/shareloop/service-booking/internal/realtime"
	"github.com/shareloop/service-booking/internal/repository"
	"github.com/shareloop/service-booking/internal/repository/memory"
	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/database"
	"github.com/shareloop/service-booking/pkg/health"
	"github.com/shareloop/service-booking/pkg/kafka"
	"github.com/shareloop/service-booking/pkg/logger"
	"github.com/shareloop/service-booking/pkg/middleware"
	"github.com/shareloop/service-booking/pkg/validation"
)

const serviceName = "service-booking"

type repositories struct {
	bookings bookingDomain.BookingRepository
	items    itemDomain.ItemRepository
	users    userDomain.UserRepository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
	)

	db, repos := openStorage(cfg, log)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL, cfg.JWTConfig.RefreshTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Notification sinks: WebSocket hub always, Kafka when brokers are configured
	hub := realtime.NewHub(log.Named("realtime"))
	go hub.Run(ctx)

	sinks := []bookingEvents.Sink{hub}
	var kafkaProducer *kafka.Producer
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer = kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		sinks = append(sinks, bookingEvents.NewKafkaSink(kafkaProducer))
	}
	emitter := bookingEvents.NewEmitter(log, sinks...)

	// Initialize application services
	validator := validation.New()
	bookingService := application.NewBookingService(
		repos.bookings,
		repos.items,
		repos.users,
		bookingDomain.NewDailyRatePricingStrategy(),
		validator,
		emitter,
		log,
	)
	itemService := application.NewItemService(repos.items, repos.bookings, repos.users, validator, emitter, log)
	userDirectory := application.NewUserDirectory(repos.users, log)

	// Keep the user directory current from identity events
	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		userConsumer := bookingEvents.NewUserEventConsumer(cfg.KafkaConfig.Brokers, groupID, userDirectory, log)
		defer func() { _ = userConsumer.Close() }()

		go func() {
			log.Info("starting user event consumer")
			if err := userConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("user event consumer error", zap.Error(err))
			}
		}()
	}

	// Start the reconciliation sweeper
	sweeper := jobs.NewSweeper(bookingService, cfg.SweepInterval, log)
	sweeper.Start(ctx)

	// Setup Gin router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	health.NewHandler(db, serviceName).RegisterRoutes(router)

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewItemHandler(itemService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewWebSocketHandler(hub, log).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// Stop the sweeper before its repositories go away, then drain notifications
	sweeper.Stop()
	emitter.Wait()
	cancel()

	log.Info("service-booking stopped")
}

// openStorage returns the configured repositories. db is nil for the memory driver.
func openStorage(cfg *config.ServiceConfig, log *zap.Logger) (*gorm.DB, repositories) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return nil, repositories{
			bookings: memory.NewBookingRepository(),
			items:    memory.NewItemRepository(),
			users:    memory.NewUserRepository(),
		}
	}

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.ItemModel{}, &repository.BookingModel{}, &repository.UserModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	return db, repositories{
		bookings: repository.NewGormBookingRepository(db),
		items:    repository.NewGormItemRepository(db),
		users:    repository.NewGormUserRepository(db),
	}
}
