package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"room-booking-backend/config"
	"room-booking-backend/internal/api"
	"room-booking-backend/internal/booking"
	"room-booking-backend/internal/catalog"
	"room-booking-backend/internal/db"
	"room-booking-backend/internal/events"
	"room-booking-backend/internal/metrics"
	"room-booking-backend/internal/notification"
	"room-booking-backend/internal/store"
)

const defaultConfigPath = "./config/config.yaml"

func main() {
	logger := log.New(os.Stdout, "booking-backend ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			logger.Printf("no config file at %s, using defaults and environment", configPath)
			configPath = ""
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded (database driver %s)", cfg.Database.Driver)

	rooms := catalog.Default()
	if len(cfg.Rooms) > 0 {
		if rooms, err = catalog.New(cfg.Rooms); err != nil {
			logger.Fatalf("invalid room catalog: %v", err)
		}
	}
	logger.Printf("room catalog has %d rooms", rooms.Len())

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	m := metrics.New(prometheus.DefaultRegisterer)

	opts := []booking.Option{booking.WithMetrics(m)}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to ping Redis at %s: %v", cfg.Redis.Address, err)
		}
		opts = append(opts, booking.WithLocker(booking.NewRedisLocker(rdb, cfg.Redis.LockTTL)))
		logger.Printf("using Redis booking lock at %s", cfg.Redis.Address)
	}

	if cfg.Events.Enabled {
		publisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			logger.Fatalf("failed to connect to message broker: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, booking.WithPublisher(publisher))
		logger.Printf("publishing booking events to exchange %s", cfg.Events.Exchange)
	}

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions)
		pool.Start(ctx)
		opts = append(opts, booking.WithNotifier(pool))
	} else {
		logger.Println("VAPID keys not configured, push notifications disabled")
	}

	svc := booking.NewService(appStore, rooms, opts...)

	router := api.NewRouter(api.Options{
		Service:        svc,
		Store:          appStore,
		Rooms:          rooms,
		WebPush:        webpushOptions,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		RateLimit:      cfg.Server.RateLimitPerSec,
		Burst:          cfg.Server.RateLimitBurst,
		CacheTTL:       cfg.Server.CacheTTL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
