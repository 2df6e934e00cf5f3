package appServer

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
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/config"
	repository "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/postgres"
	viewcache "github.com/luiz-cesar-ti/agendamento-obj-v2/internal/database/redis"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/service"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/transport"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/worker"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/pkg/broker"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/pkg/postgres"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/pkg/redis"
	"github.com/luiz-cesar-ti/agendamento-obj-v2/pkg/telegram"
)

const (
	eventQueueSize       = 256
	eventDeliveryTimeout = 30 * time.Second
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func setupLogger(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", cfg.App.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// connectRedis возвращает nil, если Redis выключен или недоступен
func connectRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	if !cfg.Redis.Enabled {
		logrus.Warn("Redis disabled, view cache and dead letter queue are off")
		return nil
	}

	client, err := redis.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logrus.Errorf("Failed to connect to Redis: %v. Continuing without view cache...", err)
		return nil
	}

	logrus.Info("Redis initialized")
	return client
}

func newPublisher(cfg *config.Config, deadLetters broker.DeadLetterSink) broker.Publisher {
	publisher, err := broker.New(broker.Config{
		Driver:     cfg.Broker.Driver,
		URL:        cfg.Broker.URL,
		Brokers:    cfg.Broker.Brokers,
		Queue:      cfg.Broker.Queue,
		Topic:      cfg.Broker.Topic,
		MaxRetries: cfg.Broker.MaxRetries,
		BaseDelay:  cfg.Broker.BaseDelay,
	})
	if err != nil {
		logrus.Errorf("Failed to initialize %s broker: %v. Falling back to log publisher...", cfg.Broker.Driver, err)
		publisher = broker.NewLogPublisher()
	} else {
		logrus.WithField("driver", cfg.Broker.Driver).Info("Event publisher initialized")
	}

	if deadLetters != nil {
		publisher = broker.NewDeadLetterPublisher(publisher, deadLetters)
	}
	// запись бронирования не ждёт брокер
	return broker.NewAsyncPublisher(publisher, eventQueueSize, eventDeliveryTimeout)
}

func NewServer(cfg *config.Config) {
	setupLogger(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := postgres.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(ctx, db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	repos := repository.NewRepositories(db)
	transactor := repository.NewTransactor(db)

	var (
		cache        service.ViewCache = service.NewNoopViewCache()
		deadLetters  broker.DeadLetterSink
		failedEvents transport.FailedEventReader
	)
	if redisClient := connectRedis(ctx, cfg); redisClient != nil {
		defer redisClient.Close()
		cache = viewcache.NewViewCache(redisClient, cfg.Booking.CacheTTL)
		dlq := viewcache.NewDeadLetters(redisClient)
		deadLetters = dlq
		failedEvents = dlq
	}

	publisher := newPublisher(cfg, deadLetters)
	defer func() {
		if err := publisher.Close(); err != nil {
			logrus.Errorf("Failed to close event publisher: %v", err)
		}
	}()

	// Initialize Telegram bot
	var notifier service.AdminNotifier
	if cfg.Telegram.Enabled && cfg.Telegram.BotToken != "" {
		notifier = telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		logrus.Info("Telegram bot initialized")
	} else {
		logrus.Warn("Telegram bot not configured, admin notifications disabled")
	}

	location := cfg.Location()
	clock := service.SystemClock{}

	// Initialize services
	availabilityService := service.NewAvailabilityService(repos.Equipment, repos.Bookings, cache, clock, location)
	bookingService := service.NewBookingService(transactor, repos.Bookings, cache, publisher, notifier, clock, service.BookingOptions{
		EnforceAvailability: cfg.Booking.EnforceAvailability,
		SweepOnRead:         cfg.Booking.SweepOnRead,
		Location:            location,
	})
	dashboardService := service.NewDashboardService(repos.Bookings, cache)
	equipmentService := service.NewEquipmentService(repos.Equipment, cache)
	helpService := service.NewHelpService(repos.Settings, cache)

	// Start expiration worker
	expirationWorker := worker.NewExpirationWorker(bookingService, clock, cfg.Worker.SweepInterval)
	go expirationWorker.Start(ctx)

	// Initialize handlers
	bookingHandler := transport.NewBookingHandler(bookingService)
	equipmentHandler := transport.NewEquipmentHandler(equipmentService, availabilityService)
	adminHandler := transport.NewAdminHandler(dashboardService, helpService, failedEvents)

	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(bookingHandler, equipmentHandler, adminHandler, cfg.Server.Timeout)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":     cfg.Server.Port,
		"version":  cfg.Server.AppVersion,
		"timezone": location.String(),
	}).Info("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Info("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
