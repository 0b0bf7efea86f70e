package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"GuardianWatchService/config"
	"GuardianWatchService/internal/database/seed"
	"GuardianWatchService/internal/delivery/rest"
	"GuardianWatchService/internal/notify"
	"GuardianWatchService/internal/repository/gormrepo"
	"GuardianWatchService/internal/repository/redis"
	"GuardianWatchService/internal/service"
	"GuardianWatchService/pkg/database"
	"GuardianWatchService/pkg/logger"
	"GuardianWatchService/pkg/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	grpcServer "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Версия сервиса
const (
	ServiceVersion = "1.0.0"
)

func main() {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load()

	log := logger.NewLogger()
	defer func() { _ = log.Sync() }()
	log.Info("Запуск сервиса мониторинга", zap.String("version", ServiceVersion))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Не удалось загрузить конфигурацию", zap.Error(err))
	}

	gracefulShutdown := server.NewGracefulShutdown(log, cfg.HTTP.ShutdownTimeout)

	db, err := database.NewDB(cfg.Database)
	if err != nil {
		log.Fatal("Не удалось подключиться к базе данных", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}
	log.Info("Подключение к базе данных установлено", zap.String("driver", cfg.Database.Driver))

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Не удалось получить экземпляр SQL DB", zap.Error(err))
	}
	gracefulShutdown.AddShutdownFunc("database", func(ctx context.Context) error {
		return sqlDB.Close()
	})

	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}
	log.Info("Подключение к Redis установлено")
	gracefulShutdown.AddShutdownFunc("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	healthChecker := database.NewDatabaseHealthChecker(db, redisClient, cfg.Resilience, log)

	metricsServer := server.MetricsServer(cfg.Metrics.Port, log)
	gracefulShutdown.AddShutdownFunc("metrics server", func(ctx context.Context) error {
		return metricsServer.Shutdown(ctx)
	})

	// Отказоустойчивые репозитории
	userRepo := gormrepo.NewResilientUserRepository(db, healthChecker, cfg.Resilience, log)
	monitorRepo := gormrepo.NewResilientMonitorRepository(db, healthChecker, cfg.Resilience, log)
	cacheRepo := redis.NewResilientCacheRepository(redisClient, healthChecker, cfg.Resilience, log)
	sessionRepo := redis.NewResilientSessionRepository(redisClient, healthChecker, cfg.Resilience, log)

	var alerts service.AlertPublisher = notify.NopPublisher{}
	if cfg.Alerts.Enabled {
		alerts = notify.NewAMQPPublisher(cfg.Alerts.AMQPURL, cfg.Alerts.Queue, log)
		log.Info("Оповещения опекунов включены", zap.String("queue", cfg.Alerts.Queue))
	}

	// Сервисы
	directoryService := service.NewDirectoryService(userRepo, cacheRepo, cfg.Auth.BcryptCost, log)
	sessionService := service.NewSessionService(userRepo, sessionRepo, cfg.Session.TTL, log)
	monitorService := service.NewMonitorService(directoryService, monitorRepo, service.NewRandomSignalSource(0), alerts, cfg.Monitor.HistoryLimit, log)

	seeder := seed.NewDevEnvironmentSeeder(directoryService, cfg.App.IsDevelopment(), log)
	if err := seeder.SeedTestUser(context.Background()); err != nil {
		log.Warn("Не удалось создать тестового пользователя", zap.Error(err))
	}

	// gRPC сервер отдает только протокол проверки здоровья
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		log.Fatal("Не удалось запустить прослушивание порта", zap.Error(err), zap.Int("port", cfg.GRPC.Port))
	}

	s := grpcServer.NewServer(
		grpcServer.ChainUnaryInterceptor(
			server.TracingUnaryInterceptor(log),
			server.MetricsUnaryInterceptor(),
		),
	)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	reflection.Register(s)

	healthCheck := server.NewHealthCheck(healthChecker, log, ServiceVersion, cfg.Health.CheckInterval)
	healthCheck.OnReadinessChange(func(ready bool) {
		if ready {
			healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		} else {
			healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		}
	})
	healthCheck.StartServer(cfg.Health.Port)
	gracefulShutdown.AddShutdownFunc("health server", func(ctx context.Context) error {
		return healthCheck.Stop(ctx)
	})

	gracefulShutdown.AddShutdownFunc("grpc server", func(ctx context.Context) error {
		healthServer.Shutdown()
		s.GracefulStop()
		return nil
	})

	go func() {
		log.Info("Запуск gRPC сервера", zap.Int("port", cfg.GRPC.Port))
		if err := s.Serve(lis); err != nil {
			log.Fatal("Не удалось запустить gRPC сервер", zap.Error(err))
		}
	}()

	// HTTP API
	handler := rest.NewHandler(directoryService, sessionService, monitorService, rest.CookieConfig{
		Name:   cfg.Session.CookieName,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.Secure,
	}, log)
	e := rest.NewRouter(handler, cfg, log)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           e,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	gracefulShutdown.AddShutdownFunc("http server", func(ctx context.Context) error {
		return e.Shutdown(ctx)
	})

	go func() {
		log.Info("Запуск HTTP сервера", zap.Int("port", cfg.HTTP.Port))
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Не удалось запустить HTTP сервер", zap.Error(err))
		}
	}()

	hostname, _ := os.Hostname()
	log.Info("Сервис успешно запущен",
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Int("grpc_port", cfg.GRPC.Port),
		zap.Int("health_port", cfg.Health.Port),
		zap.Int("metrics_port", cfg.Metrics.Port),
		zap.String("env", cfg.App.Env),
		zap.String("version", ServiceVersion),
		zap.Int("pid", os.Getpid()),
		zap.String("hostname", hostname))

	gracefulShutdown.Wait()
	log.Info("Завершение работы сервиса выполнено")
}
