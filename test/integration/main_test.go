package integration

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"GuardianWatchService/config"
	"GuardianWatchService/internal/delivery/rest"
	"GuardianWatchService/internal/notify"
	"GuardianWatchService/internal/repository/gormrepo"
	"GuardianWatchService/internal/repository/redis"
	"GuardianWatchService/internal/service"
	"GuardianWatchService/pkg/database"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	pool        *dockertest.Pool
	pgResource  *dockertest.Resource
	rdResource  *dockertest.Resource
	db          *gorm.DB
	redisClient *goredis.Client
	apiServer   *httptest.Server
	checker     *database.HealthChecker
)

// Настройка тестового окружения: PostgreSQL и Redis в контейнерах, API в процессе теста
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping integration tests in short mode")
		os.Exit(0)
	}

	var err error
	pool, err = dockertest.NewPool("")
	if err == nil {
		err = pool.Client.Ping()
	}
	if err != nil {
		log.Printf("Docker is not available, skipping integration tests: %s", err)
		os.Exit(0)
	}
	pool.MaxWait = 2 * time.Minute

	pgResource, err = pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=test_db",
		},
	}, autoRemove)
	if err != nil {
		log.Fatalf("Could not start PostgreSQL: %s", err)
	}

	rdResource, err = pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7",
	}, autoRemove)
	if err != nil {
		_ = pool.Purge(pgResource)
		log.Fatalf("Could not start Redis: %s", err)
	}

	pgPort, _ := strconv.Atoi(pgResource.GetPort("5432/tcp"))
	dbConfig := config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     pgResource.GetBoundIP("5432/tcp"),
		Port:     pgPort,
		Username: "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}
	if err := pool.Retry(func() error {
		var err error
		db, err = database.NewDB(dbConfig)
		return err
	}); err != nil {
		purge()
		log.Fatalf("Could not connect to PostgreSQL: %s", err)
	}

	redisConfig := config.RedisConfig{Addr: rdResource.GetHostPort("6379/tcp")}
	if err := pool.Retry(func() error {
		var err error
		redisClient, err = database.NewRedisClient(redisConfig)
		return err
	}); err != nil {
		purge()
		log.Fatalf("Could not connect to Redis: %s", err)
	}

	apiServer = httptest.NewServer(newTestRouter())

	code := m.Run()

	apiServer.Close()
	_ = redisClient.Close()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	purge()

	os.Exit(code)
}

func autoRemove(hc *docker.HostConfig) {
	hc.AutoRemove = true
	hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
}

func purge() {
	for _, r := range []*dockertest.Resource{pgResource, rdResource} {
		if r == nil {
			continue
		}
		if err := pool.Purge(r); err != nil {
			log.Printf("Could not purge resource: %s", err)
		}
	}
}

// newTestRouter собирает стек так же, как cmd/server, но без CSRF и фоновых серверов
func newTestRouter() http.Handler {
	logger := zap.NewNop()

	cfg := &config.Config{Resilience: config.DefaultResilienceConfig()}
	cfg.Resilience.CircuitBreaker.FailureThreshold = 3
	cfg.Resilience.CircuitBreaker.ResetTimeout = time.Second
	cfg.Session.CookieName = "sessionid"
	cfg.Session.TTL = time.Hour
	cfg.HTTP.RequestTimeout = 5 * time.Second

	checker = database.NewDatabaseHealthChecker(db, redisClient, cfg.Resilience, logger)

	userRepo := gormrepo.NewResilientUserRepository(db, checker, cfg.Resilience, logger)
	monitorRepo := gormrepo.NewResilientMonitorRepository(db, checker, cfg.Resilience, logger)
	cacheRepo := redis.NewResilientCacheRepository(redisClient, checker, cfg.Resilience, logger)
	sessionRepo := redis.NewResilientSessionRepository(redisClient, checker, cfg.Resilience, logger)

	directory := service.NewDirectoryService(userRepo, cacheRepo, bcrypt.MinCost, logger)
	sessions := service.NewSessionService(userRepo, sessionRepo, cfg.Session.TTL, logger)
	monitor := service.NewMonitorService(directory, monitorRepo, service.NewRandomSignalSource(1), notify.NopPublisher{}, 10, logger)

	handler := rest.NewHandler(directory, sessions, monitor, rest.CookieConfig{Name: cfg.Session.CookieName, TTL: cfg.Session.TTL}, logger)
	return rest.NewRouter(handler, cfg, logger)
}

func waitFor(t *testing.T, timeout time.Duration, cond func(ctx context.Context) bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		ok := cond(ctx)
		cancel()
		if ok {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("Condition not met within %v", timeout)
}
