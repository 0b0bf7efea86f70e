package database

import (
	"context"
	"errors"
	"time"

	"GuardianWatchService/config"
	"GuardianWatchService/pkg/apperrors"
	"GuardianWatchService/pkg/resilience"
	"GuardianWatchService/pkg/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Имена circuit breaker, под которыми они попадают в метрики
const (
	DatabaseBreakerName = "database"
	RedisBreakerName    = "redis"
)

// HealthChecker проверяет хранилища и оборачивает обращения к ним в circuit breaker
type HealthChecker struct {
	db           *gorm.DB
	redisClient  redis.UniversalClient
	logger       *zap.Logger
	dbCircuit    *resilience.CircuitBreaker
	redisCircuit *resilience.CircuitBreaker
}

// NewDatabaseHealthChecker создает проверку с circuit breaker для базы данных и Redis
func NewDatabaseHealthChecker(db *gorm.DB, redisClient redis.UniversalClient, cfg config.ResilienceConfig, logger *zap.Logger) *HealthChecker {
	threshold := cfg.CircuitBreaker.FailureThreshold
	resetTimeout := cfg.CircuitBreaker.ResetTimeout
	if threshold <= 0 || resetTimeout <= 0 {
		threshold, resetTimeout = resilience.DefaultCircuitBreakerOptions()
	}

	checker := &HealthChecker{
		db:           db,
		redisClient:  redisClient,
		logger:       logger,
		dbCircuit:    resilience.NewCircuitBreaker(DatabaseBreakerName, threshold, resetTimeout, logger, apperrors.IgnoredErrors...),
		redisCircuit: resilience.NewCircuitBreaker(RedisBreakerName, threshold, resetTimeout, logger, apperrors.IgnoredErrors...),
	}

	for _, cb := range []*resilience.CircuitBreaker{checker.dbCircuit, checker.redisCircuit} {
		server.RecordCircuitBreakerStateChange(cb.Name(), int(resilience.CircuitClosed))
		cb.OnStateChange(func(name string, state resilience.CircuitState) {
			server.RecordCircuitBreakerStateChange(name, int(state))
		})
	}

	return checker
}

// IsDatabaseHealthy проверяет базу данных запросом SELECT 1
func (c *HealthChecker) IsDatabaseHealthy(ctx context.Context) bool {
	var result int
	err := c.dbCircuit.Execute(ctx, "database_health_check", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		sqlDB, err := c.db.DB()
		if err != nil {
			return err
		}

		return sqlDB.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	})

	return err == nil && result == 1
}

// IsRedisHealthy проверяет Redis командой PING
func (c *HealthChecker) IsRedisHealthy(ctx context.Context) bool {
	err := c.redisCircuit.Execute(ctx, "redis_health_check", func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		return c.redisClient.Ping(ctx).Err()
	})

	return err == nil
}

// WithDatabaseResilience выполняет операцию с базой данных через circuit breaker
func (c *HealthChecker) WithDatabaseResilience(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	err := c.dbCircuit.Execute(ctx, operation, fn)
	if err != nil && apperrors.IsNotFound(err) {
		c.logger.Debug("Record not found, not counted by circuit breaker",
			zap.String("operation", operation))
	}
	return err
}

// WithRedisResilience выполняет операцию с Redis через circuit breaker
func (c *HealthChecker) WithRedisResilience(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	err := c.redisCircuit.Execute(ctx, operation, fn)
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Key not found in Redis, not counted by circuit breaker",
			zap.String("operation", operation))
	}
	return err
}

// DatabaseState возвращает состояние circuit breaker базы данных
func (c *HealthChecker) DatabaseState() resilience.CircuitState {
	return c.dbCircuit.GetState()
}

// RedisState возвращает состояние circuit breaker Redis
func (c *HealthChecker) RedisState() resilience.CircuitState {
	return c.redisCircuit.GetState()
}

// SafeDBOperation выполняет операцию с таймаутом и логирует инфраструктурные ошибки.
// Ошибки бизнес-логики (не найдено, дубликат) возвращаются без записи в лог.
func SafeDBOperation(ctx context.Context, timeout time.Duration, logger *zap.Logger, operation string, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err == nil || apperrors.IsClientError(err) {
		return err
	}

	logger.Error("Database operation failed",
		zap.String("operation", operation),
		zap.Error(err))

	if errors.Is(err, gorm.ErrInvalidTransaction) {
		logger.Error("Database transaction failed due to invalid transaction",
			zap.String("operation", operation))
	}

	return err
}

// SafeRedisOperation выполняет операцию с Redis с таймаутом, если у контекста его нет
func SafeRedisOperation(ctx context.Context, timeout time.Duration, logger *zap.Logger, operation string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err == nil || errors.Is(err, redis.Nil) {
		return err
	}

	logger.Error("Redis operation failed",
		zap.String("operation", operation),
		zap.Error(err))

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Error("Redis operation timed out", zap.String("operation", operation))
	} else if errors.Is(err, redis.ErrClosed) {
		logger.Error("Redis connection closed", zap.String("operation", operation))
	}

	return err
}
