package redis

import (
	"context"
	"errors"
	"time"

	"GuardianWatchService/config"
	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/database"
	"GuardianWatchService/pkg/resilience"
	"GuardianWatchService/pkg/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// guard применяет к обращениям в Redis circuit breaker, таймаут и метрики
type guard struct {
	checker *database.HealthChecker
	timeout time.Duration
	logger  *zap.Logger
}

func (g guard) run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	startTime := time.Now()

	err := g.checker.WithRedisResilience(ctx, operation, func(ctx context.Context) error {
		return database.SafeRedisOperation(ctx, g.timeout, g.logger, operation, fn)
	})

	// Отсутствие ключа для метрик не является ошибкой
	if errors.Is(err, redis.Nil) {
		server.RecordCacheOperation(operation, time.Since(startTime), nil)
	} else {
		server.RecordCacheOperation(operation, time.Since(startTime), err)
	}
	return err
}

// ResilientCacheRepository добавляет механизмы отказоустойчивости к кэш-репозиторию.
// Сбои кэша не прерывают запрос: чтение сводится к промаху, запись пропускается.
type ResilientCacheRepository struct {
	repo   *CacheRepository
	guard  guard
	logger *zap.Logger
}

// NewResilientCacheRepository создает новый экземпляр отказоустойчивого кэш-репозитория
func NewResilientCacheRepository(client redis.UniversalClient, checker *database.HealthChecker, cfg config.ResilienceConfig, logger *zap.Logger) *ResilientCacheRepository {
	return &ResilientCacheRepository{
		repo:   NewCacheRepository(client),
		guard:  guard{checker: checker, timeout: cfg.Redis.CommandTimeout, logger: logger},
		logger: logger,
	}
}

// SetUser кэширует пользователя с отказоустойчивостью
func (r *ResilientCacheRepository) SetUser(ctx context.Context, user *models.User) error {
	err := r.guard.run(ctx, "set_user_cache", func(ctx context.Context) error {
		return r.repo.SetUser(ctx, user)
	})
	if err != nil {
		r.logger.Warn("Failed to cache user, continuing without caching",
			zap.Error(err),
			zap.String("login_id", user.LoginID))
	}
	return nil
}

// GetUser получает пользователя из кэша; любой сбой возвращается как промах (redis.Nil)
func (r *ResilientCacheRepository) GetUser(ctx context.Context, loginID string) (*models.User, error) {
	var user *models.User

	retryOptions := resilience.DefaultRetryOptions()
	retryOptions.MaxRetries = 1
	retryOptions.InitialBackoff = 50 * time.Millisecond
	retryOptions.MaxBackoff = 100 * time.Millisecond
	retryOptions.PermanentErrors = []error{redis.Nil, resilience.ErrCircuitOpen}

	err := resilience.WithRetry(ctx, r.logger, "get_user_cache", retryOptions, func(ctx context.Context) error {
		return r.guard.run(ctx, "get_user_cache", func(ctx context.Context) error {
			var opErr error
			user, opErr = r.repo.GetUser(ctx, loginID)
			return opErr
		})
	})

	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Cache read failed, falling back to database",
				zap.Error(err),
				zap.String("login_id", loginID))
		}
		return nil, redis.Nil
	}

	return user, nil
}

// DeleteUser удаляет пользователя из кэша с отказоустойчивостью
func (r *ResilientCacheRepository) DeleteUser(ctx context.Context, loginID string) error {
	err := r.guard.run(ctx, "delete_user_cache", func(ctx context.Context) error {
		return r.repo.DeleteUser(ctx, loginID)
	})
	if err != nil {
		r.logger.Warn("Failed to invalidate cached user",
			zap.Error(err),
			zap.String("login_id", loginID))
	}
	return nil
}

// ResilientSessionRepository добавляет механизмы отказоустойчивости к хранилищу сессий.
// В отличие от кэша, ошибки сессий возвращаются вызывающему.
type ResilientSessionRepository struct {
	repo  *SessionRepository
	guard guard
}

// NewResilientSessionRepository создает новый экземпляр отказоустойчивого хранилища сессий
func NewResilientSessionRepository(client redis.UniversalClient, checker *database.HealthChecker, cfg config.ResilienceConfig, logger *zap.Logger) *ResilientSessionRepository {
	return &ResilientSessionRepository{
		repo:  NewSessionRepository(client),
		guard: guard{checker: checker, timeout: cfg.Redis.CommandTimeout, logger: logger},
	}
}

// Create сохраняет сессию
func (r *ResilientSessionRepository) Create(ctx context.Context, session *models.Session, ttl time.Duration) error {
	return r.guard.run(ctx, "create_session", func(ctx context.Context) error {
		return r.repo.Create(ctx, session, ttl)
	})
}

// Get возвращает сессию по токену
func (r *ResilientSessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	var session *models.Session
	err := r.guard.run(ctx, "get_session", func(ctx context.Context) error {
		var opErr error
		session, opErr = r.repo.Get(ctx, token)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Delete удаляет сессию
func (r *ResilientSessionRepository) Delete(ctx context.Context, token string) error {
	return r.guard.run(ctx, "delete_session", func(ctx context.Context) error {
		return r.repo.Delete(ctx, token)
	})
}
