package gormrepo

import (
	"context"
	"time"

	"GuardianWatchService/config"
	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"
	"GuardianWatchService/pkg/database"
	"GuardianWatchService/pkg/resilience"
	"GuardianWatchService/pkg/server"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// guard применяет к обращениям в базу данных circuit breaker, таймаут, повторы и метрики
type guard struct {
	checker *database.HealthChecker
	cfg     config.ResilienceConfig
	logger  *zap.Logger
}

// read выполняет идемпотентную операцию с повторными попытками
func (g guard) read(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	startTime := time.Now()

	retryOptions := g.cfg.RetryOptions()
	retryOptions.PermanentErrors = apperrors.IgnoredErrors

	err := g.checker.WithDatabaseResilience(ctx, operation, func(ctx context.Context) error {
		return resilience.WithRetry(ctx, g.logger, operation, retryOptions, func(ctx context.Context) error {
			return database.SafeDBOperation(ctx, g.cfg.Database.CommandTimeout, g.logger, operation, fn)
		})
	})

	server.RecordDBOperation(operation, time.Since(startTime), infrastructureError(err))
	return err
}

// write выполняет неидемпотентную операцию один раз
func (g guard) write(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	startTime := time.Now()

	err := g.checker.WithDatabaseResilience(ctx, operation, func(ctx context.Context) error {
		return database.SafeDBOperation(ctx, g.cfg.Database.CommandTimeout, g.logger, operation, fn)
	})

	server.RecordDBOperation(operation, time.Since(startTime), infrastructureError(err))
	return err
}

// infrastructureError отбрасывает ошибки бизнес-логики, чтобы они не портили метрику ошибок
func infrastructureError(err error) error {
	if err == nil || apperrors.IsClientError(err) {
		return nil
	}
	return err
}

// ResilientUserRepository добавляет механизмы отказоустойчивости к репозиторию пользователей
type ResilientUserRepository struct {
	repo  *UserRepository
	guard guard
}

// NewResilientUserRepository создает новый экземпляр отказоустойчивого репозитория
func NewResilientUserRepository(db *gorm.DB, checker *database.HealthChecker, cfg config.ResilienceConfig, logger *zap.Logger) *ResilientUserRepository {
	return &ResilientUserRepository{
		repo:  NewUserRepository(db),
		guard: guard{checker: checker, cfg: cfg, logger: logger},
	}
}

// Create создает пользователя
func (r *ResilientUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.guard.write(ctx, "create_user", func(ctx context.Context) error {
		return r.repo.Create(ctx, user)
	})
}

// GetByLoginID получает пользователя по идентификатору
func (r *ResilientUserRepository) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	var user *models.User
	err := r.guard.read(ctx, "get_user_by_login_id", func(ctx context.Context) error {
		var opErr error
		user, opErr = r.repo.GetByLoginID(ctx, loginID)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Exists проверяет, занят ли идентификатор
func (r *ResilientUserRepository) Exists(ctx context.Context, loginID string) (bool, error) {
	var exists bool
	err := r.guard.read(ctx, "user_exists", func(ctx context.Context) error {
		var opErr error
		exists, opErr = r.repo.Exists(ctx, loginID)
		return opErr
	})
	return exists, err
}

// ResilientMonitorRepository добавляет механизмы отказоустойчивости к журналам
type ResilientMonitorRepository struct {
	repo  *MonitorRepository
	guard guard
}

// NewResilientMonitorRepository создает новый экземпляр отказоустойчивого репозитория журналов
func NewResilientMonitorRepository(db *gorm.DB, checker *database.HealthChecker, cfg config.ResilienceConfig, logger *zap.Logger) *ResilientMonitorRepository {
	return &ResilientMonitorRepository{
		repo:  NewMonitorRepository(db),
		guard: guard{checker: checker, cfg: cfg, logger: logger},
	}
}

// AppendStatus добавляет запись статуса
func (r *ResilientMonitorRepository) AppendStatus(ctx context.Context, userNum uint, code models.StatusCode) (*models.StatusRecord, error) {
	var record *models.StatusRecord
	err := r.guard.write(ctx, "append_status", func(ctx context.Context) error {
		var opErr error
		record, opErr = r.repo.AppendStatus(ctx, userNum, code)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// LatestStatuses возвращает последние записи статуса
func (r *ResilientMonitorRepository) LatestStatuses(ctx context.Context, userNum uint, limit int) ([]models.StatusRecord, error) {
	var records []models.StatusRecord
	err := r.guard.read(ctx, "latest_statuses", func(ctx context.Context) error {
		var opErr error
		records, opErr = r.repo.LatestStatuses(ctx, userNum, limit)
		return opErr
	})
	return records, err
}

// AppendPosture добавляет запись позы
func (r *ResilientMonitorRepository) AppendPosture(ctx context.Context, userNum uint, code models.PostureCode) (*models.PostureRecord, error) {
	var record *models.PostureRecord
	err := r.guard.write(ctx, "append_posture", func(ctx context.Context) error {
		var opErr error
		record, opErr = r.repo.AppendPosture(ctx, userNum, code)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// LatestPostures возвращает последние записи позы
func (r *ResilientMonitorRepository) LatestPostures(ctx context.Context, userNum uint, limit int) ([]models.PostureRecord, error) {
	var records []models.PostureRecord
	err := r.guard.read(ctx, "latest_postures", func(ctx context.Context) error {
		var opErr error
		records, opErr = r.repo.LatestPostures(ctx, userNum, limit)
		return opErr
	})
	return records, err
}
