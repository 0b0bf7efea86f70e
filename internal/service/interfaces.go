package service

import (
	"context"
	"time"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/internal/notify"
)

// UserRepositoryInterface описывает интерфейс для работы с репозиторием пользователей
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByLoginID(ctx context.Context, loginID string) (*models.User, error)
	Exists(ctx context.Context, loginID string) (bool, error)
}

// CacheRepositoryInterface описывает интерфейс для работы с кэшем профилей
type CacheRepositoryInterface interface {
	SetUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, loginID string) (*models.User, error)
	DeleteUser(ctx context.Context, loginID string) error
}

// SessionRepositoryInterface описывает хранилище сессий
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *models.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// MonitorRepositoryInterface описывает журналы статусов и поз
type MonitorRepositoryInterface interface {
	AppendStatus(ctx context.Context, userNum uint, code models.StatusCode) (*models.StatusRecord, error)
	LatestStatuses(ctx context.Context, userNum uint, limit int) ([]models.StatusRecord, error)
	AppendPosture(ctx context.Context, userNum uint, code models.PostureCode) (*models.PostureRecord, error)
	LatestPostures(ctx context.Context, userNum uint, limit int) ([]models.PostureRecord, error)
}

// AlertPublisher отправляет оповещения опекунам
type AlertPublisher = notify.Publisher
