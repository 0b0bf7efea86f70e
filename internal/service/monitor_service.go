package service

import (
	"context"
	"errors"
	"time"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/internal/notify"
	"GuardianWatchService/pkg/apperrors"
	"GuardianWatchService/pkg/server"

	"go.uber.org/zap"
)

// UserFinder находит пользователя по идентификатору и сбрасывает устаревший профиль
type UserFinder interface {
	FindByIdentifier(ctx context.Context, loginID string) (*models.User, error)
	Forget(ctx context.Context, loginID string)
}

// alertTimeout ограничивает публикацию оповещения внутри запроса
const alertTimeout = 3 * time.Second

// MonitorService ведет журналы статусов и поз пользователей
type MonitorService struct {
	users        UserFinder
	monitorRepo  MonitorRepositoryInterface
	signals      SignalSource
	alerts       AlertPublisher
	historyLimit int
	logger       *zap.Logger
}

// NewMonitorService создает новый экземпляр MonitorService
func NewMonitorService(users UserFinder, monitorRepo MonitorRepositoryInterface, signals SignalSource, alerts AlertPublisher, historyLimit int, logger *zap.Logger) *MonitorService {
	if alerts == nil {
		alerts = notify.NopPublisher{}
	}
	return &MonitorService{
		users:        users,
		monitorRepo:  monitorRepo,
		signals:      signals,
		alerts:       alerts,
		historyLimit: models.ClampHistoryLimit(historyLimit),
		logger:       logger,
	}
}

// UpdateStatus получает код статуса от источника сигналов и добавляет запись.
// Экстренный статус дополнительно оповещает опекуна.
func (s *MonitorService) UpdateStatus(ctx context.Context, loginID string) (*models.StatusRecord, error) {
	user, err := s.users.FindByIdentifier(ctx, loginID)
	if err != nil {
		return nil, err
	}

	code, err := s.signals.StatusCode(ctx, loginID)
	if err != nil {
		s.logger.Error("Signal source failed", zap.Error(err), zap.String("kind", "status"))
		return nil, err
	}

	record, err := s.monitorRepo.AppendStatus(ctx, user.UniqueNum, code)
	if err != nil {
		return nil, s.appendFailed(ctx, loginID, err)
	}
	server.RecordMonitorRecord("status", int(record.Status))

	if record.Status == models.StatusEmergency {
		s.notifyGuardian(ctx, user, record)
	}

	return record, nil
}

// LatestStatuses возвращает последние записи статуса; limit <= 0 означает значение по умолчанию
func (s *MonitorService) LatestStatuses(ctx context.Context, loginID string, limit int) ([]models.StatusRecord, error) {
	user, err := s.users.FindByIdentifier(ctx, loginID)
	if err != nil {
		return nil, err
	}
	return s.monitorRepo.LatestStatuses(ctx, user.UniqueNum, s.limit(limit))
}

// UpdatePosture получает код позы от источника сигналов и добавляет запись
func (s *MonitorService) UpdatePosture(ctx context.Context, loginID string) (*models.PostureRecord, error) {
	user, err := s.users.FindByIdentifier(ctx, loginID)
	if err != nil {
		return nil, err
	}

	code, err := s.signals.PostureCode(ctx, loginID)
	if err != nil {
		s.logger.Error("Signal source failed", zap.Error(err), zap.String("kind", "posture"))
		return nil, err
	}

	record, err := s.monitorRepo.AppendPosture(ctx, user.UniqueNum, code)
	if err != nil {
		return nil, s.appendFailed(ctx, loginID, err)
	}
	server.RecordMonitorRecord("posture", int(record.Posture))

	return record, nil
}

// LatestPostures возвращает последние записи позы
func (s *MonitorService) LatestPostures(ctx context.Context, loginID string, limit int) ([]models.PostureRecord, error) {
	user, err := s.users.FindByIdentifier(ctx, loginID)
	if err != nil {
		return nil, err
	}
	return s.monitorRepo.LatestPostures(ctx, user.UniqueNum, s.limit(limit))
}

// appendFailed сбрасывает профиль, если пользователь исчез между поиском и записью
func (s *MonitorService) appendFailed(ctx context.Context, loginID string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		s.users.Forget(ctx, loginID)
	}
	return err
}

func (s *MonitorService) limit(requested int) int {
	if requested <= 0 {
		return s.historyLimit
	}
	return models.ClampHistoryLimit(requested)
}

// notifyGuardian публикует оповещение; ошибка публикации запрос не прерывает
func (s *MonitorService) notifyGuardian(ctx context.Context, user *models.User, record *models.StatusRecord) {
	if !user.HasGuardian() {
		s.logger.Warn("Emergency status without guardian contact", zap.String("login_id", user.LoginID))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, alertTimeout)
	defer cancel()

	err := s.alerts.Publish(ctx, notify.NewGuardianAlert(user, record))
	server.RecordGuardianAlert(err)
	if err != nil {
		s.logger.Error("Failed to publish guardian alert",
			zap.Error(err),
			zap.String("login_id", user.LoginID))
	}
}
