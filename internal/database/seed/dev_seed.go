package seed

import (
	"context"
	"errors"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"

	"go.uber.org/zap"
)

// Учетные данные тестового пользователя среды разработки
const (
	DemoLoginID  = "demo"
	DemoPassword = "demo1234"
)

// Directory создает пользователей
type Directory interface {
	IdentifierAvailable(ctx context.Context, loginID string) (bool, error)
	CreateUser(ctx context.Context, req *models.SignupRequest) (*models.User, error)
}

// DevEnvironmentSeeder обрабатывает заполнение тестовыми данными среды разработки
type DevEnvironmentSeeder struct {
	directory Directory
	enabled   bool
	logger    *zap.Logger
}

// NewDevEnvironmentSeeder создает новый объект для заполнения тестовыми данными
func NewDevEnvironmentSeeder(directory Directory, enabled bool, logger *zap.Logger) *DevEnvironmentSeeder {
	return &DevEnvironmentSeeder{
		directory: directory,
		enabled:   enabled,
		logger:    logger,
	}
}

// SeedTestUser создает тестового пользователя, если мы находимся в режиме разработки
func (s *DevEnvironmentSeeder) SeedTestUser(ctx context.Context) error {
	if !s.enabled {
		s.logger.Debug("Не в режиме разработки, пропускаем создание тестового пользователя")
		return nil
	}

	available, err := s.directory.IdentifierAvailable(ctx, DemoLoginID)
	if err != nil {
		return err
	}
	if !available {
		s.logger.Info("Тестовый пользователь уже существует", zap.String("login_id", DemoLoginID))
		return nil
	}

	user, err := s.directory.CreateUser(ctx, &models.SignupRequest{
		ID:            DemoLoginID,
		Password:      DemoPassword,
		Name:          "Demo User",
		Age:           models.FlexibleInt{Value: 72, Set: true},
		Address:       "Seoul",
		PhoneNum:      "010-0000-0000",
		GuardName:     "Demo Guardian",
		GuardPhoneNum: "010-1111-1111",
	})
	if errors.Is(err, apperrors.ErrDuplicateIdentifier) {
		// Другой экземпляр успел создать пользователя
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("Тестовый пользователь создан",
		zap.Uint("unique_num", user.UniqueNum),
		zap.String("login_id", user.LoginID))
	return nil
}
