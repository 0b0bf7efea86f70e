package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"
	"GuardianWatchService/pkg/password"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionService проверяет учетные данные и ведет сессии
type SessionService struct {
	userRepo    UserRepositoryInterface
	sessionRepo SessionRepositoryInterface
	ttl         time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService создает новый экземпляр SessionService
func NewSessionService(userRepo UserRepositoryInterface, sessionRepo SessionRepositoryInterface, ttl time.Duration, logger *zap.Logger) *SessionService {
	return &SessionService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		ttl:         ttl,
		logger:      logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Authenticate проверяет пароль и открывает новую сессию
func (s *SessionService) Authenticate(ctx context.Context, loginID, plain string) (*models.Session, error) {
	if loginID == "" || plain == "" {
		return nil, fmt.Errorf("%w: id and password are required", apperrors.ErrValidation)
	}

	// Хеш пароля есть только в базе данных, поэтому кэш здесь не используется
	user, err := s.userRepo.GetByLoginID(ctx, loginID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, loginID)
		}
		return nil, err
	}

	if !password.Verify(user.Password, plain) {
		s.logger.Info("Login rejected, wrong password", zap.String("login_id", loginID))
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.now()
	session := &models.Session{
		Token:     uuid.NewString(),
		LoginID:   user.LoginID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessionRepo.Create(ctx, session, s.ttl); err != nil {
		s.logger.Error("Failed to store session", zap.Error(err), zap.String("login_id", loginID))
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("login_id", loginID))
	return session, nil
}

// CurrentUser возвращает идентификатор пользователя сессии
func (s *SessionService) CurrentUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperrors.ErrUnauthenticated
	}

	session, err := s.sessionRepo.Get(ctx, token)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrUnauthenticated
		}
		return "", err
	}
	return session.LoginID, nil
}

// Terminate завершает сессию; повторный вызов не является ошибкой
func (s *SessionService) Terminate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, token); err != nil {
		s.logger.Warn("Failed to delete session", zap.Error(err))
		return err
	}
	return nil
}
