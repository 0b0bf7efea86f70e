package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"
	"GuardianWatchService/pkg/password"

	"go.uber.org/zap"
)

// DirectoryService управляет учетными записями пользователей
type DirectoryService struct {
	userRepo   UserRepositoryInterface
	cacheRepo  CacheRepositoryInterface
	bcryptCost int
	logger     *zap.Logger
}

// NewDirectoryService создает новый экземпляр DirectoryService
func NewDirectoryService(userRepo UserRepositoryInterface, cacheRepo CacheRepositoryInterface, bcryptCost int, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// CreateUser регистрирует пользователя; пароль сохраняется только в виде хеша
func (s *DirectoryService) CreateUser(ctx context.Context, req *models.SignupRequest) (*models.User, error) {
	if missing := req.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", apperrors.ErrValidation, strings.Join(missing, ", "))
	}

	hash, err := password.Hash(req.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	user := req.ToUser(hash)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateIdentifier) {
			s.logger.Info("Signup rejected, identifier taken", zap.String("login_id", user.LoginID))
		} else {
			s.logger.Error("Failed to create user", zap.Error(err), zap.String("login_id", user.LoginID))
		}
		return nil, err
	}

	if err := s.cacheRepo.SetUser(ctx, user); err != nil {
		s.logger.Warn("Failed to cache user", zap.Error(err), zap.String("login_id", user.LoginID))
	}

	s.logger.Info("User created", zap.Uint("unique_num", user.UniqueNum), zap.String("login_id", user.LoginID))
	return user, nil
}

// FindByIdentifier получает пользователя по идентификатору, сначала из кэша.
// Профиль из кэша отдается только после подтверждения, что строка в базе еще существует.
// Профиль из кэша не содержит хеша пароля.
func (s *DirectoryService) FindByIdentifier(ctx context.Context, loginID string) (*models.User, error) {
	user, err := s.cacheRepo.GetUser(ctx, loginID)
	if err == nil {
		exists, existsErr := s.userRepo.Exists(ctx, loginID)
		switch {
		case existsErr != nil:
			s.logger.Warn("Failed to confirm cached user, serving cached profile",
				zap.Error(existsErr),
				zap.String("login_id", loginID))
			return user, nil
		case !exists:
			s.Forget(ctx, loginID)
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, loginID)
		}
		s.logger.Debug("User retrieved from cache", zap.String("login_id", loginID))
		return user, nil
	}

	user, err = s.userRepo.GetByLoginID(ctx, loginID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user %s", apperrors.ErrNotFound, loginID)
		}
		s.logger.Error("Failed to get user", zap.Error(err), zap.String("login_id", loginID))
		return nil, err
	}

	if err := s.cacheRepo.SetUser(ctx, user); err != nil {
		s.logger.Warn("Failed to cache user", zap.Error(err), zap.String("login_id", loginID))
	}

	return user, nil
}

// Forget удаляет профиль из кэша
func (s *DirectoryService) Forget(ctx context.Context, loginID string) {
	if err := s.cacheRepo.DeleteUser(ctx, loginID); err != nil {
		s.logger.Warn("Failed to evict cached user", zap.Error(err), zap.String("login_id", loginID))
	}
}

// IdentifierAvailable сообщает, свободен ли идентификатор
func (s *DirectoryService) IdentifierAvailable(ctx context.Context, loginID string) (bool, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" {
		return false, fmt.Errorf("%w: missing id", apperrors.ErrValidation)
	}

	exists, err := s.userRepo.Exists(ctx, loginID)
	if err != nil {
		s.logger.Error("Failed to check identifier", zap.Error(err), zap.String("login_id", loginID))
		return false, err
	}
	return !exists, nil
}
