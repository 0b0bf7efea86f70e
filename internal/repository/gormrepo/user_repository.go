package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/pkg/apperrors"

	"gorm.io/gorm"
)

// UserRepository хранит учетные записи пользователей
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository создает новый экземпляр UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет пользователя, если идентификатор свободен.
// Проверка и вставка выполняются в одной транзакции.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", user.LoginID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrDuplicateIdentifier
		}

		return tx.Create(user).Error
	})

	// Параллельная регистрация могла пройти проверку; уникальный индекс отсекает вторую вставку
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicateIdentifier, user.LoginID)
	}
	return err
}

// GetByLoginID получает пользователя по публичному идентификатору
func (r *UserRepository) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", loginID).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists сообщает, занят ли идентификатор
func (r *UserRepository) Exists(ctx context.Context, loginID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", loginID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
