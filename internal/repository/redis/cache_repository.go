package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GuardianWatchService/internal/models"

	"github.com/redis/go-redis/v9"
)

// userProfileTTL время жизни профиля в кэше
const userProfileTTL = 30 * time.Minute

// CacheRepository представляет репозиторий для работы с кэшем в Redis
type CacheRepository struct {
	client redis.UniversalClient
}

// NewCacheRepository создает новый экземпляр CacheRepository
func NewCacheRepository(client redis.UniversalClient) *CacheRepository {
	return &CacheRepository{client: client}
}

func userProfileKey(loginID string) string {
	return fmt.Sprintf("user:%s:profile", loginID)
}

// SetUser кэширует профиль пользователя. Хеш пароля в кэш не попадает.
func (r *CacheRepository) SetUser(ctx context.Context, user *models.User) error {
	userData, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, userProfileKey(user.LoginID), userData, userProfileTTL).Err()
}

// GetUser получает профиль пользователя из кэша
func (r *CacheRepository) GetUser(ctx context.Context, loginID string) (*models.User, error) {
	userData, err := r.client.Get(ctx, userProfileKey(loginID)).Bytes()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(userData, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteUser удаляет профиль пользователя из кэша
func (r *CacheRepository) DeleteUser(ctx context.Context, loginID string) error {
	return r.client.Del(ctx, userProfileKey(loginID)).Err()
}
