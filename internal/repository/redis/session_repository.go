package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"GuardianWatchService/internal/models"

	"github.com/redis/go-redis/v9"
)

// SessionRepository хранит сессии в Redis; истечение обеспечивает TTL ключа
type SessionRepository struct {
	client redis.UniversalClient
}

// NewSessionRepository создает новый экземпляр SessionRepository
func NewSessionRepository(client redis.UniversalClient) *SessionRepository {
	return &SessionRepository{client: client}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Create сохраняет сессию на время ttl
func (r *SessionRepository) Create(ctx context.Context, session *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, sessionKey(session.Token), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session token collision")
	}
	return nil
}

// Get возвращает сессию по токену; redis.Nil, если ее нет или она истекла
func (r *SessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	session.Token = token

	return &session, nil
}

// Delete удаляет сессию; отсутствие ключа ошибкой не считается
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKey(token)).Err()
}
