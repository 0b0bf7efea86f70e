package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"GuardianWatchService/internal/models"
)

// SignalSource поставляет коды статуса и позы для пользователя
type SignalSource interface {
	StatusCode(ctx context.Context, loginID string) (models.StatusCode, error)
	PostureCode(ctx context.Context, loginID string) (models.PostureCode, error)
}

// RandomSignalSource выбирает коды равномерно случайно
type RandomSignalSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSignalSource создает источник; seed 0 означает текущее время
func NewRandomSignalSource(seed int64) *RandomSignalSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSignalSource{rnd: rand.New(rand.NewSource(seed))}
}

// StatusCode возвращает один из кодов 1, 2, 3
func (s *RandomSignalSource) StatusCode(context.Context, string) (models.StatusCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.StatusCodes[s.rnd.Intn(len(models.StatusCodes))], nil
}

// PostureCode возвращает код от 0 до 6
func (s *RandomSignalSource) PostureCode(context.Context, string) (models.PostureCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.PostureMin + models.PostureCode(s.rnd.Intn(int(models.PostureMax-models.PostureMin)+1)), nil
}
