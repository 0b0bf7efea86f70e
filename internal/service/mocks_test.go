package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"GuardianWatchService/internal/models"
	"GuardianWatchService/internal/notify"
	"GuardianWatchService/pkg/apperrors"

	"github.com/redis/go-redis/v9"
)

// Мок для репозитория пользователей
type MockUserRepository struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID uint
	err    error
	gets   int
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, exists := m.users[user.LoginID]; exists {
		return apperrors.ErrDuplicateIdentifier
	}
	m.nextID++
	user.UniqueNum = m.nextID
	stored := *user
	m.users[user.LoginID] = &stored
	return nil
}

func (m *MockUserRepository) GetByLoginID(_ context.Context, loginID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.err != nil {
		return nil, m.err
	}
	user, ok := m.users[loginID]
	if !ok {
		return nil, apperrors.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *MockUserRepository) Exists(_ context.Context, loginID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.users[loginID]
	return ok, nil
}

// Мок для кэша профилей
type MockCacheRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{users: make(map[string]*models.User)}
}

func (m *MockCacheRepository) SetUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	copied.Password = ""
	m.users[user.LoginID] = &copied
	return nil
}

func (m *MockCacheRepository) GetUser(_ context.Context, loginID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[loginID]
	if !ok {
		return nil, redis.Nil
	}
	return user, nil
}

func (m *MockCacheRepository) DeleteUser(_ context.Context, loginID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, loginID)
	return nil
}

// Мок для хранилища сессий
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttls     map[string]time.Duration
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions: make(map[string]*models.Session),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *MockSessionRepository) Create(_ context.Context, session *models.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Token] = session
	m.ttls[session.Token] = ttl
	return nil
}

func (m *MockSessionRepository) Get(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return nil, redis.Nil
	}
	return session, nil
}

func (m *MockSessionRepository) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// Мок для журналов
type MockMonitorRepository struct {
	mu       sync.Mutex
	clock    time.Time
	nextID   uint
	statuses []models.StatusRecord
	postures []models.PostureRecord
	err      error
}

func NewMockMonitorRepository() *MockMonitorRepository {
	return &MockMonitorRepository{clock: time.Date(2025, 2, 6, 0, 0, 0, 0, time.UTC)}
}

func (m *MockMonitorRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	m.nextID++
	return m.clock
}

func (m *MockMonitorRepository) AppendStatus(_ context.Context, userNum uint, code models.StatusCode) (*models.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if !code.Valid() {
		return nil, fmt.Errorf("%w: status code %d", apperrors.ErrValidation, code)
	}
	record := models.StatusRecord{ID: m.nextID + 1, UserUniqueNum: userNum, Status: code, CreatedAt: m.tick()}
	m.statuses = append(m.statuses, record)
	return &record, nil
}

func (m *MockMonitorRepository) LatestStatuses(_ context.Context, userNum uint, limit int) ([]models.StatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StatusRecord{}
	for _, r := range m.statuses {
		if r.UserUniqueNum == userNum {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockMonitorRepository) AppendPosture(_ context.Context, userNum uint, code models.PostureCode) (*models.PostureRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if !code.Valid() {
		return nil, fmt.Errorf("%w: posture code %d", apperrors.ErrValidation, code)
	}
	record := models.PostureRecord{ID: m.nextID + 1, UserUniqueNum: userNum, Posture: code, CreatedAt: m.tick()}
	m.postures = append(m.postures, record)
	return &record, nil
}

func (m *MockMonitorRepository) LatestPostures(_ context.Context, userNum uint, limit int) ([]models.PostureRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PostureRecord{}
	for _, r := range m.postures {
		if r.UserUniqueNum == userNum {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fixedSignals возвращает заранее заданные коды по кругу
type fixedSignals struct {
	statuses []models.StatusCode
	postures []models.PostureCode
	i, j     int
}

func (f *fixedSignals) StatusCode(context.Context, string) (models.StatusCode, error) {
	code := f.statuses[f.i%len(f.statuses)]
	f.i++
	return code, nil
}

func (f *fixedSignals) PostureCode(context.Context, string) (models.PostureCode, error) {
	code := f.postures[f.j%len(f.postures)]
	f.j++
	return code, nil
}

// recordingPublisher запоминает опубликованные оповещения
type recordingPublisher struct {
	mu     sync.Mutex
	alerts []notify.GuardianAlert
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, alert notify.GuardianAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert)
	return p.err
}

// staleFinder отдает профиль, строка которого уже удалена
type staleFinder struct {
	user      *models.User
	forgotten []string
}

func (f *staleFinder) FindByIdentifier(context.Context, string) (*models.User, error) {
	copied := *f.user
	return &copied, nil
}

func (f *staleFinder) Forget(_ context.Context, loginID string) {
	f.forgotten = append(f.forgotten, loginID)
}
