package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthCheckerInterface определяет проверки зависимостей сервиса
type HealthCheckerInterface interface {
	// IsDatabaseHealthy проверяет доступность реляционной базы данных
	IsDatabaseHealthy(ctx context.Context) bool

	// IsRedisHealthy проверяет доступность Redis
	IsRedisHealthy(ctx context.Context) bool
}

// ReadinessListener вызывается после каждой проверки с итоговой готовностью сервиса
type ReadinessListener func(ready bool)

// HealthCheck представляет сервис проверки здоровья
type HealthCheck struct {
	checker       HealthCheckerInterface
	logger        *zap.Logger
	server        *http.Server
	interval      time.Duration
	statusMutex   sync.RWMutex
	serviceStatus map[string]string
	listener      ReadinessListener
	stop          chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup
}

// HealthResponse представляет ответ эндпоинта проверки здоровья
type HealthResponse struct {
	Status    string            `json:"status"`
	Services  map[string]string `json:"services"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
}

// NewHealthCheck создает новый сервис проверки здоровья
func NewHealthCheck(checker HealthCheckerInterface, logger *zap.Logger, version string, interval time.Duration) *HealthCheck {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &HealthCheck{
		checker:  checker,
		logger:   logger,
		interval: interval,
		serviceStatus: map[string]string{
			"service":  "up",
			"database": "unknown",
			"redis":    "unknown",
			"version":  version,
		},
		stop: make(chan struct{}),
	}
}

// OnReadinessChange регистрирует обработчик результата проверок, например для gRPC health
func (h *HealthCheck) OnReadinessChange(listener ReadinessListener) {
	h.statusMutex.Lock()
	defer h.statusMutex.Unlock()
	h.listener = listener
}

// Handler возвращает маршрутизатор эндпоинтов здоровья
func (h *HealthCheck) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", h.livenessHandler)
	mux.HandleFunc("/health/ready", h.readinessHandler)
	mux.HandleFunc("/health", h.healthHandler)
	return LoggingMiddleware(h.logger, mux)
}

// StartServer запускает HTTP сервер для проверки здоровья и фоновый мониторинг
func (h *HealthCheck) StartServer(port int) {
	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		h.logger.Info("Starting health check server", zap.Int("port", port))
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Health check server failed", zap.Error(err))
		}
	}()

	h.StartMonitoring()
}

// StartMonitoring выполняет первую проверку сразу и затем повторяет ее с заданным интервалом
func (h *HealthCheck) StartMonitoring() {
	h.CheckNow()

	h.wg.Add(1)
	go h.monitorHealth()
}

// Stop останавливает мониторинг и HTTP сервер
func (h *HealthCheck) Stop(ctx context.Context) error {
	h.stopOnce.Do(func() { close(h.stop) })
	h.wg.Wait()

	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// livenessHandler сообщает только о том, что процесс жив
func (h *HealthCheck) livenessHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

// readinessHandler сообщает, готов ли сервис обслуживать запросы
func (h *HealthCheck) readinessHandler(w http.ResponseWriter, r *http.Request) {
	h.statusMutex.RLock()
	dbStatus := h.serviceStatus["database"]
	redisStatus := h.serviceStatus["redis"]
	h.statusMutex.RUnlock()

	// Без базы данных и без хранилища сессий обслуживать запросы невозможно
	if dbStatus != "up" {
		writeHealthJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "down",
			"message": "database is not available",
		})
		return
	}
	if redisStatus != "up" {
		writeHealthJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "down",
			"message": "session store is not available",
		})
		return
	}

	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

// healthHandler возвращает подробный статус всех зависимостей
func (h *HealthCheck) healthHandler(w http.ResponseWriter, r *http.Request) {
	h.statusMutex.RLock()
	services := make(map[string]string, len(h.serviceStatus))
	for k, v := range h.serviceStatus {
		services[k] = v
	}
	h.statusMutex.RUnlock()

	status := "up"
	if services["database"] != "up" || services["redis"] != "up" {
		status = "down"
	}

	code := http.StatusOK
	if status != "up" {
		code = http.StatusServiceUnavailable
	}

	writeHealthJSON(w, code, HealthResponse{
		Status:    status,
		Services:  services,
		Timestamp: time.Now().UTC(),
		Version:   services["version"],
	})
}

// monitorHealth регулярно проверяет состояние зависимостей до вызова Stop
func (h *HealthCheck) monitorHealth() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckNow()
		case <-h.stop:
			return
		}
	}
}

// CheckNow проверяет здоровье всех зависимостей и обновляет статусы
func (h *HealthCheck) CheckNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	if !h.checker.IsDatabaseHealthy(ctx) {
		dbStatus = "down"
		h.logger.Warn("Database health check failed")
	}

	redisStatus := "up"
	if !h.checker.IsRedisHealthy(ctx) {
		redisStatus = "down"
		h.logger.Warn("Redis health check failed")
	}

	h.statusMutex.Lock()
	h.serviceStatus["database"] = dbStatus
	h.serviceStatus["redis"] = redisStatus
	listener := h.listener
	h.statusMutex.Unlock()

	if listener != nil {
		listener(dbStatus == "up" && redisStatus == "up")
	}
}

func writeHealthJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
