package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCircuitOpen возвращается, когда circuit breaker отклоняет вызов
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState представляет состояние circuit breaker
type CircuitState int

const (
	// CircuitClosed означает, что circuit breaker закрыт (нормальное состояние)
	CircuitClosed CircuitState = iota
	// CircuitHalfOpen означает, что circuit breaker пропускает один пробный вызов
	CircuitHalfOpen
	// CircuitOpen означает, что circuit breaker открыт и вызовы отклоняются
	CircuitOpen
)

// String возвращает имя состояния
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "CLOSED"
	case CircuitOpen:
		return "OPEN"
	case CircuitHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// StateListener получает уведомление о каждой смене состояния
type StateListener func(name string, state CircuitState)

// CircuitBreaker реализует паттерн circuit breaker для вызовов внешних хранилищ
type CircuitBreaker struct {
	name             string
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	lastStateChange  time.Time
	probeInFlight    bool
	mutex            sync.Mutex
	logger           *zap.Logger
	ignoredErrors    []error
	listener         StateListener
}

// NewCircuitBreaker создает новый экземпляр CircuitBreaker.
// Ошибки из ignoredErrors возвращаются вызывающему, но не считаются сбоями.
func NewCircuitBreaker(name string, failureThreshold int, resetTimeout time.Duration, logger *zap.Logger, ignoredErrors ...error) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		name:             name,
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		lastStateChange:  time.Now(),
		logger:           logger,
		ignoredErrors:    ignoredErrors,
	}
}

// DefaultCircuitBreakerOptions возвращает рекомендуемые настройки Circuit Breaker
func DefaultCircuitBreakerOptions() (int, time.Duration) {
	return 5, 30 * time.Second
}

// OnStateChange регистрирует обработчик смены состояния
func (cb *CircuitBreaker) OnStateChange(listener StateListener) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.listener = listener
}

// Name возвращает имя circuit breaker
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute выполняет функцию с учетом состояния circuit breaker
func (cb *CircuitBreaker) Execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if !cb.allowRequest(operation) {
		cb.logger.Warn("Circuit breaker preventing operation execution",
			zap.String("breaker", cb.name),
			zap.String("operation", operation),
			zap.String("state", cb.GetState().String()))
		return ErrCircuitOpen
	}

	err := fn(ctx)

	cb.handleResult(operation, err)

	return err
}

// allowRequest решает, можно ли выполнить вызов, и переводит открытый
// breaker в полуоткрытое состояние по истечении resetTimeout
func (cb *CircuitBreaker) allowRequest(operation string) bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastStateChange) < cb.resetTimeout {
			return false
		}
		cb.setState(CircuitHalfOpen, operation)
		cb.probeInFlight = true
		return true
	case CircuitHalfOpen:
		// Пока пробный вызов не завершился, остальные отклоняются
		if cb.probeInFlight {
			return false
		}
		cb.probeInFlight = true
		return true
	default:
		return false
	}
}

// handleResult обрабатывает результат выполнения функции
func (cb *CircuitBreaker) handleResult(operation string, err error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.probeInFlight = false
	}

	if err != nil && cb.isIgnoredError(err) {
		cb.logger.Debug("Ignoring error for circuit breaker",
			zap.String("breaker", cb.name),
			zap.String("operation", operation),
			zap.Error(err))
		err = nil
	}

	if err != nil {
		switch cb.state {
		case CircuitClosed:
			cb.failureCount++
			if cb.failureCount >= cb.failureThreshold {
				cb.setState(CircuitOpen, operation)
			}
		case CircuitHalfOpen:
			cb.setState(CircuitOpen, operation)
		}
		return
	}

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.setState(CircuitClosed, operation)
	}
}

// isIgnoredError проверяет, является ли ошибка игнорируемой
func (cb *CircuitBreaker) isIgnoredError(err error) bool {
	for _, ignoredErr := range cb.ignoredErrors {
		if errors.Is(err, ignoredErr) {
			return true
		}
	}
	return false
}

// setState меняет состояние; вызывается под mutex
func (cb *CircuitBreaker) setState(state CircuitState, operation string) {
	cb.state = state
	cb.lastStateChange = time.Now()

	switch state {
	case CircuitOpen:
		cb.logger.Warn("Circuit breaker opened",
			zap.String("breaker", cb.name),
			zap.String("operation", operation),
			zap.Int("failures", cb.failureCount),
			zap.Duration("reset_timeout", cb.resetTimeout))
	case CircuitHalfOpen:
		cb.logger.Info("Circuit breaker half-opened",
			zap.String("breaker", cb.name),
			zap.String("operation", operation))
	case CircuitClosed:
		cb.failureCount = 0
		cb.logger.Info("Circuit breaker closed",
			zap.String("breaker", cb.name),
			zap.String("operation", operation))
	}

	if cb.listener != nil {
		cb.listener(cb.name, state)
	}
}

// GetState возвращает текущее состояние circuit breaker
func (cb *CircuitBreaker) GetState() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}
