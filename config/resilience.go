package config

import (
	"time"

	"GuardianWatchService/pkg/resilience"
)

// CircuitBreakerConfig настройки circuit breaker
type CircuitBreakerConfig struct {
	// FailureThreshold количество ошибок, после которого circuit breaker откроется
	FailureThreshold int `mapstructure:"failure_threshold"`
	// ResetTimeout время, через которое circuit breaker перейдет в полуоткрытое состояние
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

// RetryConfig настройки повторных попыток
type RetryConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	BackoffFactor  float64       `mapstructure:"backoff_factor"`
	// Jitter доля случайного отклонения от задержки
	Jitter float64 `mapstructure:"jitter"`
}

// TimeoutConfig таймаут одной команды хранилища
type TimeoutConfig struct {
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// ResilienceConfig содержит настройки для механизмов отказоустойчивости
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Retry          RetryConfig          `mapstructure:"retry"`
	Database       TimeoutConfig        `mapstructure:"database"`
	Redis          TimeoutConfig        `mapstructure:"redis"`
}

// DefaultResilienceConfig возвращает конфигурацию отказоустойчивости по умолчанию
func DefaultResilienceConfig() ResilienceConfig {
	return ResilienceConfig{
		CircuitBreaker: CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			BackoffFactor:  2.0,
			Jitter:         0.2,
		},
		Database: TimeoutConfig{CommandTimeout: 3 * time.Second},
		Redis:    TimeoutConfig{CommandTimeout: 1 * time.Second},
	}
}

// RetryOptions переводит настройки в параметры resilience.WithRetry
func (c ResilienceConfig) RetryOptions() resilience.RetryOptions {
	return resilience.RetryOptions{
		MaxRetries:     c.Retry.MaxRetries,
		InitialBackoff: c.Retry.InitialBackoff,
		MaxBackoff:     c.Retry.MaxBackoff,
		BackoffFactor:  c.Retry.BackoffFactor,
		Jitter:         c.Retry.Jitter,
	}
}
