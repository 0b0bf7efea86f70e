package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryOptions настройки для механизма повторных попыток
type RetryOptions struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         float64
	// RetryableErrors ограничивает повторы этими ошибками; пустой список разрешает любые
	RetryableErrors []error
	// PermanentErrors никогда не повторяются, даже если RetryableErrors пуст
	PermanentErrors []error
}

// DefaultRetryOptions возвращает настройки по умолчанию
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.2,
	}
}

// WithRetry выполняет функцию с повторными попытками при ошибках
func WithRetry(ctx context.Context, logger *zap.Logger, operation string, options RetryOptions, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= options.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("Operation succeeded after retries",
					zap.String("operation", operation),
					zap.Int("attempt", attempt+1))
			}
			return nil
		}
		lastErr = err

		if !isRetryable(err, options) {
			logger.Debug("Non-retryable error occurred",
				zap.String("operation", operation),
				zap.Error(err))
			return err
		}

		if attempt == options.MaxRetries {
			logger.Warn("All retry attempts failed",
				zap.String("operation", operation),
				zap.Int("attempts", attempt+1),
				zap.Error(err))
			break
		}

		backoff := calculateBackoff(attempt, options)

		logger.Info("Retrying operation after error",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("Context cancelled during retry",
				zap.String("operation", operation),
				zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	return lastErr
}

// isRetryable проверяет, нужно ли повторять операцию для данной ошибки
func isRetryable(err error, options RetryOptions) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrCircuitOpen) {
		return false
	}

	for _, permanent := range options.PermanentErrors {
		if errors.Is(err, permanent) {
			return false
		}
	}

	if len(options.RetryableErrors) == 0 {
		return true
	}

	for _, retryableErr := range options.RetryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}

	return false
}

// calculateBackoff вычисляет время ожидания с экспоненциальной задержкой
func calculateBackoff(attempt int, options RetryOptions) time.Duration {
	backoff := float64(options.InitialBackoff) * math.Pow(options.BackoffFactor, float64(attempt))

	if options.Jitter > 0 {
		jitter := (rand.Float64()*2 - 1) * options.Jitter
		backoff = backoff * (1 + jitter)
	}

	if options.MaxBackoff > 0 && backoff > float64(options.MaxBackoff) {
		backoff = float64(options.MaxBackoff)
	}

	return time.Duration(backoff)
}
