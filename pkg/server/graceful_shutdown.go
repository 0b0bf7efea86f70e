package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// GracefulShutdown обеспечивает корректное завершение работы сервиса
type GracefulShutdown struct {
	logger         *zap.Logger
	timeout        time.Duration
	mu             sync.Mutex
	shutdownFuncs  []namedShutdownFunc
	shutdownSignal chan os.Signal
	done           chan struct{}
	once           sync.Once
}

type namedShutdownFunc struct {
	name string
	fn   func(context.Context) error
}

// NewGracefulShutdown создает новый экземпляр GracefulShutdown, подписанный на SIGINT и SIGTERM
func NewGracefulShutdown(logger *zap.Logger, timeout time.Duration) *GracefulShutdown {
	gs := &GracefulShutdown{
		logger:         logger,
		timeout:        timeout,
		shutdownSignal: make(chan os.Signal, 1),
		done:           make(chan struct{}),
	}

	signal.Notify(gs.shutdownSignal, syscall.SIGINT, syscall.SIGTERM)

	return gs
}

// AddShutdownFunc регистрирует функцию завершения; функции выполняются в обратном порядке
func (gs *GracefulShutdown) AddShutdownFunc(name string, f func(context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.shutdownFuncs = append(gs.shutdownFuncs, namedShutdownFunc{name: name, fn: f})
}

// Wait блокирует выполнение до получения сигнала завершения
func (gs *GracefulShutdown) Wait() {
	gs.WaitWithContext(context.Background())
}

// WaitWithContext блокирует выполнение до сигнала завершения или отмены контекста
func (gs *GracefulShutdown) WaitWithContext(ctx context.Context) {
	select {
	case <-gs.shutdownSignal:
		gs.logger.Info("Shutdown signal received")
	case <-ctx.Done():
		gs.logger.Info("Context cancelled, initiating shutdown")
	}

	gs.once.Do(func() {
		signal.Stop(gs.shutdownSignal)
		gs.shutdown()
		close(gs.done)
	})
}

// Done возвращает канал, который закрывается после завершения всех функций
func (gs *GracefulShutdown) Done() <-chan struct{} {
	return gs.done
}

// Shutdown инициирует завершение работы и ждет его окончания
func (gs *GracefulShutdown) Shutdown() {
	select {
	case gs.shutdownSignal <- syscall.SIGTERM:
	default:
	}
	<-gs.done
}

// shutdown выполняет зарегистрированные функции в порядке LIFO
func (gs *GracefulShutdown) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), gs.timeout)
	defer cancel()

	gs.mu.Lock()
	funcs := make([]namedShutdownFunc, len(gs.shutdownFuncs))
	copy(funcs, gs.shutdownFuncs)
	gs.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		gs.logger.Info("Stopping component", zap.String("component", funcs[i].name))
		if err := funcs[i].fn(ctx); err != nil {
			gs.logger.Error("Error during shutdown",
				zap.String("component", funcs[i].name),
				zap.Error(err))
		}
	}

	gs.logger.Info("Graceful shutdown completed")
}
