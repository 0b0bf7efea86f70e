package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// httpRequestDuration измеряет длительность HTTP запросов
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// httpRequestsTotal подсчитывает HTTP запросы
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// grpcRequestDuration измеряет длительность gRPC запросов
	grpcRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	// grpcRequestsTotal подсчитывает общее количество gRPC запросов
	grpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status"},
	)

	// dbOperationDuration измеряет длительность операций с базой данных
	dbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// dbOperationsTotal подсчитывает общее количество операций с базой данных
	dbOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	// cacheOperationDuration измеряет длительность операций с Redis
	cacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// cacheOperationsTotal подсчитывает общее количество операций с Redis
	cacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "status"},
	)

	// circuitBreakerState отслеживает состояние circuit breaker
	circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "State of circuit breaker (0: closed, 1: half-open, 2: open)",
		},
		[]string{"name"},
	)

	// monitorRecordsTotal подсчитывает добавленные записи статуса и позы по коду
	monitorRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_records_total",
			Help: "Total number of appended status and posture records",
		},
		[]string{"kind", "code"},
	)

	// guardianAlertsTotal подсчитывает публикации тревог опекуну
	guardianAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_alerts_total",
			Help: "Total number of guardian alert publications",
		},
		[]string{"status"},
	)
)

// MetricsServer запускает HTTP сервер для Prometheus
func MetricsServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting metrics server", zap.Int("port", port))
		// Недоступность метрик не должна останавливать основной сервис
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return server
}

// EchoMetricsMiddleware собирает метрики HTTP запросов по шаблону маршрута
func EchoMetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			startTime := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			code := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			httpRequestDuration.WithLabelValues(method, route, code).Observe(time.Since(startTime).Seconds())
			httpRequestsTotal.WithLabelValues(method, route, code).Inc()

			return nil
		}
	}
}

// MetricsUnaryInterceptor создает gRPC перехватчик для сбора метрик
func MetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := time.Now()

		resp, err := handler(ctx, req)

		statusCode := codes.OK
		if err != nil {
			statusCode = status.Code(err)
		}

		grpcRequestDuration.WithLabelValues(info.FullMethod, statusCode.String()).Observe(time.Since(startTime).Seconds())
		grpcRequestsTotal.WithLabelValues(info.FullMethod, statusCode.String()).Inc()

		return resp, err
	}
}

// RecordDBOperation записывает метрики операции с базой данных
func RecordDBOperation(operation string, duration time.Duration, err error) {
	status := operationStatus(err)
	dbOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordCacheOperation записывает метрики операции с Redis
func RecordCacheOperation(operation string, duration time.Duration, err error) {
	status := operationStatus(err)
	cacheOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	cacheOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordCircuitBreakerStateChange записывает изменение состояния circuit breaker
func RecordCircuitBreakerStateChange(name string, state int) {
	circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordMonitorRecord учитывает новую запись журнала статуса ("status") или позы ("posture")
func RecordMonitorRecord(kind string, code int) {
	monitorRecordsTotal.WithLabelValues(kind, strconv.Itoa(code)).Inc()
}

// RecordGuardianAlert учитывает результат публикации тревоги
func RecordGuardianAlert(err error) {
	guardianAlertsTotal.WithLabelValues(operationStatus(err)).Inc()
}

func operationStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
