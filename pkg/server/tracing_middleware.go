package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type contextKey string

const (
	// RequestIDKey ключ для request ID в контексте
	RequestIDKey contextKey = "request_id"

	// StartTimeKey ключ для времени начала запроса в контексте
	StartTimeKey contextKey = "start_time"

	// RequestIDHeader заголовок, в котором передается request ID
	RequestIDHeader = "X-Request-ID"
)

// EchoTracingMiddleware присваивает запросу request ID и логирует его завершение.
// Ошибки обработчика передаются в HTTPErrorHandler здесь же, чтобы в лог попал итоговый код ответа.
func EchoTracingMiddleware(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(RequestIDHeader, requestID)

			startTime := time.Now()
			ctx := context.WithValue(req.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, StartTimeKey, startTime)
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("request_id", requestID),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(startTime)),
			}

			if c.Response().Status >= http.StatusInternalServerError {
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				logger.Error("HTTP request failed", fields...)
			} else {
				logger.Info("HTTP request completed", fields...)
			}

			return nil
		}
	}
}

// TracingUnaryInterceptor создает перехватчик для трассировки gRPC запросов
func TracingUnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := getRequestIDFromMetadata(ctx)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		startTime := time.Now()
		ctx = context.WithValue(ctx, RequestIDKey, requestID)
		ctx = context.WithValue(ctx, StartTimeKey, startTime)

		resp, err := handler(ctx, req)

		duration := time.Since(startTime)
		if err != nil {
			logger.Error("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.String("request_id", requestID),
				zap.Duration("duration", duration),
				zap.Error(err))
		} else {
			logger.Debug("gRPC request completed",
				zap.String("method", info.FullMethod),
				zap.String("request_id", requestID),
				zap.Duration("duration", duration))
		}

		return resp, err
	}
}

// LoggingMiddleware логирует запросы к вспомогательным net/http серверам
func LoggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		startTime := time.Now()
		ww := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(ww, r)

		logger.Debug("HTTP request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
			zap.Int("status", ww.statusCode),
			zap.Duration("duration", time.Since(startTime)))
	})
}

// responseWriterWrapper запоминает код ответа
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// getRequestIDFromMetadata извлекает request ID из gRPC metadata
func getRequestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get("x-request-id")
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// GetRequestID извлекает request ID из контекста
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID добавляет request ID в логгер
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if requestID := GetRequestID(ctx); requestID != "" {
		return logger.With(zap.String("request_id", requestID))
	}
	return logger
}
