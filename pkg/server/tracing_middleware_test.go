package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestEchoTracingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	e := echo.New()
	e.Use(EchoTracingMiddleware(logger))

	var seenID string
	e.GET("/api/check_login/", func(c echo.Context) error {
		seenID = GetRequestID(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]bool{"is_logged_in": false})
	})
	e.GET("/api/boom/", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "boom")
	})

	t.Run("PropagatesIncomingRequestID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/check_login/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		if seenID != "req-123" {
			t.Errorf("Expected request id 'req-123' in context, got %q", seenID)
		}
		if rec.Header().Get(RequestIDHeader) != "req-123" {
			t.Errorf("Expected request id echoed in response header, got %q", rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("GeneratesRequestID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/check_login/", nil))

		if seenID == "" || seenID == "req-123" {
			t.Errorf("Expected a freshly generated request id, got %q", seenID)
		}
	})

	t.Run("LogsServerErrors", func(t *testing.T) {
		before := logs.FilterMessage("HTTP request failed").Len()

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/boom/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("Expected 500, got %d", rec.Code)
		}
		if logs.FilterMessage("HTTP request failed").Len() != before+1 {
			t.Error("Expected failed request to be logged at error level")
		}
	})
}

func TestTracingUnaryInterceptor(t *testing.T) {
	interceptor := TracingUnaryInterceptor(zap.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	t.Run("UsesMetadataRequestID", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "grpc-42"))

		var got string
		_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			got = GetRequestID(ctx)
			return nil, nil
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != "grpc-42" {
			t.Errorf("Expected request id from metadata, got %q", got)
		}
	})

	t.Run("GeneratesRequestIDWithoutMetadata", func(t *testing.T) {
		var got string
		_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			got = GetRequestID(ctx)
			return nil, nil
		})
		if got == "" {
			t.Error("Expected generated request id")
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var got string
	handler := LoggingMiddleware(zap.NewNop(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "probe-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != "probe-1" {
		t.Errorf("Expected request id 'probe-1', got %q", got)
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected wrapped status to pass through, got %d", rec.Code)
	}
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	ctx := context.WithValue(context.Background(), RequestIDKey, "abc")
	WithRequestID(ctx, logger).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected one entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "abc" {
		t.Errorf("Expected request_id field, got %v", entries[0].ContextMap())
	}

	if WithRequestID(context.Background(), logger) != logger {
		t.Error("Expected the same logger when no request id is present")
	}
}
