package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.HTTP.Port != 8000 {
		t.Errorf("Expected default http port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("Expected default driver %q, got %q", DriverPostgres, cfg.Database.Driver)
	}
	if cfg.Session.CookieName != "sessionid" {
		t.Errorf("Expected session cookie 'sessionid', got %q", cfg.Session.CookieName)
	}
	if cfg.Session.TTL != 14*24*time.Hour {
		t.Errorf("Expected session ttl of 14 days, got %v", cfg.Session.TTL)
	}
	if !cfg.CSRF.Enabled || cfg.CSRF.Header != "X-CSRFToken" {
		t.Errorf("Unexpected csrf defaults: %+v", cfg.CSRF)
	}
	if cfg.Monitor.HistoryLimit != 10 {
		t.Errorf("Expected history limit 10, got %d", cfg.Monitor.HistoryLimit)
	}
	if cfg.Resilience.CircuitBreaker.FailureThreshold != 5 {
		t.Errorf("Expected resilience defaults to survive decoding, got %+v", cfg.Resilience)
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
database:
  driver: mysql
  port: 3306
session:
  ttl: 2h
monitor:
  history_limit: 5
resilience:
  retry:
    max_retries: 4
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Database.Driver != DriverMySQL || cfg.Database.Port != 3306 {
		t.Errorf("Expected mysql on 3306, got %s on %d", cfg.Database.Driver, cfg.Database.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected DB_HOST override, got %q", cfg.Database.Host)
	}
	if cfg.Redis.Addr != "cache.internal:6379" {
		t.Errorf("Expected redis addr from REDIS_HOST, got %q", cfg.Redis.Addr)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("Expected HTTP_PORT override, got %d", cfg.HTTP.Port)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("Expected session ttl 2h, got %v", cfg.Session.TTL)
	}
	if cfg.Monitor.HistoryLimit != 5 {
		t.Errorf("Expected history limit 5, got %d", cfg.Monitor.HistoryLimit)
	}
	if cfg.Resilience.Retry.MaxRetries != 4 {
		t.Errorf("Expected max retries 4, got %d", cfg.Resilience.Retry.MaxRetries)
	}
	if cfg.Resilience.CircuitBreaker.ResetTimeout != 30*time.Second {
		t.Errorf("Expected untouched reset timeout, got %v", cfg.Resilience.CircuitBreaker.ResetTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverPostgres},
			Auth:     AuthConfig{BcryptCost: 10},
			Monitor:  MonitorConfig{HistoryLimit: 10},
			Session:  SessionConfig{TTL: time.Hour},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		cfg := valid()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Expected valid config, got %v", err)
		}
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Driver = "sqlite"
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for unsupported driver")
		}
	})

	t.Run("HistoryLimitTooLarge", func(t *testing.T) {
		cfg := valid()
		cfg.Monitor.HistoryLimit = 11
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error for history limit above 10")
		}
	})

	t.Run("AlertsWithoutURL", func(t *testing.T) {
		cfg := valid()
		cfg.Alerts.Enabled = true
		if err := cfg.Validate(); err == nil {
			t.Error("Expected error when alerts are enabled without amqp url")
		}
	})
}
