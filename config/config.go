package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Поддерживаемые драйверы базы данных
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config содержит все настройки приложения
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	GRPC       GRPCConfig       `mapstructure:"grpc"`
	Health     HealthConfig     `mapstructure:"health"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	CSRF       CSRFConfig       `mapstructure:"csrf"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`
	Alerts     AlertsConfig     `mapstructure:"alerts"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
}

// AppConfig содержит общие настройки окружения
type AppConfig struct {
	Env string `mapstructure:"env"`
}

// IsDevelopment сообщает, запущен ли сервис в режиме разработки
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// HTTPConfig содержит настройки HTTP API
type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GRPCConfig содержит настройки gRPC сервера (протокол проверки здоровья)
type GRPCConfig struct {
	Port int `mapstructure:"port"`
}

// HealthConfig содержит настройки HTTP сервера проверки здоровья
type HealthConfig struct {
	Port          int           `mapstructure:"port"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// MetricsConfig содержит настройки сервера метрик Prometheus
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig содержит настройки реляционной базы данных
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig содержит настройки для Redis
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig описывает cookie сессии
type SessionConfig struct {
	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

// CSRFConfig описывает защиту от CSRF по схеме cookie + заголовок
type CSRFConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CookieName string `mapstructure:"cookie_name"`
	Header     string `mapstructure:"header"`
}

// AuthConfig содержит настройки хеширования паролей
type AuthConfig struct {
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// MonitorConfig содержит настройки журналов статуса и позы
type MonitorConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

// AlertsConfig содержит настройки публикации тревог опекуну
type AlertsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	AMQPURL string `mapstructure:"amqp_url"`
	Queue   string `mapstructure:"queue"`
}

// LoadConfig загружает настройки из config.yaml и переменных окружения.
// Отсутствие файла не считается ошибкой.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	loadFromEnv(v)

	cfg := Config{Resilience: DefaultResilienceConfig()}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}

	if c.Monitor.HistoryLimit < 1 || c.Monitor.HistoryLimit > 10 {
		return fmt.Errorf("monitor.history_limit must be between 1 and 10, got %d", c.Monitor.HistoryLimit)
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if c.Alerts.Enabled && c.Alerts.AMQPURL == "" {
		return fmt.Errorf("alerts.amqp_url is required when alerts are enabled")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "production")

	v.SetDefault("http.port", 8000)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.request_timeout", 5*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)

	v.SetDefault("grpc.port", 50051)
	v.SetDefault("health.port", 8081)
	v.SetDefault("health.check_interval", 10*time.Second)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "guardianwatch")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.cookie_name", "sessionid")
	v.SetDefault("session.ttl", 14*24*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("csrf.enabled", true)
	v.SetDefault("csrf.cookie_name", "csrftoken")
	v.SetDefault("csrf.header", "X-CSRFToken")

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("monitor.history_limit", 10)

	v.SetDefault("alerts.enabled", false)
	v.SetDefault("alerts.amqp_url", "")
	v.SetDefault("alerts.queue", "guardian.alerts")
}

// loadFromEnv применяет короткие переменные окружения, принятые в docker-compose
func loadFromEnv(v *viper.Viper) {
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		v.Set("database.driver", driver)
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		v.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			v.Set("database.port", port)
		}
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		v.Set("database.username", dbUser)
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		v.Set("database.password", dbPassword)
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		v.Set("database.dbname", dbName)
	}

	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisPort := "6379"
		if port := os.Getenv("REDIS_PORT"); port != "" {
			redisPort = port
		}
		v.Set("redis.addr", redisHost+":"+redisPort)
	}

	if httpPort := os.Getenv("HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			v.Set("http.port", port)
		}
	}
	if grpcPort := os.Getenv("GRPC_PORT"); grpcPort != "" {
		if port, err := strconv.Atoi(grpcPort); err == nil {
			v.Set("grpc.port", port)
		}
	}

	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		v.Set("alerts.amqp_url", amqpURL)
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		v.Set("app.env", env)
	}
}
