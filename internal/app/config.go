package app

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config описывает настройки запуска приложения.
// Все значения читаются из окружения с префиксом MARKET_.
type Config struct {
	// HTTPAddr — адрес основного HTTP API.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера (метрики и health checks).
	MetricsAddr string
	// PostgresDSN — строка подключения к Postgres. Пустая строка
	// переключает приложение на in-memory хранилища.
	PostgresDSN string
	// KafkaBrokers — список брокеров через запятую. Пустая строка
	// отключает публикацию событий.
	KafkaBrokers string
	// OutboxPollInterval — период опроса outbox воркером.
	OutboxPollInterval time.Duration
	// IdempotencyCleanupInterval — период чистки протухших idempotency-ключей.
	IdempotencyCleanupInterval time.Duration
}

// DefaultConfig возвращает базовые адреса и интервалы.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                   ":8080",
		MetricsAddr:                ":9090",
		OutboxPollInterval:         time.Second,
		IdempotencyCleanupInterval: 10 * time.Minute,
	}
}

// LoadConfig читает конфигурацию из окружения поверх значений по умолчанию.
// Файл .env подхватывается, если присутствует.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	cfg.HTTPAddr = getenv("MARKET_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = getenv("MARKET_METRICS_ADDR", cfg.MetricsAddr)
	cfg.PostgresDSN = getenv("MARKET_POSTGRES_DSN", cfg.PostgresDSN)
	cfg.KafkaBrokers = getenv("MARKET_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.OutboxPollInterval = getenvDuration("MARKET_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.IdempotencyCleanupInterval = getenvDuration("MARKET_IDEMPOTENCY_CLEANUP_INTERVAL", cfg.IdempotencyCleanupInterval)
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
