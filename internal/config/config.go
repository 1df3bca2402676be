// Пакет config — загрузка и валидация конфигурации Share Vault
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultMaxFileSize — глобальный лимит размера загрузки по умолчанию:
// 200 MiB. Граница включительная: файл ровно в 209715200 байт проходит.
const DefaultMaxFileSize int64 = 209715200

// Config содержит все параметры конфигурации Share Vault.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Базовый URL для публичных ссылок (например, "https://files.example.com")
	PublicURL string
	// Путь к директории хранения файлов
	DataDir string
	// Глобальный максимальный размер файла в байтах
	MaxFileSize int64
	// Стоимость bcrypt для хэширования паролей ссылок
	BcryptCost int
	// URL JWKS endpoint для валидации JWT (пусто — аутентификация отключена)
	JWKSUrl string
	// Путь к CA-сертификату для проверки TLS JWKS endpoint (опционально)
	JWKSCACert string
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (SV_DEPHEALTH_GROUP)
	DephealthGroup string
	// Имя зависимости (целевого сервиса) в метриках topologymetrics
	DephealthDepName string
	// Имя вершины графа текущего приложения в topologymetrics
	ServiceName string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// SV_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("SV_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("SV_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("SV_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// SV_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("SV_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// SV_PUBLIC_URL — базовый URL публичных ссылок
	// (по умолчанию http://localhost:{port})
	cfg.PublicURL = getEnvDefault("SV_PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port))
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	// SV_MAX_FILE_SIZE — глобальный лимит размера (по умолчанию 200 MiB)
	maxFileSize, err := getEnvInt64("SV_MAX_FILE_SIZE", DefaultMaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("SV_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("SV_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// SV_BCRYPT_COST — стоимость bcrypt (по умолчанию bcrypt.DefaultCost)
	bcryptCost, err := getEnvInt("SV_BCRYPT_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("SV_BCRYPT_COST: %w", err)
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("SV_BCRYPT_COST: значение %d вне допустимого диапазона %d-%d",
			bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	cfg.BcryptCost = bcryptCost

	// SV_JWKS_URL — опциональный; пусто означает запуск без аутентификации
	cfg.JWKSUrl = getEnvDefault("SV_JWKS_URL", "")

	// SV_JWKS_CA_CERT — путь к CA-сертификату для JWKS endpoint (опционально)
	cfg.JWKSCACert = getEnvDefault("SV_JWKS_CA_CERT", "")

	// SV_JWKS_REFRESH_INTERVAL — интервал обновления JWKS-ключей (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("SV_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("SV_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// SV_JWT_LEEWAY — допустимое отклонение времени JWT (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("SV_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SV_JWT_LEEWAY: %w", err)
	}

	// SV_TLS_CERT / SV_TLS_KEY — опциональные, но только парой
	cfg.TLSCert = getEnvDefault("SV_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("SV_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("SV_TLS_CERT и SV_TLS_KEY должны задаваться вместе")
	}

	// SV_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SV_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SV_LOG_LEVEL: %w", err)
	}

	// SV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("SV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SV_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// SV_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("SV_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SV_SHUTDOWN_TIMEOUT: %w", err)
	}

	// SV_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("SV_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SV_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// SV_DEPHEALTH_GROUP — имя группы в метриках topologymetrics
	cfg.DephealthGroup = getEnvDefault("SV_DEPHEALTH_GROUP", "sharevault")

	// SV_DEPHEALTH_DEP_NAME — имя зависимости в метриках topologymetrics
	cfg.DephealthDepName = getEnvDefault("SV_DEPHEALTH_DEP_NAME", "auth-jwks")

	// SV_SERVICE_NAME — имя вершины графа приложения
	cfg.ServiceName = getEnvDefault("SV_SERVICE_NAME", "sharevault")

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
