package config

import (
	"github.com/director74/logistics-tracker/pkg/config"
)

// Config содержит конфигурацию сервиса склада
type Config struct {
	HTTP     config.HTTPConfig
	Postgres config.PostgresConfig
	RabbitMQ config.RabbitMQConfig
	Events   config.EventsConfig
	JWT      config.JWTConfig
	Internal InternalAPIConfig
}

// InternalAPIConfig конфигурация для внутреннего API
type InternalAPIConfig struct {
	TrustedNetworks []string
	APIKeyEnvName   string
	DefaultAPIKey   string
	HeaderName      string
}

// NewConfig создает новую конфигурацию сервиса склада
func NewConfig() (*Config, error) {
	// Загружаем общую конфигурацию
	commonConfig := config.LoadCommonConfig("inventory", "8081")

	// Загружаем конфигурацию межсервисных JWT
	jwtConfig := config.LoadJWTConfig("inventory-service")

	// Настройки для внутреннего API
	internalConfig := loadInternalAPIConfig()

	return &Config{
		HTTP:     commonConfig.HTTP,
		Postgres: commonConfig.Postgres,
		RabbitMQ: commonConfig.RabbitMQ,
		Events:   commonConfig.Events,
		JWT:      *jwtConfig,
		Internal: internalConfig,
	}, nil
}

// loadInternalAPIConfig загружает конфигурацию для внутреннего API
func loadInternalAPIConfig() InternalAPIConfig {
	return InternalAPIConfig{
		TrustedNetworks: []string{
			"10.0.0.0/8",     // Внутренняя сеть Kubernetes
			"172.16.0.0/12",  // Docker сеть по умолчанию
			"192.168.0.0/16", // Локальная сеть
			"127.0.0.0/8",    // Локальный хост
		},
		APIKeyEnvName: "INTERNAL_API_KEY",
		DefaultAPIKey: "internal-api-key-for-development",
		HeaderName:    "X-Internal-API-Key",
	}
}
