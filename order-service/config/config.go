package config

import (
	"github.com/director74/logistics-tracker/pkg/config"
)

// Config содержит конфигурацию сервиса заказов
type Config struct {
	HTTP     config.HTTPConfig
	Postgres config.PostgresConfig
	RabbitMQ config.RabbitMQConfig
	Events   config.EventsConfig
	Services config.ServicesConfig
	JWT      config.JWTConfig
	Internal InternalAPIConfig
}

// InternalAPIConfig настройки доступа к внутренним API соседних сервисов
type InternalAPIConfig struct {
	APIKey string
}

func NewConfig() (*Config, error) {
	// Загружаем общую конфигурацию
	commonConfig := config.LoadCommonConfig("orders", "8080")
	jwtConfig := config.LoadJWTConfig("order-service")
	servicesConfig := config.LoadServicesConfig()

	return &Config{
		HTTP:     commonConfig.HTTP,
		Postgres: commonConfig.Postgres,
		RabbitMQ: commonConfig.RabbitMQ,
		Events:   commonConfig.Events,
		Services: *servicesConfig,
		JWT:      *jwtConfig,
		Internal: InternalAPIConfig{
			APIKey: config.GetEnv("INTERNAL_API_KEY", "internal-api-key-for-development"),
		},
	}, nil
}
