package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/director74/logistics-tracker/inventory-service/config"
	httpController "github.com/director74/logistics-tracker/inventory-service/internal/controller/http"
	rmqController "github.com/director74/logistics-tracker/inventory-service/internal/controller/rabbitmq"
	"github.com/director74/logistics-tracker/inventory-service/internal/entity"
	"github.com/director74/logistics-tracker/inventory-service/internal/repo"
	"github.com/director74/logistics-tracker/inventory-service/internal/usecase"
	"github.com/director74/logistics-tracker/pkg/auth"
	"github.com/director74/logistics-tracker/pkg/database"
	"github.com/director74/logistics-tracker/pkg/errors"
	"github.com/director74/logistics-tracker/pkg/messaging"
)

// App представляет основное приложение сервиса склада.
// Внутренние API эндпоинты (/internal/*) предназначены только для
// взаимодействия между микросервисами.
type App struct {
	config   *config.Config
	db       *gorm.DB
	rabbitMQ messaging.MessageBroker
	router   *gin.Engine
	server   *http.Server
}

// NewApp создает новое приложение с указанной конфигурацией
func NewApp(cfg *config.Config) (*App, error) {
	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, errors.AppendPrefix(err, "не удалось подключиться к базе данных")
	}

	// Автомиграция моделей
	if err := database.AutoMigrateWithCleanup(db, &entity.InventoryItem{}, &entity.InventoryReservation{}); err != nil {
		return nil, errors.AppendPrefix(err, "не удалось выполнить миграцию")
	}

	// Инициализируем подключение к RabbitMQ
	rmq, err := messaging.InitRabbitMQ(cfg.RabbitMQ)
	if err != nil {
		database.CloseDB(db)
		return nil, errors.AppendPrefix(err, "не удалось подключиться к RabbitMQ")
	}

	// Объявляем exchange доменных событий
	if err := messaging.SetupEventExchange(rmq, cfg.Events.Exchange); err != nil {
		database.CloseDB(db)
		rmq.Close()
		return nil, errors.AppendPrefix(err, "ошибка при настройке RabbitMQ")
	}

	// Инициализируем JWT менеджер для внутренних API
	jwtManager := auth.NewJWTManager(&auth.Config{
		SigningKey:     cfg.JWT.SigningKey,
		TokenTTL:       cfg.JWT.TokenTTL,
		TokenIssuer:    cfg.JWT.TokenIssuer,
		TokenAudiences: cfg.JWT.TokenAudiences,
	})

	// Создание издателя доменных событий
	publisher := messaging.NewRabbitEventPublisher(rmq, cfg.Events.Exchange, cfg.Events.TopicPrefix,
		log.New(log.Writer(), "[InventoryService] [Events] ", log.LstdFlags))

	// Создание репозитория и бизнес-логики склада
	inventoryRepo := repo.NewInventoryRepo(db)
	ledger := usecase.NewInventoryLedger(inventoryRepo, publisher,
		log.New(log.Writer(), "[InventoryLedger] ", log.LstdFlags))

	// Создание роутера
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(errors.RecoveryMiddleware())
	router.Use(errors.ErrorMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	router.NoMethod(errors.MethodNotAllowedHandler())

	// Создание обработчика HTTP запросов и регистрация маршрутов
	inventoryHandler := httpController.NewInventoryHandler(ledger, cfg, jwtManager)
	inventoryHandler.RegisterRoutes(router)

	// Подписка на события заказов
	eventConsumer := messaging.NewEventConsumer(rmq, cfg.Events.Exchange, cfg.Events.TopicPrefix,
		cfg.Events.ConsumerGroup, log.New(log.Writer(), "[InventoryService] [Events] ", log.LstdFlags))
	orderConsumer := rmqController.NewOrderEventsConsumer(ledger, eventConsumer)
	if err := orderConsumer.Setup(); err != nil {
		database.CloseDB(db)
		rmq.Close()
		return nil, errors.AppendPrefix(err, "ошибка настройки обработчика событий")
	}

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		config:   cfg,
		db:       db,
		rabbitMQ: rmq,
		router:   router,
		server:   server,
	}, nil
}

// Run запускает приложение
func (a *App) Run() error {
	// Запуск HTTP сервера
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Ошибка запуска HTTP сервера: %v", err)
		}
	}()

	log.Printf("Сервис склада запущен на порту %s", a.config.HTTP.Port)

	// Ожидание сигнала для грациозного завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Завершение работы сервиса склада...")

	// Завершение HTTP сервера
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("Ошибка остановки HTTP сервера: %v", err)
	}

	// Закрытие соединения с RabbitMQ
	if err := a.rabbitMQ.Close(); err != nil {
		log.Printf("Ошибка закрытия соединения с RabbitMQ: %v", err)
	}

	// Закрытие соединения с базой данных
	if err := database.CloseDB(a.db); err != nil {
		log.Printf("Ошибка закрытия соединения с базой данных: %v", err)
	}

	log.Println("Сервис склада остановлен")
	return nil
}

// Healthcheck проверяет работоспособность сервиса
func (a *App) Healthcheck() error {
	sql, err := a.db.DB()
	if err != nil {
		return err
	}

	return sql.Ping()
}
