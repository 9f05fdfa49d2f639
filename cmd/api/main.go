package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/jobs"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/auth"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/catalog"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/delivery"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/invoice"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/kitchen"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/notification"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/order"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/routing"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/stock"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/temperature"
	"github.com/AlrightTech/Pommy-Foods-OMS-sub001/internal/modules/user"
	"github.com/bsm/redislock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Warn("no .env file found, using environment as-is")
	}

	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.WithError(err).Fatal("failed to reach database")
	}
	log.Info("connected to database")

	// Redis backs the job locks; optional in single-instance setups.
	var locker *redislock.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, jobs run unguarded")
		} else {
			locker = redislock.New(rdb)
		}
	}

	// RabbitMQ fans notification events out; optional.
	var publisher *notification.Publisher
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unreachable, notifications stay database-only")
		} else {
			defer conn.Close()
			publisher, err = notification.NewPublisher(conn)
			if err != nil {
				log.WithError(err).Warn("failed to set up notification exchange")
			} else {
				defer publisher.Close()
			}
		}
	}

	// ── Services ────────────────────────────────────────────
	userService := user.NewService(user.NewPostgresRepository(db))
	catalogService := catalog.NewService(catalog.NewPostgresRepository(db))
	stockService := stock.NewService(stock.NewPostgresRepository(db), log)
	orderService := order.NewService(order.NewPostgresRepository(db))
	kitchenService := kitchen.NewService(kitchen.NewPostgresRepository(db),
		kitchen.DeliveryGeneratorFunc(func(ctx context.Context, orderID string) error {
			_, err := orderService.GenerateDelivery(ctx, orderID)
			return err
		}), log)
	deliveryService := delivery.NewService(delivery.NewPostgresRepository(db))
	routingService := routing.NewService(routing.NewPostgresRepository(db))

	var eventPublisher notification.EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	notificationService := notification.NewService(notification.NewPostgresRepository(db), eventPublisher, log)

	invoiceService := invoice.NewService(invoice.NewPostgresRepository(db),
		invoice.NotifierFunc(notificationService.NotifyStore), log)

	temperatureService := temperature.NewService(temperature.NewPostgresRepository(db),
		temperatureAlerter{notificationService}, log)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	userHandler := user.NewHandler(userService)
	userHandler.RegisterPublicRoutes(router)

	api := chi.NewRouter()
	api.Use(auth.Middleware)
	userHandler.RegisterRoutes(api)
	catalog.NewHandler(catalogService).RegisterRoutes(api)
	stock.NewHandler(stockService).RegisterRoutes(api)
	order.NewHandler(orderService).RegisterRoutes(api)
	kitchen.NewHandler(kitchenService).RegisterRoutes(api)
	delivery.NewHandler(deliveryService).RegisterRoutes(api)
	routing.NewHandler(routingService).RegisterRoutes(api)
	invoice.NewHandler(invoiceService).RegisterRoutes(api)
	temperature.NewHandler(temperatureService).RegisterRoutes(api)
	notification.NewHandler(notificationService).RegisterRoutes(api)
	router.Mount("/", api)

	// ── Scheduled jobs ──────────────────────────────────────
	scheduler := jobs.NewScheduler(locker, log)
	jobs.RegisterAll(scheduler, stockService, kitchenService, invoiceService, temperatureService)
	scheduler.Start(context.Background())

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("api server starting")
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// temperatureAlerter bridges the temperature sweep to the notification
// module, deduplicating on the breaching log's id.
type temperatureAlerter struct {
	notifications notification.Service
}

func (a temperatureAlerter) HasAlert(ctx context.Context, logID uuid.UUID, since time.Time) (bool, error) {
	return a.notifications.Exists(ctx, notification.TypeTemperatureAlert, logID, since)
}

func (a temperatureAlerter) RaiseAlert(ctx context.Context, storeID, logID uuid.UUID, message string) error {
	return a.notifications.NotifyStore(ctx, storeID, notification.TypeTemperatureAlert,
		"Temperature alert", message, logID)
}
