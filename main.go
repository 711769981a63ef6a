package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/Digiaroficial/digi-reparaciones-app/application/dashboard"
	"github.com/Digiaroficial/digi-reparaciones-app/application/health"
	"github.com/Digiaroficial/digi-reparaciones-app/application/inventory"
	"github.com/Digiaroficial/digi-reparaciones-app/application/sessions"
	"github.com/Digiaroficial/digi-reparaciones-app/application/tickets"
	"github.com/Digiaroficial/digi-reparaciones-app/common"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/notify"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/session"
	"github.com/Digiaroficial/digi-reparaciones-app/internal/store"
	"github.com/Digiaroficial/digi-reparaciones-app/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	z := NewLogger()
	defer z.Sync()

	db, err := setupDatabase()
	if err != nil {
		log.Fatal("Failed to setup database:", err)
	}

	rdb, err := setupRedis()
	if err != nil {
		log.Fatal("Failed to setup redis:", err)
	}

	broker := setupBroker(z)
	if broker != nil {
		defer broker.Close()
	}

	r := SetupRouter(db, rdb, broker, z)

	srv := &http.Server{
		Addr:         ":" + envOr("API_PORT", "8080"),
		Handler:      r,
		ReadTimeout:  55 * time.Second,
		WriteTimeout: 0, // snapshot streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Server starting on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func NewLogger() *zap.Logger {
	var zapLogger *zap.Logger
	var err error

	if envOr("APP_ENV", "dev") == "prod" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return zapLogger
}

// setupDatabase connects to MySQL when DB_HOST is configured and falls
// back to an in-memory SQLite store for local development.
func setupDatabase() (*gorm.DB, error) {
	host := os.Getenv("DB_HOST")

	var db *gorm.DB
	var err error
	if host == "" {
		log.Println("DB_HOST not set, using SQLite in-memory database")
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
	} else {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			envOr("DB_USER", "reparaciones"),
			os.Getenv("DB_PASS"),
			host,
			envOr("DB_PORT", "3306"),
			envOr("DB_NAME", "reparaciones"),
		)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(&common.Ticket{}, &common.Item{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func setupRedis() (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASS"),
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// setupBroker connects to RabbitMQ for the outbound notification queue.
// The broker is optional: without AMQP_URL the notify endpoint reports
// delivery as unavailable but everything else keeps working.
func setupBroker(z *zap.Logger) *amqp.Connection {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		z.Info("AMQP_URL not set, notification dispatch disabled")
		return nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		z.Warn("failed to connect to broker, notification dispatch disabled", zap.Error(err))
		return nil
	}
	return conn
}

func SetupRouter(db *gorm.DB, rdb *redis.Client, broker *amqp.Connection, z *zap.Logger) *gin.Engine {
	if envOr("APP_ENV", "dev") == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestInit())
	r.Use(middleware.ResponseInit())

	// Session bootstrap and resolution
	sessionStore := session.NewStore(rdb, 24*time.Hour)
	sessionHandler := sessions.NewHandler(sessionStore)

	// Snapshot hubs and mirrors, one pair per collection
	itemHub := store.NewHub[common.Item]()
	itemMirror := store.NewMirror(func(i common.Item) string { return i.ID })
	ticketHub := store.NewHub[common.Ticket]()
	ticketMirror := store.NewMirror(func(t common.Ticket) string { return t.ID })

	// Inventory: ledger + item lifecycle
	itemRepo := inventory.NewRepository(db, itemHub, itemMirror, z)
	ledger := inventory.NewLedger(itemMirror, itemRepo)
	inventorySvc := inventory.NewService(itemRepo, ledger, z)
	inventoryHandler := inventory.NewHandler(inventorySvc)

	// Tickets: workflow + history + notifications
	var notifier tickets.Notifier = notify.Unavailable{}
	if broker != nil {
		notifier = notify.NewPublisher(broker)
	}
	ticketRepo := tickets.NewRepository(db, ticketHub, ticketMirror, z)
	ticketSvc := tickets.NewService(ticketRepo, inventorySvc, notifier, z)
	ticketHandler := tickets.NewHandler(ticketSvc)

	// Dashboard aggregates over the ticket mirror
	dashboardHandler := dashboard.NewHandler(ticketSvc)

	// Health
	healthSvc := health.NewService(health.NewRepository(db), rdb, broker)
	healthHandler := health.NewHandler(healthSvc)

	api := r.Group("")
	healthHandler.RegisterRoutes(api)
	sessionHandler.RegisterRoutes(api)

	v1 := api.Group("/v1", middleware.SessionRequired(sessionStore))
	ticketHandler.RegisterRoutes(v1.Group("/tickets"))
	inventoryHandler.RegisterRoutes(v1.Group("/inventory"))
	dashboardHandler.RegisterRoutes(v1.Group("/dashboard"))

	return r
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
