package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-service/internal/api"
	"task-service/internal/config"
	"task-service/internal/repository"
	"task-service/internal/service"
	"task-service/migrations"
)

func connectMySQL(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < cfg.DBConnectRetries; i++ {
		db, err = sql.Open("mysql", cfg.MySQLDSN())
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				log.Info().Msgf("Connected to DB %s", cfg.DBName)
				return db, nil
			}
			db.Close()
		}
		log.Warn().Err(err).Msgf("Retry %d: Failed to connect to DB %s (%s:%s)", i+1, cfg.DBName, cfg.DBHost, cfg.DBPort)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %w", cfg.DBName, cfg.DBHost, cfg.DBPort, err)
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", cfg.MongoURI, err)
	}

	log.Info().Msgf("Connected to MongoDB database %s", cfg.MongoDatabase)
	return client.Database(cfg.MongoDatabase), nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMySQL:
		db, err := connectMySQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := migrations.AutoMigrate(ctx, cfg.MigrationRetries, db); err != nil {
			db.Close()
			return nil, err
		}
		return repository.NewMySQLRepository(db), nil
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return repository.NewMemoryRepository(), nil
	default:
		db, err := connectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoRepository(db), nil
	}
}

func main() {
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Msgf("Invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	zerolog.SetGlobalLevel(level)

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close(ctx)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled() {
		kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaWriter.Close()
		events = service.NewKafkaPublisher(kafkaWriter)
	}

	secret := []byte(cfg.JWTSecret)

	userService := service.NewUserService(store, secret)
	taskService := service.NewTaskService(store, events)
	userHandler := api.NewUserHandler(userService)
	taskHandler := api.NewTaskHandler(taskService)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.CORS())

	if cfg.RateLimitEnabled() {
		var limiterStore middleware.RateLimiterStore
		if cfg.RedisAddr != "" {
			rdb := config.NewRedisClient(cfg.RedisAddr)
			defer rdb.Close()
			limiterStore = api.NewRedisRateLimiterStore(rdb, cfg.RateLimit, cfg.RateBurst)
		} else {
			limiterStore = api.NewMemoryRateLimiterStore(cfg.RateLimit, cfg.RateBurst)
		}
		e.Use(api.NewRateLimiter(limiterStore))
	}

	api.RegisterRoutes(e, userHandler, taskHandler, api.NewAuthMiddleware(secret))

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}
}
