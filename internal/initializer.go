// Package internal bootstraps the server: environment, database, cache and
// the HTTP router.
package internal

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"contacts-server/internal/managers"
	"contacts-server/internal/migrations"
	"contacts-server/internal/routing"
)

const (
	port    = ":8080"
	envFile = ".env"
)

// Init loads the configuration, runs the schema migrations, builds the
// manager graph and serves the API until interrupted.
func Init() {
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("No .env file found, using environment variables from system")
	} else {
		log.Info("Loaded environment variables from .env file")
	}

	setLogLevel(os.Getenv("LOG_LEVEL"))

	dsn := databaseDSN()
	runMigrations(dsn)

	pool := initializeDatabase(dsn)
	defer pool.Close()
	databaseMgr := managers.NewDatabaseManager(pool)

	mailMgr := managers.NewMailManager()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	jwtMgr := managers.NewJWTManager([]byte(secret))

	redisClient := initializeRedis()
	var cacheMgr managers.CacheMgr
	if redisClient != nil {
		cacheMgr = managers.NewRedisCacheManager(redisClient)
	} else {
		log.Info("REDIS_HOST not set, using in-memory user cache and disabling rate limits")
		cacheMgr = managers.NewMemoryCacheManager()
	}

	storageMgr, err := managers.NewS3StorageManager()
	if err != nil {
		log.Fatal("error initializing avatar storage: ", err)
	}

	r := routing.InitRouter(databaseMgr, mailMgr, jwtMgr, cacheMgr, storageMgr, redisClient)
	log.Info("Initialized router")

	// Handle interrupt signal gracefully
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)

		<-c
		log.Println("Server shutting down...")
		os.Exit(0)
	}()

	log.Printf("Starting server on port %s...\n", port)
	err = http.ListenAndServe(port, r)
	if err != nil {
		log.Fatal("Error starting server: ", err)
	}
}

func databaseDSN() string {
	var (
		dbHost     = os.Getenv("DB_HOST")
		dbPort     = os.Getenv("DB_PORT")
		dbUser     = os.Getenv("DB_USER")
		dbPassword = os.Getenv("DB_PASS")
		dbName     = os.Getenv("DB_NAME")
	)

	if dbHost == "" || dbPort == "" || dbUser == "" || dbPassword == "" || dbName == "" {
		log.Fatal("database environment variables not set")
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)
}

// runMigrations applies the embedded goose migrations through the pgx stdlib
// driver before the pool is opened.
func runMigrations(dsn string) {
	log.Info("Running database migrations")

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("error opening migration connection: ", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err = goose.SetDialect("pgx"); err != nil {
		log.Fatal("error setting migration dialect: ", err)
	}
	if err = goose.UpContext(context.Background(), db, "."); err != nil {
		log.Fatal("error running migrations: ", err)
	}

	log.Info("Database migrations up to date")
}

func initializeDatabase(dsn string) *pgxpool.Pool {
	log.Info("Initializing database")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal("error configuring database: ", err)
	}

	config.MinConns = 5
	config.MaxConns = 30
	config.MaxConnIdleTime = time.Minute * 2
	config.HealthCheckPeriod = time.Minute * 1

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatal("error connecting to database: ", err)
	}
	log.Info("Connected to database")
	return pool
}

// initializeRedis returns nil when no REDIS_HOST is configured; the server
// then runs with the in-memory cache and without rate limiting.
func initializeRedis() *redis.Client {
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return nil
	}

	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password: os.Getenv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("error connecting to redis: ", err)
	}

	log.Info("Connected to redis")
	return client
}

func setLogLevel(logLevel string) {
	switch logLevel {
	case "DEBUG":
		log.SetLevel(log.DebugLevel)
	case "INFO":
		log.SetLevel(log.InfoLevel)
	case "WARN":
		log.SetLevel(log.WarnLevel)
	case "ERROR":
		log.SetLevel(log.ErrorLevel)
	case "FATAL":
		log.SetLevel(log.FatalLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	log.SetReportCaller(true)
	log.SetOutput(os.Stdout)
}
