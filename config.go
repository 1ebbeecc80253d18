package livescore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type AppConfig struct {
	Mode         string
	ApiPort      string
	RealtimePort string
	LogLevel     string
	MainDatabase struct {
		Host         string
		Port         string
		User         string
		Password     string
		DatabaseName string
		SSLMode      string
	}
	JWTConfig struct {
		Secret string
	}
	RedisConfig struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	NatsConfig struct {
		URL           string
		SubjectPrefix string
	}
	HubConfig struct {
		SendBufferSize int
		GracePeriod    time.Duration
	}
	SyncConfig struct {
		FeedURL  string
		Interval time.Duration
	}
}

var config AppConfig

// LoadConfig reads envfile (if present) and the environment into the
// package config. It does not open any connection.
func LoadConfig(envfile string) AppConfig {
	if err := godotenv.Load(envfile); err != nil {
		log.Printf("%s not loaded, using process environment: %s", envfile, err)
	}

	cfg := AppConfig{
		Mode:         GetEnv("RUN_MODE", "dev"),
		ApiPort:      GetEnv("API_PORT", ":8000"),
		RealtimePort: GetEnv("REALTIME_PORT", ":8081"),
	}
	cfg.LogLevel = GetEnv("LOG_LEVEL", defaultLogLevel(cfg.Mode))

	cfg.MainDatabase.Host = GetEnv("DB_HOSTNAME", "")
	cfg.MainDatabase.Port = GetEnv("DB_PORT", "5432")
	cfg.MainDatabase.User = GetEnv("DB_USERNAME", "")
	cfg.MainDatabase.Password = GetEnv("DB_PASSWORD", "")
	cfg.MainDatabase.DatabaseName = GetEnv("DB_NAME", "")
	cfg.MainDatabase.SSLMode = GetEnv("DB_SSL_MODE", "disable")

	cfg.JWTConfig.Secret = GetEnv("JWT_SECRET", "")

	cfg.RedisConfig.Host = GetEnv("REDIS_HOST", "")
	cfg.RedisConfig.Port = GetEnv("REDIS_PORT", "6379")
	cfg.RedisConfig.Password = GetEnv("REDIS_PASSWORD", "")
	cfg.RedisConfig.DB = getIntEnvOrDefault("REDIS_DB", 0)

	cfg.NatsConfig.URL = GetEnv("NATS_URL", "")
	cfg.NatsConfig.SubjectPrefix = GetEnv("NATS_SUBJECT_PREFIX", "livescore")

	cfg.HubConfig.SendBufferSize = getIntEnvOrDefault("HUB_SEND_BUFFER", 256)
	cfg.HubConfig.GracePeriod = time.Duration(getIntEnvOrDefault("HUB_GRACE_PERIOD_SECONDS", 10)) * time.Second

	cfg.SyncConfig.FeedURL = GetEnv("SYNC_FEED_URL", "")
	cfg.SyncConfig.Interval = time.Duration(getIntEnvOrDefault("SYNC_INTERVAL_SECONDS", 30)) * time.Second

	config = cfg
	return cfg
}

// InitConfig loads the configuration and opens the logger, the database and,
// when configured, redis.
func InitConfig(envfile string) {
	cfg := LoadConfig(envfile)
	Logger = initLogger(cfg.Mode, cfg.LogLevel)

	if cfg.Mode != "dev" && cfg.JWTConfig.Secret == "" {
		Logger.Fatal().Msg("JWT_SECRET must be set outside dev mode")
	}

	db := cfg.MainDatabase
	if db.Host == "" || db.User == "" || db.DatabaseName == "" {
		Logger.Fatal().Msg("DB_HOSTNAME, DB_USERNAME and DB_NAME must be set")
	}
	DB = connectToPostgres(db.Host, db.User, db.Password, db.DatabaseName, db.Port, db.SSLMode)

	if cfg.RedisConfig.Host != "" {
		Redis = connectToRedis(cfg.RedisConfig.Host, cfg.RedisConfig.Port, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
	}
}

// InitLogger loads the configuration and opens the logger only. Used by
// processes without a database.
func InitLogger(envfile string) {
	cfg := LoadConfig(envfile)
	Logger = initLogger(cfg.Mode, cfg.LogLevel)
}

func GetConfig() AppConfig {
	return config
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func defaultLogLevel(mode string) string {
	if mode == "dev" {
		return "debug"
	}
	return "info"
}

func connectToPostgres(host string, username string, password string, dbname string, port string, ssl string) *gorm.DB {
	var err error
	var db *gorm.DB
	var conn *sql.DB

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, username, password, dbname, port, ssl)
	if db, err = gorm.Open(postgres.Open(dsn),
		&gorm.Config{
			Logger: logger.New(
				log.New(os.Stdout, "\r\n", log.LstdFlags),
				logger.Config{
					SlowThreshold: 0,
					LogLevel:      logger.Error,
				},
			),
			TranslateError: true,
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			}}); err != nil {
		panic(err)
	}
	if conn, err = db.DB(); err != nil {
		panic(err)
	}
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)
	return db
}

func initLogger(mode string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if mode != "dev" {
		return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Caller().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	return zerolog.New(output).Level(lvl).With().Timestamp().Caller().Logger()
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}
