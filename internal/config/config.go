package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration for the admin backend.
// It is built once at startup and passed to every component that needs it.
type Config struct {
	HTTPPort   string
	JWTSecret  []byte
	SessionTTL time.Duration
	LogLevel   string
	Database   DatabaseConfig
	Redis      RedisConfig
	Analytics  AnalyticsConfig
	RateLimit  RateLimitConfig
	AccessLog  AccessLogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AnalyticsConfig points at the analytics backend that turns questions into SQL.
type AnalyticsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // zero means no client-side timeout
}

// RateLimitConfig holds per-caller limits for the query proxy
type RateLimitConfig struct {
	QueriesPerMinute int // 0 disables limiting
}

type AccessLogConfig struct {
	Enabled          bool
	FilePathTemplate string
	MaxSize          int64
	MaxFiles         int
	BufferSize       int
	FlushInterval    time.Duration
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvInt64(key string, defaultValue int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getEnvBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return b
}

// Load reads configuration from environment variables.
//
// The analytics backend URL and credential and the session signing secret
// have no built-in fallbacks and must be provided by the environment.
func Load() (*Config, error) {
	db, err := LoadDatabase()
	if err != nil {
		return nil, err
	}

	analyticsURL := strings.TrimRight(os.Getenv("ANALYTICS_API_URL"), "/")
	if analyticsURL == "" {
		return nil, fmt.Errorf("ANALYTICS_API_URL is required")
	}
	analyticsKey := os.Getenv("ANALYTICS_API_KEY")
	if analyticsKey == "" {
		return nil, fmt.Errorf("ANALYTICS_API_KEY is required")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		HTTPPort:   getEnvString("HTTP_PORT", "8080"),
		JWTSecret:  []byte(jwtSecret),
		SessionTTL: getEnvDuration("SESSION_TTL", 12*time.Hour),
		LogLevel:   getEnvString("LOG_LEVEL", "info"),
		Database:   db,
		Redis: RedisConfig{
			Address:      getEnvString("REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Analytics: AnalyticsConfig{
			BaseURL: analyticsURL,
			APIKey:  analyticsKey,
			Timeout: getEnvDuration("ANALYTICS_TIMEOUT", 0),
		},
		RateLimit: RateLimitConfig{
			QueriesPerMinute: getEnvInt("QUERY_RATE_LIMIT_PER_MINUTE", 0),
		},
		AccessLog: AccessLogConfig{
			Enabled:          getEnvBool("ACCESS_LOG_ENABLED", false),
			FilePathTemplate: getEnvString("ACCESS_LOG_FILE_PATH_TEMPLATE", "/var/log/bqadmin/access-%s.jsonl"),
			MaxSize:          getEnvInt64("ACCESS_LOG_MAX_SIZE", 10_485_760), // 10 MB
			MaxFiles:         getEnvInt("ACCESS_LOG_MAX_FILES", 5),
			BufferSize:       getEnvInt("ACCESS_LOG_BUFFER_SIZE", 100),
			FlushInterval:    getEnvDuration("ACCESS_LOG_FLUSH_INTERVAL", 10*time.Second),
		},
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that never talk
// to the analytics backend.
func LoadDatabase() (DatabaseConfig, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required")
	}

	return DatabaseConfig{
		URL:             dbURL,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
	}, nil
}
