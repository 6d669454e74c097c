package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Taxii    TaxiiConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
	Driver     string
}

type AuthConfig struct {
	Required  bool
	JwtSecret string
}

type TaxiiConfig struct {
	// PollAsyncThreshold is the match count above which a poll is answered
	// asynchronously. Zero disables asynchronous delivery.
	PollAsyncThreshold int
	PollEstimatedWait  time.Duration
	ResultSetTTL       time.Duration
	SweepInterval      time.Duration
	ServiceCacheTTL    time.Duration
	VolumeCounterTTL   time.Duration
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:3000"), "/"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/inbox_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Driver:     getEnv("STORE_DRIVER", StoreDriverPostgres),
		},
		Auth: AuthConfig{
			Required:  getEnvAsBool("AUTH_REQUIRED", false),
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Taxii: TaxiiConfig{
			PollAsyncThreshold: getEnvAsInt("POLL_ASYNC_THRESHOLD", 0),
			PollEstimatedWait:  getEnvAsDuration("POLL_ESTIMATED_WAIT", 0),
			ResultSetTTL:       getEnvAsPositiveDuration("RESULT_SET_TTL", 24*time.Hour),
			SweepInterval:      getEnvAsDuration("RESULT_SET_SWEEP_INTERVAL", 5*time.Minute),
			ServiceCacheTTL:    getEnvAsDuration("SERVICE_CACHE_TTL", time.Minute),
			VolumeCounterTTL:   getEnvAsDuration("VOLUME_COUNTER_TTL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsPositiveDuration is getEnvAsDuration with zero and negative values
// replaced by fallback.
func getEnvAsPositiveDuration(key string, fallback time.Duration) time.Duration {
	if value := getEnvAsDuration(key, fallback); value > 0 {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
