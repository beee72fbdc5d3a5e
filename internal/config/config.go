package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	CORSAllowOrigins   []string

	MongoURI     string
	MongoDBName  string
	StoreTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	CartCacheTTL  time.Duration

	// Empty KafkaBrokers disables the booking event publisher.
	KafkaBrokers       []string
	BookingEventsTopic string

	// Empty JWTSecret turns off bearer token checks.
	JWTSecret string

	LogLevel string
}

func Load() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "5000"),
		RequestTimeout:     parseDuration(getEnv("REQUEST_TIMEOUT", ""), 30*time.Second),
		ShutdownTimeout:    parseDuration(getEnv("SHUTDOWN_TIMEOUT", ""), 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB
		CORSAllowOrigins:   splitCSV(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:  getEnv("MONGO_DB_NAME", "swiftserve"),
		StoreTimeout: parseDuration(getEnv("STORE_TIMEOUT", ""), 5*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CartCacheTTL:  parseDuration(getEnv("CART_CACHE_TTL", ""), 15*time.Minute),

		KafkaBrokers:       splitCSV(getEnv("KAFKA_BROKERS", "")),
		BookingEventsTopic: getEnv("BOOKING_EVENTS_TOPIC", "booking-events"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); strings.TrimSpace(value) != "" {
		return value
	}
	return defaultValue
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
