package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI           string
	DBName             string
	JWTSecret          string
	Port               string
	Env                string
	LogLevel           string
	BusinessUTCOffset  time.Duration
	RequestTimeout     time.Duration
	RedisAddr          string
	PaymentCallbackKey string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	return Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "laundry"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("APP_ENV", "dev"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		BusinessUTCOffset:  time.Duration(getIntEnv("BUSINESS_UTC_OFFSET_HOURS", 7)) * time.Hour,
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT_SECONDS", 5, time.Second),
		RedisAddr:          getEnvOrDefault("REDIS_ADDR", ""),
		PaymentCallbackKey: getEnvOrDefault("PAYMENT_CALLBACK_KEY", ""),
	}
}

// LockTTL bounds how long a cart lock is held. Order creation runs several
// store calls under the lock, each capped at RequestTimeout.
func (c Config) LockTTL() time.Duration {
	return 12 * c.RequestTimeout
}
