package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	StepSeconds    float64
	MinSubsteps    int
	MaxShotSeconds float64
	RackSeed       uint64

	// Sessions
	IdleAbortSeconds  int
	IdlePollSeconds   int
	SessionTTLMinutes int

	// Security
	JWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/cuesim?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		StepSeconds:    getEnvFloat("SIM_STEP_SECONDS", 0.01),
		MinSubsteps:    getEnvInt("SIM_MIN_SUBSTEPS", 15),
		MaxShotSeconds: getEnvFloat("MAX_SHOT_SECONDS", 60),
		RackSeed:       uint64(getEnvInt("RACK_SEED", 0)),

		IdleAbortSeconds:  getEnvInt("IDLE_ABORT_SECONDS", 300),
		IdlePollSeconds:   getEnvInt("IDLE_POLL_SECONDS", 10),
		SessionTTLMinutes: getEnvInt("SESSION_TTL_MINUTES", 120),

		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
