package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the ledger service configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBDriver   string
	DBPath     string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration
}

// ClientConfig holds the tracker client configuration
type ClientConfig struct {
	APIURL         string
	StatePath      string
	RequestTimeout time.Duration
	Env            string
}

var appConfig *Config

// Load loads the service configuration from environment variables
func Load() (*Config, error) {
	loadDotEnv()

	config := &Config{
		Port: getEnv("PORT", "5001"),
		Env:  getEnv("ENV", "development"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "budgettracker.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "budgettracker"),
		DBPassword: getEnv("DB_PASSWORD", "budgettracker"),
		DBName:     getEnv("DB_NAME", "budgettracker"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
	}

	config.JWTExpirationDur = parseDuration("JWT_EXPIRES_IN", 24*time.Hour)

	appConfig = config
	return config, nil
}

// Get returns the service configuration, loading it on first use
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// LoadClient loads the tracker client configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()

	return &ClientConfig{
		APIURL:         getEnv("API_URL", "http://localhost:5001"),
		StatePath:      getEnv("STATE_PATH", defaultStatePath()),
		RequestTimeout: parseDuration("REQUEST_TIMEOUT", 30*time.Second),
		Env:            getEnv("ENV", "development"),
	}, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v\n", err)
	}
}

// defaultStatePath places the client state next to the user's home directory.
func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".budgettracker.db"
	}
	return home + string(os.PathSeparator) + ".budgettracker.db"
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, fallback)
		return fallback
	}
	return d
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
