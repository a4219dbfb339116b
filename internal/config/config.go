package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL string
	WSURL  string

	Email    string
	Password string
	Room     string

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HandshakeTimeout  time.Duration
}

// Load читает .env.local, затем .env, затем переменные окружения
func Load() *Config {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	return &Config{
		APIURL:            getEnv("API_URL", "http://localhost:8080"),
		WSURL:             getEnv("WS_URL", "ws://localhost:8080/ws"),
		Email:             os.Getenv("VOXUS_EMAIL"),
		Password:          os.Getenv("VOXUS_PASSWORD"),
		Room:              getEnv("VOXUS_ROOM", "general"),
		ReconnectAttempts: getEnvInt("WS_RECONNECT_ATTEMPTS", 5),
		ReconnectDelay:    getEnvDuration("WS_RECONNECT_DELAY", 2*time.Second),
		HandshakeTimeout:  getEnvDuration("WS_HANDSHAKE_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
		log.Printf("[WARN] invalid %s=%q, using default %d", key, v, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
		log.Printf("[WARN] invalid %s=%q, using default %s", key, v, fallback)
	}
	return fallback
}
