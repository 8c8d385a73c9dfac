package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Drivers de armazenamento aceitos em STORE_DRIVER.
const (
	DriverMemory    = "memory"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

type AppConfig struct {
	Port     string
	LogLevel string

	StoreDriver         string
	SQLitePath          string
	FirestoreProjectID  string
	FirestoreDatabaseID string

	// JWTSecret vazio desliga a autenticação; tudo fica no dono "local".
	JWTSecret string

	MaxUploadSizeBytes int64
	ParseCacheTTL      time.Duration
	DuplicatePolicy    string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load lê o .env (se houver) e depois o ambiente.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Arquivo .env não encontrado, usando variáveis de ambiente e padrões")
	}
	return FromEnv()
}

// FromEnv monta a configuração só com o ambiente do processo.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                getEnv("PORT", "8084"),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		SQLitePath:          getEnv("SQLITE_PATH", "./imports.db"),
		FirestoreProjectID:  getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreDatabaseID: getEnv("FIRESTORE_DATABASE_ID", "(default)"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		MaxUploadSizeBytes:  int64(getEnvAsInt("MAX_UPLOAD_SIZE_MB", 20)) << 20,
		ParseCacheTTL:       getEnvAsDuration("PARSE_CACHE_TTL", 10*time.Minute),
		DuplicatePolicy:     strings.ToLower(getEnv("DUPLICATE_POLICY", "flag")),
		RateLimitPerSecond:  getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      getEnvAsInt("RATE_LIMIT_BURST", 10),
	}

	switch cfg.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverFirestore:
		if cfg.FirestoreProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID é obrigatório com STORE_DRIVER=firestore")
		}
	default:
		return nil, fmt.Errorf("STORE_DRIVER inválido: %q", cfg.StoreDriver)
	}
	if cfg.DuplicatePolicy != "flag" && cfg.DuplicatePolicy != "skip" {
		return nil, fmt.Errorf("DUPLICATE_POLICY inválido: %q", cfg.DuplicatePolicy)
	}
	if cfg.MaxUploadSizeBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE_MB deve ser positivo")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Valor inválido para %s (%q), usando padrão: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Valor inválido para %s (%q), usando padrão: %v", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Valor inválido para %s (%q), usando padrão: %s", key, valueStr, fallback)
	return fallback
}
