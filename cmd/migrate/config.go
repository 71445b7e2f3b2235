package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func loadEnvFiles() {
	_ = godotenv.Load(".env.local")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func postgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		getEnv("DB_POSTGRES_USER", "postgres"),
		getEnv("DB_POSTGRES_PASSWORD", "postgres"),
		getEnv("DB_POSTGRES_HOST", "localhost"),
		getEnv("DB_POSTGRES_PORT", "5432"),
		getEnv("DB_POSTGRES_DB", "libcatalog"),
	)
}

func migrationsDir() string {
	return getEnv("MIGRATIONS_DIR", "db/migrations")
}
