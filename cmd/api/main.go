package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"libcatalog/internal/book"
	"libcatalog/internal/httpx"
	"libcatalog/internal/platform/openlibrary"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	serverAddress := getEnv("APP_ADDR", ":8080")
	storageType := getEnv("STORAGE_TYPE", "file")

	var repo book.Repository
	var dbPool *pgxpool.Pool

	switch storageType {
	case "file":
		filePath := getEnv("FILE_PATH", "data/books.json")
		repo = book.NewFileRepo(filePath)
		log.Printf("using file storage at %s", filePath)
	case "jsonbin":
		repo = book.NewJSONBinRepo(
			getEnv("JSONBIN_URL", "https://api.jsonbin.io/v3"),
			mustGetEnv("JSONBIN_BIN_ID"),
			os.Getenv("JSONBIN_X_MASTER_KEY"),
			os.Getenv("JSONBIN_X_ACCESS_KEY"),
		)
		log.Println("using jsonbin storage")
	case "db":
		dsn := postgresDSN()
		dbPool = mustOpenDB(dsn)
		defer dbPool.Close()
		repo = book.NewPostgresRepo(dbPool, 5*time.Second)
		log.Printf("using postgres storage at %s", redactDSN(dsn))
	default:
		log.Fatalf("unknown STORAGE_TYPE %q (expected file, jsonbin or db)", storageType)
	}

	enricher := openlibrary.NewClient(
		os.Getenv("OPENLIBRARY_BASE_URL"),
		os.Getenv("OPENLIBRARY_COVERS_URL"),
		"libcatalog/1.0",
		1, 3,
	)

	service := book.NewService(repo, enricher)
	handler := book.NewHTTPHandler(service)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbPool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := dbPool.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("GET /books", handler.List)
	router.HandleFunc("POST /books", handler.Create)
	router.HandleFunc("GET /books/{id}", handler.GetByID)
	router.HandleFunc("PUT /books/{id}", handler.Update)
	router.HandleFunc("DELETE /books/{id}", handler.Delete)

	rateLimiter := httpx.NewRateLimitMiddleware(10, 20)

	var root http.Handler = router
	root = rateLimiter.Middleware(root)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		root = httpx.CORSMiddleware(strings.Split(origins, ","))(root)
	}
	root = httpx.SecurityHeadersMiddleware(root)
	root = httpx.RequestSizeLimitMiddleware(1 << 20)(root)
	root = httpx.RecoveryMiddleware(root)
	root = httpx.AccessLogMiddleware(root)
	root = httpx.RequestIDMiddleware(root)

	httpServer := &http.Server{
		Addr:         serverAddress,
		Handler:      root,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", serverAddress)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustGetEnv(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	log.Fatalf("missing required environment variable: %s", key)
	return ""
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

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
