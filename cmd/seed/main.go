package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"libcatalog/internal/book"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	ctx := context.Background()
	repo := openRepo(ctx)

	books := sampleBooks()
	log.Printf("Seeding %d books...", len(books))

	for i := range books {
		if err := repo.Create(ctx, &books[i]); err != nil {
			log.Fatalf("Failed to insert %q: %v", books[i].Title, err)
		}
		log.Printf("Inserted %q (id=%d)", books[i].Title, books[i].ID)
	}

	log.Printf("Successfully seeded %d books", len(books))
}

func openRepo(ctx context.Context) book.Repository {
	storageType := getEnv("STORAGE_TYPE", "file")

	switch storageType {
	case "file":
		return book.NewFileRepo(getEnv("FILE_PATH", "data/books.json"))
	case "jsonbin":
		binID := os.Getenv("JSONBIN_BIN_ID")
		if binID == "" {
			log.Fatal("missing required environment variable: JSONBIN_BIN_ID")
		}
		return book.NewJSONBinRepo(
			getEnv("JSONBIN_URL", "https://api.jsonbin.io/v3"),
			binID,
			os.Getenv("JSONBIN_X_MASTER_KEY"),
			os.Getenv("JSONBIN_X_ACCESS_KEY"),
		)
	case "db":
		pool, err := pgxpool.New(ctx, postgresDSN())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		return book.NewPostgresRepo(pool, 5*time.Second)
	default:
		log.Fatalf("unknown STORAGE_TYPE %q (expected file, jsonbin or db)", storageType)
		return nil
	}
}

func sampleBooks() []book.Book {
	return []book.Book{
		{Title: "Dune", Author: "Frank Herbert", PublicationYear: 1965, Genre: "Science Fiction", Pages: 412, Availability: book.AvailabilityAvailable},
		{Title: "The Hobbit", Author: "J. R. R. Tolkien", PublicationYear: 1937, Genre: "Fantasy", Pages: 310, Availability: book.AvailabilityAvailable},
		{Title: "1984", Author: "George Orwell", PublicationYear: 1949, Genre: "Dystopian", Pages: 328, Availability: book.AvailabilityBorrowed},
		{Title: "Pride and Prejudice", Author: "Jane Austen", PublicationYear: 1813, Genre: "Romance", Pages: 432, Availability: book.AvailabilityAvailable},
		{Title: "Crime and Punishment", Author: "Fyodor Dostoevsky", PublicationYear: 1866, Genre: "Fiction", Pages: 671, Availability: book.AvailabilityAvailable},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", PublicationYear: 1969, Genre: "Science Fiction", Pages: 304, Availability: book.AvailabilityBorrowed},
		{Title: "A Brief History of Time", Author: "Stephen Hawking", PublicationYear: 1988, Genre: "Science", Pages: 212, Availability: book.AvailabilityAvailable},
		{Title: "The Name of the Rose", Author: "Umberto Eco", PublicationYear: 1980, Genre: "Mystery", Pages: 512, Availability: book.AvailabilityAvailable},
	}
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
