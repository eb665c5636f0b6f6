// seed inserts development sample data for local testing.
// Idempotent: skips the insert if the dev user (devuser) already exists.
package main

import (
	"context"
	"log"
	"time"

	"users-api/backend/internal/config"
	"users-api/backend/internal/db"
	"users-api/backend/internal/security"
	userdomain "users-api/backend/internal/user/domain"
	userrepo "users-api/backend/internal/user/repository"
)

const (
	devUsername = "devuser"
	devPassword = "Passw0rd!"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := userrepo.NewPostgresRepository(database)
	existing, err := users.GetByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("lookup dev user: %v", err)
	}
	if existing != nil {
		log.Printf("dev user %q already exists (id %d); nothing to do", devUsername, existing.ID)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	id, err := users.CreateWithPassword(ctx, &userdomain.User{
		Username: devUsername,
		Fname:    "Dev",
		Lname:    "User",
		Email:    "dev@example.com",
	}, hash)
	if err != nil {
		log.Fatalf("create dev user: %v", err)
	}
	log.Printf("created dev user %q (id %d) with password %q", devUsername, id, devPassword)
}
