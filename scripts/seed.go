//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/digisaathi/server/internal/auth"
	"github.com/digisaathi/server/internal/database"
	"github.com/digisaathi/server/pkg/config"
	"github.com/digisaathi/server/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	name := os.Getenv("DEMO_NAME")

	if email == "" {
		email = "demo@digisaathi.in"
	}
	if password == "" {
		password = "demo12345!"
	}
	if name == "" {
		name = "Demo User"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		FullName: name,
		Language: "hi",
	})

	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Demo user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create demo user: %v", err)
	}

	fmt.Printf("Demo user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Token: %s\n", resp.Token)
}
