package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/jafarshop/exactsync/internal/config"
	"github.com/jafarshop/exactsync/internal/domain"
	"github.com/jafarshop/exactsync/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run cmd/create-admin-key/main.go <key-name> <api-key>")
		fmt.Println("Example: go run cmd/create-admin-key/main.go \"ops\" \"ops-api-key-12345\"")
		os.Exit(1)
	}

	keyName := os.Args[1]
	apiKey := os.Args[2]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	// Create repositories
	repos := postgres.NewRepositories(db, logger)

	// Create admin key
	key := &domain.AdminKey{
		Name:       keyName,
		APIKeyHash: string(apiKeyHash),
		IsActive:   true,
	}

	err = repos.AdminKey.Create(context.Background(), key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create admin key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin key created successfully!\n\n")
	fmt.Printf("Key ID: %s\n", key.ID.String())
	fmt.Printf("Key Name: %s\n", key.Name)
	fmt.Printf("\nUse this API key in the Authorization header:\n")
	fmt.Printf("Authorization: Bearer %s\n", apiKey)
}
