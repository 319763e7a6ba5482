package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/hash-key/main.go <api-key>")
		fmt.Println("Example: go run cmd/hash-key/main.go \"storefront-key-12345\"")
		os.Exit(1)
	}

	apiKey := os.Args[1]

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if len(apiKey) < 12 {
		logger.Warn("API key is short, prefer at least 12 characters", zap.Int("length", len(apiKey)))
	}

	// Hash the API key
	apiKeyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key hashed.\n\n")
	fmt.Printf("Add this line to the cartd environment:\n")
	fmt.Printf("API_KEY_HASH=%s\n", apiKeyHash)
	fmt.Printf("\nClients send the key in the %s header:\n", "X-API-Key")
	fmt.Printf("X-API-Key: %s\n", apiKey)
}
