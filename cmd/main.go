package main

import (
	"log"
	"os"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/server"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	logger, err := helpers.NewLogger(helpers.LoggerConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := server.Start(logger); err != nil {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}
