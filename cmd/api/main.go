package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/database"
	"github.com/fraudsight/fraud-pipeline/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	paramsFile := config.DefaultParamsFile
	if len(os.Args) > 1 {
		paramsFile = os.Args[1]
	}

	cfg, err := config.Load(paramsFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	dbpool, err := database.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	dbManager := database.NewPostgresDBManager(context.Background(), dbpool)
	router := server.SetupRoutes(server.NewStatusService(dbManager, cfg))

	log.Printf("Server starting on port %s", cfg.APIPort)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.APIPort), router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
