package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/models"
	"github.com/fraudsight/fraud-pipeline/internal/validation"
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

	service := validation.NewService(cfg)
	if err := service.Execute(); err != nil {
		var failure *models.ValidationFailure
		if errors.As(err, &failure) {
			log.Printf("Schema validation FAILED: fix the issues above before proceeding")
		}
		log.Fatalf("Error during schema validation: %v", err)
	}

	log.Println("All schema validations passed.")
}
