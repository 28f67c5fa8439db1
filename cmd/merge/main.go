package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/fraudsight/fraud-pipeline/internal/config"
	"github.com/fraudsight/fraud-pipeline/internal/database"
	"github.com/fraudsight/fraud-pipeline/internal/labeling"
)

func setup() (*labeling.MergeService, func(), error) {
	paramsFile := config.DefaultParamsFile
	if len(os.Args) > 1 {
		paramsFile = os.Args[1]
	}

	cfg, err := config.Load(paramsFile)
	if err != nil {
		return nil, nil, err
	}

	// The database sink is optional: without DATABASE_URL the stage still
	// produces the dataset artifact and the gate decision.
	var sink labeling.DatasetSink
	cleanupFunc := func() {}
	if cfg.DatabaseURL != "" {
		dbpool, err := database.ConnectDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sink = database.NewPostgresDBManager(context.Background(), dbpool)
		cleanupFunc = dbpool.Close
	} else {
		log.Println("DATABASE_URL not set, skipping database load")
	}

	return labeling.NewMergeService(cfg, sink), cleanupFunc, nil
}

// runStage executes the merge stage and releases the database pool before
// the caller decides the exit code, so a fatal exit never leaks connections.
func runStage(service *labeling.MergeService, cleanup func()) error {
	defer cleanup()
	return service.Execute()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	startTime := time.Now()

	service, cleanupFunc, err := setup()
	if err != nil {
		log.Fatal(err)
	}

	if err := runStage(service, cleanupFunc); err != nil {
		log.Fatalf("Error during merge stage: %v", err)
	}

	log.Println("Merge stage finished.")
	log.Printf("Execution time: %s", time.Since(startTime))
}
