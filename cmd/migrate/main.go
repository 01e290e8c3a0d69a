package main

import (
	"context"
	"log"

	"gatepass/internal/config"
	"gatepass/internal/repository"
	"gatepass/pkg/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := repository.InitSchema(context.Background(), db); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	log.Println("Schema applied")
}
