package main

import (
	"context"
	"log"

	"taxii-services/internal/config"
	"taxii-services/internal/repository/unitofwork"
	"taxii-services/internal/service"
	"taxii-services/pkg/database"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	color.Cyan("🌱 Seeding TAXII defaults\n")

	report, err := service.Seed(context.Background(), unitofwork.NewRepositoryFactory(db))
	if err != nil {
		color.Red("Failed: %v", err)
		return
	}

	color.Green("Binding ids: %d upserted", report.Bindings)
	for _, name := range report.Collections {
		color.Green("Created collection: %s", name)
	}
	for _, path := range report.Services {
		color.Green("Created service: %s%s%s", cfg.App.BaseURL, service.ServicesPrefix, path)
	}
	for _, item := range report.Skipped {
		color.Yellow("Already present, skipped: %s", item)
	}

	color.Cyan("✅ Seeding completed")
}
