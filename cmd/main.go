package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"Marketplace/internal/config"
	"Marketplace/internal/database"
)

var rootCmd = &cobra.Command{
	Use:          "marketplace",
	Short:        "Marketplace API server and maintenance commands",
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}

// openDatabase loads configuration, connects and migrates.
func openDatabase() (config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return config.Config{}, nil, err
	}
	log.Println("✅ Database connected and migrated successfully")
	return cfg, db, nil
}

func closeDatabase(db *gorm.DB) {
	if err := database.Close(db); err != nil {
		log.Printf("⚠️  %v", err)
	}
}
