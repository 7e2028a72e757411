package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"Marketplace/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo sellers, buyers and listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		result, err := database.Seed(db, rand.New(rand.NewSource(time.Now().UnixNano())))
		if err != nil {
			return err
		}
		log.Printf("🌱 Seeded %d sellers, %d buyers and %d listings (password %q)",
			result.Sellers, result.Buyers, result.Listings, database.SeedPassword)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openDatabase()
		if err != nil {
			return err
		}
		closeDatabase(db)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateCmd)
}
