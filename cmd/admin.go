package main

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"

	"Marketplace/internal/services"
	"Marketplace/internal/storage"
)

var adminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account without the setup key",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		cfg, db, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		tokens := services.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
		users := services.NewUserService(db, tokens, services.NewDBDenylist(db), storage.Disabled{}, cfg.Auth.AdminSetupKey)

		admin, err := users.CreateAdmin(cmd.Context(), name, email, password)
		if err != nil {
			var verr *services.ValidationError
			if errors.As(err, &verr) {
				for field, msgs := range verr.Fields {
					log.Printf("   %s: %v", field, msgs)
				}
			}
			return err
		}

		log.Printf("✅ Admin %s <%s> created with id %d", admin.Name, admin.Email, admin.ID)
		return nil
	},
}

func init() {
	adminCmd.Flags().String("name", "Administrator", "display name")
	adminCmd.Flags().String("email", "", "login email")
	adminCmd.Flags().String("password", "", "login password (min 8 characters)")
	_ = adminCmd.MarkFlagRequired("email")
	_ = adminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(adminCmd)
}
