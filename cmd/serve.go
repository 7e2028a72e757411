package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"

	"Marketplace/internal/cache"
	"Marketplace/internal/config"
	"Marketplace/internal/middleware"
	"Marketplace/internal/routes"
	"Marketplace/internal/server"
	"Marketplace/internal/services"
	"Marketplace/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (default command)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, db, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	logSettings(cfg)
	ctx := cmd.Context()

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	log.Printf("✅ Image storage ready (%s)", cfg.Storage.Driver)

	rdb, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer cache.Close(rdb)

	var denylist services.Denylist = services.NewDBDenylist(db)
	if rdb != nil {
		denylist = services.NewRedisDenylist(rdb)
	}

	cipher, err := services.NewFieldCipher(cfg.Auth.AppKey, "card_details")
	if err != nil {
		return err
	}

	tokens := services.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	users := services.NewUserService(db, tokens, denylist, store, cfg.Auth.AdminSetupKey)

	app := server.NewApp(server.Options{BodyLimitMB: cfg.BodyLimitMB, AccessLog: true}, routes.Deps{
		Tokens:   tokens,
		Denylist: denylist,
		Users:    users,
		Listings: services.NewListingService(db, store, cfg.AppURL),
		Messages: services.NewMessageService(db),
		Payments: services.NewPaymentService(db, cipher, services.NewMailer(cfg.Email)),
		Store:    store,
		AppURL:   cfg.AppURL,

		AuthLimiter: authLimiter(cfg.Limits),
	})

	log.Printf("🚀 Marketplace server starting on http://localhost:%s", cfg.Port)
	return app.Listen(":" + cfg.Port)
}

func logSettings(cfg config.Config) {
	log.Printf("🔍 Configuration:")
	log.Printf("   APP_URL: '%s'", cfg.AppURL)
	log.Printf("   DB_HOST: '%s'", cfg.Database.Host)
	log.Printf("   JWT_SECRET: '%s'", config.MaskSecret(cfg.Auth.JWTSecret))
	log.Printf("   ADMIN_SETUP_KEY: '%s'", config.MaskSecret(cfg.Auth.AdminSetupKey))
	log.Printf("   STORAGE_DRIVER: '%s'", cfg.Storage.Driver)
	log.Printf("   REDIS_ADDR: '%s'", cfg.Redis.Addr)
	log.Printf("   RESEND_API_KEY: '%s'", config.MaskSecret(cfg.Email.ResendAPIKey))
}

// authLimiter returns nil when AUTH_RATE_PER_MINUTE is zero or negative.
func authLimiter(cfg config.RateLimitConfig) *middleware.RateLimiter {
	if cfg.AuthPerMinute <= 0 {
		log.Println("⚠️  Auth rate limiting disabled")
		return nil
	}
	return middleware.NewRateLimiter(cfg.AuthPerMinute, cfg.AuthBurst)
}
