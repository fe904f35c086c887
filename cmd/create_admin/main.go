// Command create_admin seeds a staff account for the submission review API.
//
// Usage:
//
//	go run ./cmd/create_admin --username mo --email mo@mrx.studio [--admin]
//
// The password is read from ADMIN_PASSWORD, or --password when set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"mrxstudio/internal/config"
	"mrxstudio/internal/database"
	"mrxstudio/internal/logger"
	"mrxstudio/internal/services"
	"mrxstudio/internal/util"
)

func main() {
	username := flag.String("username", "admin", "Staff username")
	email := flag.String("email", "", "Staff email address (required)")
	password := flag.String("password", "", "Password (defaults to $ADMIN_PASSWORD)")
	admin := flag.Bool("admin", true, "Grant admin rights")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("ADMIN_PASSWORD")
	}
	if *email == "" || *password == "" {
		fmt.Fprintf(os.Stderr, "Error: --email and a password are required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.SetupDefault(os.Stdout, "INFO")
		logger.Fatal("failed to load config", "error", err)
	}
	logger.SetupDefault(os.Stdout, cfg.App.LogLevel)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", "error", err)
	}
	defer database.Close(db)

	// Token issuing is not needed to create accounts.
	auth := services.NewAuthService(db, util.NewTokenIssuer(cfg.Auth.SecretKey, 0))
	user, err := auth.CreateUser(context.Background(), services.CreateUserInput{
		Username: *username,
		Email:    *email,
		Password: *password,
		IsAdmin:  *admin,
	})
	if err != nil {
		logger.Fatal("failed to create staff user", "error", err)
	}

	fmt.Printf("Staff user %q created (id=%d, admin=%v)\n", user.Username, user.ID, user.IsAdmin)
}
