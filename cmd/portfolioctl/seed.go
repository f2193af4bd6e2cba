package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfolio/portfolio-api/internal/client/api"
	"github.com/pfolio/portfolio-api/internal/config"
	"github.com/pfolio/portfolio-api/internal/database"
	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/repository"
	"github.com/pfolio/portfolio-api/internal/service"
)

func newSeedCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Provision the admin user if it does not exist",
		Long: "Provision the admin user if it does not exist. By default the database " +
			"is written directly; --remote calls the API's seed endpoint instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if remote {
				server, _ := cmd.Flags().GetString("server")
				res, err := api.New(server, nil).Seed(ctx)
				if err != nil {
					return fmt.Errorf("seed failed: %w", err)
				}
				printSeed(cmd.OutOrStdout(), res.Created, res.User.Email, res.TemporaryPassword)
				return nil
			}
			return seedDirect(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "seed through the API instead of the database")
	return cmd
}

func seedDirect(ctx context.Context, w io.Writer) error {
	cfg := config.Load()
	log := logging.New(os.Stderr, cfg.Env, cfg.LogLevel)
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	res, err := seedWith(ctx, db, log, cfg)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	printSeed(w, res.Created, res.User.Email, res.TemporaryPassword)
	return nil
}

func seedWith(ctx context.Context, db *sql.DB, log logging.Logger, cfg config.Config) (service.SeedResult, error) {
	svc := service.NewAuthService(repository.NewUserRepo(db), nil, nil, nil, log, service.AuthOptions{
		Secret:            cfg.JWTSecret,
		SessionTTL:        cfg.SessionTTL,
		BcryptCost:        cfg.BcryptCost,
		AdminEmail:        cfg.AdminEmail,
		AdminTempPassword: cfg.AdminTempPassword,
	})
	return svc.Seed(ctx)
}

func printSeed(w io.Writer, created bool, email, tempPassword string) {
	if !created {
		fmt.Fprintf(w, "admin user %s already exists\n", email)
		return
	}
	fmt.Fprintf(w, "created admin user %s\n", email)
	if tempPassword != "" {
		fmt.Fprintf(w, "temporary password: %s\nchange it with `portfolioctl passwd` after signing in\n", tempPassword)
	}
}

func newPurgeRevokedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-revoked",
		Short: "Delete revoked-token entries whose tokens have expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				n, err := repository.NewTokenRepo(db).PurgeExpired(ctx, time.Now())
				if err != nil {
					return fmt.Errorf("purge failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d revoked token(s)\n", n)
				return nil
			})
		},
	}
}
