package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wefixit/wefixit-backend/internal/config"
	"github.com/wefixit/wefixit-backend/internal/database"
	"github.com/wefixit/wefixit-backend/internal/logging"
	"github.com/wefixit/wefixit-backend/internal/services"
)

const commandTimeout = 30 * time.Second

var passwordStdin bool

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Manage WeFixIt admin accounts",
	Long:          `Create, reset, list and delete the admin accounts used to sign in to the WeFixIt API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin instead of prompting")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withStore connects to MongoDB, makes sure usernames are unique, runs fn
// against the admin store and disconnects.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store adminStore, out io.Writer) error) error {
	_ = godotenv.Load()

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, false)
	logger.SetOutput(cmd.ErrOrStderr())

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoURI, logger)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer database.Disconnect(client)

	db := client.Database(cfg.MongoDB)
	if err := services.EnsureAdminIndexes(ctx, db); err != nil {
		return err
	}
	return fn(ctx, services.NewAdminStore(db), cmd.OutOrStdout())
}
