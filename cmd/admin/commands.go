package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wefixit/wefixit-backend/internal/models"
	"github.com/wefixit/wefixit-backend/internal/services"
	"github.com/wefixit/wefixit-backend/pkg/utils"
)

const minPasswordLength = 8

type adminStore interface {
	FindByUsername(ctx context.Context, username string) (*models.Admin, error)
	Create(ctx context.Context, username, passwordHash string) (*models.Admin, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string, bumpVersion bool) error
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]models.Admin, error)
}

var createCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an admin, or set the password of an existing one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := cleanUsername(args[0])
		if err != nil {
			return err
		}
		password, err := readPassword(cmd, true)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, store adminStore, out io.Writer) error {
			return createAdmin(ctx, store, username, password, out)
		})
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a new password and revoke the admin's tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username, err := cleanUsername(args[0])
		if err != nil {
			return err
		}
		password, err := readPassword(cmd, true)
		if err != nil {
			return err
		}
		return withStore(cmd, func(ctx context.Context, store adminStore, out io.Writer) error {
			return resetPassword(ctx, store, username, password, out)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List admin accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, listAdmins)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete an admin account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(args[0])
		return withStore(cmd, func(ctx context.Context, store adminStore, out io.Writer) error {
			return deleteAdmin(ctx, store, username, out)
		})
	},
}

func init() {
	rootCmd.AddCommand(createCmd, resetPasswordCmd, listCmd, deleteCmd)
}

func cleanUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	if err := utils.ValidateUsername(username); err != nil {
		return "", err
	}
	return username, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

// createAdmin inserts the admin or, when the username exists, replaces its
// password and revokes its tokens.
func createAdmin(ctx context.Context, store adminStore, username, password string, out io.Writer) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	existing, err := store.FindByUsername(ctx, username)
	switch {
	case err == nil:
		return replacePassword(ctx, store, existing.Username, hash, out)
	case !errors.Is(err, services.ErrNotFound):
		return fmt.Errorf("look up admin %q: %w", username, err)
	}

	_, err = store.Create(ctx, username, hash)
	if errors.Is(err, services.ErrDuplicate) {
		// created between the lookup and the insert
		return replacePassword(ctx, store, username, hash, out)
	}
	if err != nil {
		return fmt.Errorf("create admin %q: %w", username, err)
	}
	fmt.Fprintf(out, "Admin %q created.\n", username)
	return nil
}

func replacePassword(ctx context.Context, store adminStore, username, hash string, out io.Writer) error {
	if err := store.UpdatePasswordHash(ctx, username, hash, true); err != nil {
		return fmt.Errorf("update admin %q: %w", username, err)
	}
	fmt.Fprintf(out, "Admin %q already existed; password updated.\n", username)
	return nil
}

func resetPassword(ctx context.Context, store adminStore, username, password string, out io.Writer) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = store.UpdatePasswordHash(ctx, username, hash, true)
	if errors.Is(err, services.ErrNotFound) {
		return fmt.Errorf("no admin named %q", username)
	}
	if err != nil {
		return fmt.Errorf("reset password for %q: %w", username, err)
	}
	fmt.Fprintf(out, "Password reset for %q. Existing tokens are revoked.\n", username)
	return nil
}

// listAdmins prints usernames and creation dates, never hashes.
func listAdmins(ctx context.Context, store adminStore, out io.Writer) error {
	admins, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Fprintln(out, "No admins found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tCREATED")
	for _, a := range admins {
		created := "-"
		if !a.CreatedAt.IsZero() {
			created = a.CreatedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.Username, created)
	}
	return tw.Flush()
}

func deleteAdmin(ctx context.Context, store adminStore, username string, out io.Writer) error {
	err := store.Delete(ctx, username)
	if errors.Is(err, services.ErrNotFound) {
		return fmt.Errorf("no admin named %q", username)
	}
	if err != nil {
		return fmt.Errorf("delete admin %q: %w", username, err)
	}
	fmt.Fprintf(out, "Admin %q deleted.\n", username)
	return nil
}
