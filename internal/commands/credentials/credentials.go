// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package credentials implements the credentials command, which keeps the
// Arena password in the operating system keychain.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tombee/arena-mcp/internal/commands/shared"
	"github.com/tombee/arena-mcp/internal/config"
	"github.com/tombee/arena-mcp/internal/secrets"
	arenaerrors "github.com/tombee/arena-mcp/pkg/errors"
)

// NewCommand creates the credentials command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the Arena password in the system keychain",
		Long: `Manage the Arena password in the system keychain.

The password is stored under the "arena-mcp" service, keyed by the Arena
login email. serve and check read it when ARENA_PASSWORD is not set.

Examples:
  arena-mcp credentials set --email eng@example.com
  echo "$PASSWORD" | arena-mcp credentials set --email eng@example.com
  arena-mcp credentials delete --email eng@example.com --force`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newDeleteCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the Arena password",
		Long: `Store the Arena password for an email address.

The password is read from standard input when it is not a terminal,
otherwise it is prompted for with hidden input. The email defaults to
ARENA_EMAIL or arena.email from the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Arena login email")

	return cmd
}

func newDeleteCommand() *cobra.Command {
	var (
		email string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored Arena password",
		Long: `Remove the stored Arena password for an email address.

Requires confirmation unless --force is used. Non-interactive sessions
must pass --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, email, force)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Arena login email")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete without confirmation")

	return cmd
}

func runSet(cmd *cobra.Command, email string) error {
	ctx := commandContext(cmd)

	email, err := resolveEmail(email)
	if err != nil {
		return err
	}

	password, err := readPassword(cmd, email)
	if err != nil {
		return err
	}
	if password == "" {
		return shared.NewFailure("password not stored", &arenaerrors.ValidationError{
			Field:      "password",
			Message:    "must not be empty",
			Suggestion: "pipe the password on standard input or enter it at the prompt",
		})
	}

	if err := secrets.NewKeychain().Set(ctx, email, password); err != nil {
		return keychainError("failed to store password", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Password stored for %s", email)))
	return nil
}

func runDelete(cmd *cobra.Command, email string, force bool) error {
	ctx := commandContext(cmd)

	email, err := resolveEmail(email)
	if err != nil {
		return err
	}

	if !force {
		if shared.IsNonInteractive() {
			return shared.NewFailure("refusing to delete without confirmation", &arenaerrors.ValidationError{
				Field:      "force",
				Message:    "confirmation is required",
				Suggestion: "pass --force in non-interactive sessions",
			})
		}
		confirmed, err := confirmDelete(email)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Deletion canceled")
			return nil
		}
	}

	if err := secrets.NewKeychain().Delete(ctx, email); err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return shared.NewCredentialError(fmt.Sprintf("no stored password for %s", email), nil)
		}
		return keychainError("failed to delete password", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(fmt.Sprintf("Password deleted for %s", email)))
	return nil
}

// resolveEmail falls back to the configured vendor email.
func resolveEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email != "" {
		return email, nil
	}

	cfg, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return "", shared.NewConfigError("failed to load configuration", err)
	}
	if cfg.Arena.Email == "" {
		return "", shared.NewFailure("no email given", &arenaerrors.ValidationError{
			Field:      "email",
			Message:    "is required",
			Suggestion: "pass --email or set ARENA_EMAIL",
		})
	}
	return cfg.Arena.Email, nil
}

// readPassword reads piped input, or prompts with hidden input on a terminal.
func readPassword(cmd *cobra.Command, email string) (string, error) {
	if !shared.StdinIsTerminal() {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", shared.NewFailure("failed to read password", err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Arena password").
				Description("Stored in the system keychain for " + email).
				EchoMode(huh.EchoModePassword).
				Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", shared.NewInterruptedError("aborted")
		}
		return "", shared.NewFailure("password prompt failed", err)
	}
	return password, nil
}

func confirmDelete(email string) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete the stored password for %s?", email)).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, shared.NewInterruptedError("aborted")
		}
		return false, shared.NewFailure("confirmation prompt failed", err)
	}
	return confirmed, nil
}

func keychainError(msg string, err error) error {
	if errors.Is(err, secrets.ErrBackendUnavailable) {
		return shared.NewCredentialError(msg+"; set ARENA_PASSWORD instead", err)
	}
	return shared.NewFailure(msg, err)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
