package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account management commands",
	}

	cmd.AddCommand(newAccountLoginCmd())
	cmd.AddCommand(newAccountLogoutCmd())
	cmd.AddCommand(newAccountShowCmd())
	cmd.AddCommand(newAccountDeleteCmd())
	cmd.AddCommand(newAccountExportCmd())
	cmd.AddCommand(newAccountFavoritesCmd())

	return cmd
}

func newAccountLoginCmd() *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with an external identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"identifier": identifier}
			var result AuthResult

			if err := client.Post("/api/v1/auth/login", req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&identifier, "id", "", "External identifier (required)")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newAccountLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/auth/logout", nil, nil); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newAccountShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Account

			if err := client.Get("/api/v1/account", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newAccountDeleteCmd() *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the current account",
		Long: `Delete the current account.

Without --permanent this removes the account, its settings and its history;
logging in again later starts a fresh account.

With --permanent the deletion is irreversible: the identifier can never be
used here again and every replay the identifier appears in has its personal
data redacted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]bool{"permanent": permanent}
			var result DeleteResult

			if err := client.Delete("/api/v1/account", req, &result); err != nil {
				return err
			}

			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to clear token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "Irreversibly delete and redact all replay data")

	return cmd
}

func newAccountExportCmd() *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download an archive of your stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := client.Download("/api/v1/account/export", destination)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Export written to %s", path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "file", "f", "", "Destination file (defaults to the server-suggested name)")

	return cmd
}

func newAccountFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite replays",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite replays",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Replay

			if err := client.Get("/api/v1/account/favorites", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <replay-id>",
		Short: "Add a favorite replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"replay_id": args[0]}

			if err := client.Post("/api/v1/account/favorites", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Favorite added")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <replay-id>",
		Short: "Remove a favorite replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/account/favorites/"+args[0], nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Favorite removed")
			return nil
		},
	})

	return cmd
}
