package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative account commands",
	}

	cmd.AddCommand(newAdminDeleteCmd())
	cmd.AddCommand(newAdminExportCmd())

	return cmd
}

func newAdminDeleteCmd() *cobra.Command {
	var permanent bool

	cmd := &cobra.Command{
		Use:   "delete <identifier>",
		Short: "Delete another account",
		Long: `Delete another account (requires admin).

With --permanent the target identifier is tombstoned and every replay it
appears in is redacted. This works even when the identifier has no account,
which pre-emptively blocks it from ever creating one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]bool{"permanent": permanent}
			var result DeleteResult

			if err := client.Delete("/api/v1/admin/accounts/"+args[0], req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&permanent, "permanent", false, "Irreversibly delete and redact all replay data")

	return cmd
}

func newAdminExportCmd() *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "export <identifier>",
		Short: "Download another identifier's data archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := client.Download("/api/v1/admin/accounts/"+args[0]+"/export", destination)
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
