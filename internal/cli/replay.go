package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay browsing commands",
	}

	cmd.AddCommand(newReplayListCmd())
	cmd.AddCommand(newReplaySearchCmd())
	cmd.AddCommand(newReplayShowCmd())

	return cmd
}

func newReplayListCmd() *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List replays, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Replay

			path := fmt.Sprintf("/api/v1/replays?offset=%d&limit=%d", offset, limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Number of replays to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of replays to return")

	return cmd
}

func newReplaySearchCmd() *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search replays by map, gamemode, server or player name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Replay

			path := fmt.Sprintf("/api/v1/replays/search?q=%s&offset=%d&limit=%d",
				url.QueryEscape(args[0]), offset, limit)
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "Number of replays to skip")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of replays to return")

	return cmd
}

func newReplayShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <replay-id>",
		Short: "Show a single replay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Replay

			if err := client.Get("/api/v1/replays/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
