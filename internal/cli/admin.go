package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var errNoSecret = errors.New("admin secret required (--secret or LIVECLASS_ADMIN_SECRET)")

func newRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "List joined participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.AdminSecret == "" {
				return errNoSecret
			}

			var result Roster
			if err := client.Get("/api/v1/admin/roster", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newEvictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evict <identity>",
		Short: "Force-disconnect the connection bound to an identity",
		Long: `Evict the live connection whose identity (email) matches.

The connection is told it was evicted and closed after a short grace
period. Evicting an identity that is not connected succeeds and does nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.AdminSecret == "" {
				return errNoSecret
			}

			req := map[string]string{
				"secret":   cfg.AdminSecret,
				"identity": args[0],
			}

			var result EvictResult
			if err := client.Post("/api/v1/admin/evict", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}
