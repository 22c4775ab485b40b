package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/leaderboard/internal/api/response"
	"github.com/mcoot/leaderboard/internal/client"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			if err := client.New(a.cfg.ServerURL).Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			a.output.Print(result)
			return nil
		},
	}
}
