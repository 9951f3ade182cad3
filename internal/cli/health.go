package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := app.client.Get(cmd.Context(), "/api/v1/health", &result); err != nil {
				return err
			}

			app.output(cmd).Print(result)
			return nil
		},
	}
}
