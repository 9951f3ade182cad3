package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cliApp carries the resolved configuration and API client to subcommands
type cliApp struct {
	cfg        Config
	client     *Client
	configFile string
}

// configure resolves configuration and builds the API client. With
// --verbose, requests are logged to stderr.
func (a *cliApp) configure(cmd *cobra.Command) error {
	cfg, err := LoadConfig(viper.New(), cmd.Flags(), a.configFile)
	if err != nil {
		return err
	}

	var logger *slog.Logger
	if cfg.Verbose {
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	a.cfg = cfg
	a.client = NewClient(cfg.ServerURL, cfg.Timeout, logger)
	return nil
}

func (a *cliApp) output(cmd *cobra.Command) *Output {
	return NewOutput(a.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd, _ := newRootCmd()
	return rootCmd
}

func newRootCmd() (*cobra.Command, *cliApp) {
	app := &cliApp{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "friendapi",
		Short: "CLI tool for the friend list API",
		Long: `friendapi is a CLI tool for managing a friend list through the friend API server.

Players can be added and removed by username or profile id. The update command
refreshes renamed players and drops deleted ones.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.configure(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := DefaultConfig()
	rootCmd.PersistentFlags().String("server", defaults.ServerURL, "Server URL (env: FRIENDAPI_SERVER)")
	rootCmd.PersistentFlags().StringP("output", "o", defaults.Output, "Output format: text, json")
	rootCmd.PersistentFlags().Duration("timeout", defaults.Timeout, "Request timeout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", defaults.Verbose, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "Config file (default $HOME/.friendapi/config.yaml)")

	rootCmd.AddCommand(newListCmd(app))
	rootCmd.AddCommand(newAddCmd(app))
	rootCmd.AddCommand(newRemoveCmd(app))
	rootCmd.AddCommand(newClearCmd(app))
	rootCmd.AddCommand(newUpdateCmd(app))
	rootCmd.AddCommand(newSuggestCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	rootCmd.AddCommand(newEventsCmd(app))
	rootCmd.AddCommand(newHealthCmd(app))

	return rootCmd, app
}

// Execute runs the root command, printing any error in the configured format
func Execute() {
	rootCmd, app := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		app.output(rootCmd).PrintError(err)
		os.Exit(1)
	}
}
