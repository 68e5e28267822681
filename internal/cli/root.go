package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "wordduel",
		Short: "CLI client for the word duel server",
		Long: `wordduel is a terminal client for the word duel server.

It can list open rooms over HTTP and play a full match over the
websocket connection, reading commands from stdin.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load identity from file if not provided via flag/env
			if err := cfg.LoadIdentity(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: WORDDUEL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Identity, "identity", cfg.Identity, "Player identity (env: WORDDUEL_IDENTITY)")
	rootCmd.PersistentFlags().StringVar(&cfg.IdentityFile, "identity-file", cfg.IdentityFile, "Identity file path (env: WORDDUEL_IDENTITY_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newRoomsCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
